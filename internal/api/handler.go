package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketboard/internal/events"
	"marketboard/internal/monitor"
	"marketboard/internal/query"
	"marketboard/internal/stream"
	"marketboard/pkg/db"
	"marketboard/pkg/market/hsx"
	"marketboard/pkg/session"
)

// Server wires the local HTTP surface around the cache: board and detail
// reads, session control for the upstream stream, and a websocket fan-out.
type Server struct {
	Router    *gin.Engine
	Bus       *events.Bus
	Query     *query.Service
	Stream    *stream.Manager
	Sessions  *session.Store
	Upstream  *hsx.Client
	DB        *db.Database
	Metrics   *monitor.Metrics
	JWTSecret string
	Meta      SystemMeta
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	UseMockFeed bool
	StreamURL   string
	Version     string
}

func NewServer(bus *events.Bus, querySvc *query.Service, streamMgr *stream.Manager, sessions *session.Store, upstream *hsx.Client, database *db.Database, metrics *monitor.Metrics, meta SystemMeta, jwtSecret string) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(metrics))
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router:    r,
		Bus:       bus,
		Query:     querySvc,
		Stream:    streamMgr,
		Sessions:  sessions,
		Upstream:  upstream,
		DB:        database,
		Metrics:   metrics,
		JWTSecret: jwtSecret,
		Meta:      meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.POST("/auth/login", s.loginOperator)

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/market/board", s.getBoard)
			protected.GET("/market/stocks/:symbol", s.getStockDetail)
			protected.GET("/system/status", s.getSystemStatus)
			protected.GET("/metrics", s.getMetrics)

			protected.POST("/session/login", s.sessionLogin)
			protected.POST("/session/logout", s.sessionLogout)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
