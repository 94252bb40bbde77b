package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketboard/internal/query"
)

// getBoard serves the cached price board, refetching first when stale.
func (s *Server) getBoard(c *gin.Context) {
	rows, err := s.Query.Board(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":  "UPSTREAM_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}

// getStockDetail serves one symbol's cached record, refetching when stale.
func (s *Server) getStockDetail(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	d, err := s.Query.Detail(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, query.ErrNoSymbol) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "MISSING_SYMBOL",
				"error": "symbol is required",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"code":  "UPSTREAM_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, d)
}

// getSystemStatus reports the stream state and runtime configuration the UI
// shows in its status bar.
func (s *Server) getSystemStatus(c *gin.Context) {
	hasSession := false
	if tok, err := s.Sessions.Token(c.Request.Context()); err == nil && tok != "" {
		hasSession = true
	}

	c.JSON(http.StatusOK, gin.H{
		"stream_state": s.Stream.State().String(),
		"has_session":  hasSession,
		"terminal_id":  s.Sessions.TerminalID(),
		"stream_url":   s.Meta.StreamURL,
		"mock_feed":    s.Meta.UseMockFeed,
		"version":      s.Meta.Version,
		"cached_rows":  s.Query.Cache.Len(),
		"server_time":  time.Now().UTC().Format(time.RFC3339),
	})
}

// getMetrics serves the monitoring snapshot.
func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}

// sessionLogin authenticates against the upstream back office, persists the
// returned session token and announces it; the stream manager picks it up off
// the bus and opens the push connection.
func (s *Server) sessionLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "MISSING_CREDENTIALS",
			"error": "username and password are required",
		})
		return
	}

	token, err := s.Upstream.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":  "UPSTREAM_LOGIN_FAILED",
			"error": err.Error(),
		})
		return
	}

	if err := s.Sessions.Save(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "SESSION_SAVE_FAILED",
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "logged_in",
		"terminal_id": s.Sessions.TerminalID(),
	})
}

// sessionLogout clears the persisted token; the announcement closes the push
// connection.
func (s *Server) sessionLogout(c *gin.Context) {
	if err := s.Sessions.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "SESSION_CLEAR_FAILED",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
