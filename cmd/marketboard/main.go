package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"marketboard/internal/api"
	"marketboard/internal/board"
	"marketboard/internal/events"
	"marketboard/internal/monitor"
	"marketboard/internal/publish"
	"marketboard/internal/query"
	"marketboard/internal/stream"
	"marketboard/pkg/config"
	"marketboard/pkg/db"
	"marketboard/pkg/market/hsx"
	"marketboard/pkg/session"
)

const version = "1.2.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("marketboard gateway v%s starting", version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()
	defer bus.Close()

	metrics := monitor.NewMetrics()
	cache := board.NewCache(bus)

	// Warm start: last persisted board beats an empty one while the first
	// pull is in flight.
	if rows, err := database.LoadBoardSnapshot(ctx); err != nil {
		log.Printf("load board snapshot: %v", err)
	} else if len(rows) > 0 {
		cache.ReplaceBoard(rows)
		log.Printf("restored %d board rows from snapshot", len(rows))
	}

	sessions, err := session.NewStore(database, bus)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	log.Printf("terminal id: %s", sessions.TerminalID())

	upstream := hsx.NewClient(cfg.RestURL)
	router := &stream.Router{Cache: cache, Metrics: metrics}

	streamMgr := &stream.Manager{
		Stream:    hsx.NewStreamClient(cfg.StreamURL),
		Router:    router,
		Bus:       bus,
		Metrics:   metrics,
		RetryWait: cfg.StreamRetryWait,
	}
	streamMgr.Start(ctx)

	// Credential changes reach the REST client and the stream manager the
	// same way a fresh login does: off the bus.
	credCh, unsubCred := bus.Subscribe(events.EventCredential, 8)
	go func() {
		defer unsubCred()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-credCh:
				if !ok {
					return
				}
				token, isToken := msg.(string)
				if !isToken {
					continue
				}
				upstream.SetToken(token)
				streamMgr.SetCredential(token)
			}
		}
	}()

	bootstrapCredential(ctx, cfg, sessions, upstream, streamMgr)

	querySvc := query.NewService(upstream, cache)
	querySvc.BoardStale = cfg.BoardStaleAfter
	querySvc.BoardInterval = cfg.BoardRefreshInterval
	querySvc.DetailStale = cfg.DetailStaleAfter
	querySvc.DetailInterval = cfg.DetailRefreshInterval

	if entries, err := config.LoadWatchlist(cfg.WatchlistPath); err != nil {
		log.Printf("load watchlist %s: %v", cfg.WatchlistPath, err)
	} else {
		symbols := make([]string, 0, len(entries))
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
		querySvc.Watch(symbols...)
		log.Printf("watching %d symbols", len(symbols))
	}
	querySvc.Start(ctx)

	if cfg.UseMockFeed {
		log.Println("mock feed enabled, synthesizing stream frames")
		feed := &stream.MockFeed{Router: router}
		feed.Start(ctx)
	}

	if cfg.NATSEnabled {
		pub, err := publish.NewPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			log.Printf("nats mirror disabled: %v", err)
		} else {
			defer pub.Close()
			pub.Start(ctx, bus)
			log.Printf("mirroring updates to %s", cfg.NATSURL)
		}
	}

	go snapshotLoop(ctx, database, cache, cfg.SnapshotInterval)

	seedOperator(ctx, database, cfg)

	server := api.NewServer(bus, querySvc, streamMgr, sessions, upstream, database, metrics, api.SystemMeta{
		UseMockFeed: cfg.UseMockFeed,
		StreamURL:   cfg.StreamURL,
		Version:     version,
	}, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
	cancel()

	// Persist the final board so the next start is warm.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := database.SaveBoardSnapshot(saveCtx, cache.Board()); err != nil {
		log.Printf("save board snapshot: %v", err)
	}
	log.Println("shutdown complete")
}

// bootstrapCredential restores a persisted session token, falling back to a
// configured service login when none exists. Failure to obtain a credential
// is not fatal: the gateway runs pull-only until an operator logs in.
func bootstrapCredential(ctx context.Context, cfg *config.Config, sessions *session.Store, upstream *hsx.Client, streamMgr *stream.Manager) {
	token, err := sessions.Token(ctx)
	if err != nil {
		log.Printf("read persisted session: %v", err)
	}
	if token != "" {
		log.Println("restored persisted session token")
		upstream.SetToken(token)
		streamMgr.SetCredential(token)
		return
	}

	if cfg.Username == "" || cfg.Password == "" {
		log.Println("no credential available, stream stays down until login")
		return
	}

	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	token, err = upstream.Login(loginCtx, cfg.Username, cfg.Password)
	if err != nil {
		log.Printf("upstream login failed: %v", err)
		return
	}
	if err := sessions.Save(ctx, token); err != nil {
		log.Printf("persist session: %v", err)
		// Save also announces on the bus; announce by hand if that failed.
		upstream.SetToken(token)
		streamMgr.SetCredential(token)
	}
}

func snapshotLoop(ctx context.Context, database *db.Database, cache *board.Cache, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rows := cache.Board()
			if len(rows) == 0 {
				continue
			}
			saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := database.SaveBoardSnapshot(saveCtx, rows); err != nil {
				log.Printf("periodic board snapshot: %v", err)
			}
			cancel()
		}
	}
}

// seedOperator ensures the configured admin operator exists so the local API
// is reachable on a fresh database.
func seedOperator(ctx context.Context, database *db.Database, cfg *config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	existing, err := database.GetOperatorByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		log.Printf("seed operator: %v", err)
		return
	}
	if existing != nil {
		return
	}
	hash, err := api.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Printf("seed operator: hash password: %v", err)
		return
	}
	err = database.UpsertOperator(ctx, db.Operator{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
	})
	if err != nil {
		log.Printf("seed operator: %v", err)
		return
	}
	log.Printf("seeded admin operator %s", cfg.AdminEmail)
}
