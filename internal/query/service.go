package query

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketboard/internal/board"
	"marketboard/pkg/market/hsx"
)

// ErrNoSymbol reports a detail read without a symbol. The fetch is disabled,
// not failed; callers treat this as "nothing to show yet".
var ErrNoSymbol = errors.New("query: no symbol supplied")

// Default pull policy. The board changes constantly but is cheap to snapshot;
// details change faster per symbol and are fetched one at a time.
const (
	DefaultBoardStale     = 5 * time.Second
	DefaultBoardInterval  = 15 * time.Second
	DefaultDetailStale    = 10 * time.Second
	DefaultDetailInterval = 30 * time.Second

	// watchTTL bounds how long an untouched symbol stays in the background
	// detail-refresh set.
	watchTTL = 5 * time.Minute
)

// Service is the read side of the market cache. It serves cached data while
// fresh and refetches over REST when stale, independently of push-driven
// merges — a session without a live stream still gets periodic snapshots.
type Service struct {
	Client *hsx.Client
	Cache  *board.Cache

	BoardStale     time.Duration
	BoardInterval  time.Duration
	DetailStale    time.Duration
	DetailInterval time.Duration

	group singleflight.Group

	mu            sync.Mutex
	boardFetched  time.Time
	detailFetched map[string]time.Time
	watched       map[string]time.Time
}

// NewService builds a query service with default pull policy.
func NewService(client *hsx.Client, cache *board.Cache) *Service {
	return &Service{
		Client:         client,
		Cache:          cache,
		BoardStale:     DefaultBoardStale,
		BoardInterval:  DefaultBoardInterval,
		DetailStale:    DefaultDetailStale,
		DetailInterval: DefaultDetailInterval,
		detailFetched:  make(map[string]time.Time),
		watched:        make(map[string]time.Time),
	}
}

// Board returns the current board rows, refetching first when the last pull
// is older than the freshness window. On refetch failure a non-empty cache is
// served as-is: stale-but-available beats an error page.
func (s *Service) Board(ctx context.Context) ([]hsx.SummaryRow, error) {
	s.mu.Lock()
	fresh := time.Since(s.boardFetched) < s.BoardStale
	s.mu.Unlock()

	if fresh {
		return s.Cache.Board(), nil
	}
	return s.refreshBoard(ctx)
}

func (s *Service) refreshBoard(ctx context.Context) ([]hsx.SummaryRow, error) {
	_, err, _ := s.group.Do("board", func() (any, error) {
		rows, err := s.Client.GetBoard(ctx)
		if err != nil {
			return nil, err
		}
		s.Cache.ReplaceBoard(rows)
		s.mu.Lock()
		s.boardFetched = time.Now()
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		if s.Cache.Len() > 0 {
			log.Printf("query: board refresh failed, serving cached rows: %v", err)
			return s.Cache.Board(), nil
		}
		return nil, err
	}
	return s.Cache.Board(), nil
}

// Detail returns the cached record for one symbol, refetching when stale. An
// empty symbol disables the fetch entirely.
func (s *Service) Detail(ctx context.Context, symbol string) (hsx.StockDetail, error) {
	if symbol == "" {
		return hsx.StockDetail{}, ErrNoSymbol
	}

	s.mu.Lock()
	s.watched[symbol] = time.Now()
	fresh := time.Since(s.detailFetched[symbol]) < s.DetailStale
	s.mu.Unlock()

	if fresh {
		if d, ok := s.Cache.Detail(symbol); ok {
			return d, nil
		}
	}
	return s.refreshDetail(ctx, symbol)
}

func (s *Service) refreshDetail(ctx context.Context, symbol string) (hsx.StockDetail, error) {
	_, err, _ := s.group.Do("detail:"+symbol, func() (any, error) {
		d, err := s.Client.GetStockDetail(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.Cache.SetDetail(d)
		s.mu.Lock()
		s.detailFetched[symbol] = time.Now()
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		if d, ok := s.Cache.Detail(symbol); ok {
			log.Printf("query: detail refresh %s failed, serving cached: %v", symbol, err)
			return d, nil
		}
		return hsx.StockDetail{}, err
	}
	d, _ := s.Cache.Detail(symbol)
	return d, nil
}

// Watch seeds symbols into the background detail-refresh set, e.g. from the
// configured watchlist.
func (s *Service) Watch(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, sym := range symbols {
		if sym != "" {
			s.watched[sym] = now
		}
	}
}

// Start launches the background refetch tickers.
func (s *Service) Start(ctx context.Context) {
	go s.boardLoop(ctx)
	go s.detailLoop(ctx)
}

func (s *Service) boardLoop(ctx context.Context) {
	t := time.NewTicker(s.BoardInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if _, err := s.refreshBoard(fetchCtx); err != nil {
				log.Printf("query: periodic board refresh: %v", err)
			}
			cancel()
		}
	}
}

func (s *Service) detailLoop(ctx context.Context) {
	t := time.NewTicker(s.DetailInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, sym := range s.activeWatches() {
				fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				if _, err := s.refreshDetail(fetchCtx, sym); err != nil {
					log.Printf("query: periodic detail refresh %s: %v", sym, err)
				}
				cancel()
			}
		}
	}
}

// activeWatches returns the symbols read recently enough to keep warm, and
// expires the rest.
func (s *Service) activeWatches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-watchTTL)
	out := make([]string, 0, len(s.watched))
	for sym, last := range s.watched {
		if last.Before(cutoff) {
			delete(s.watched, sym)
			continue
		}
		out = append(out, sym)
	}
	return out
}
