package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deidaraiorek/botanica/internal/logger"
)

// Syncer is implemented by *query.Cache.
type Syncer interface {
	Sync(ctx context.Context) error
}

type Server struct {
	http         *http.Server
	cache        Syncer
	syncInterval time.Duration
	log          *logger.Logger
}

func NewServer(addr string, handler http.Handler, cache Syncer, syncInterval time.Duration, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cache:        cache,
		syncInterval: syncInterval,
		log:          log.With("component", "server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. The cache is
// synced with the store's build id on start and every sync interval.
func (s *Server) Run(ctx context.Context) error {
	if err := s.cache.Sync(ctx); err != nil {
		s.log.Warn("initial cache sync failed", "error", err)
	}

	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	go s.syncLoop(syncCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) syncLoop(ctx context.Context) {
	if s.syncInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.cache.Sync(ctx); err != nil {
				s.log.Warn("cache sync failed", "error", err)
			}
		}
	}
}
