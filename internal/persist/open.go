package persist

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/radview/internal/config"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/viewer"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func()

func (f closerFunc) Close() error { f(); return nil }

// Open builds the backend selected by cfg.Backend. The returned closer
// releases connections and is never nil.
func Open(ctx context.Context, cfg config.Store) (Store, io.Closer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.BackendFile:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case config.BackendMemory:
		return NewMemoryStore(), nopCloser{}, nil
	case config.BackendRedis:
		s := NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return s, s, nil
	case config.BackendPostgres:
		pool, err := NewPool(ctx, cfg.PostgresURL, 4, 0)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, closerFunc(pool.Close), nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// Saver writes every viewer change to a Store. Its Hook method is meant to be
// registered with viewer.WithChangeHook.
type Saver struct {
	Store    Store
	StudyID  string
	Log      zerolog.Logger
	Notifier viewer.Notifier
	Timeout  time.Duration

	lastErr bool
}

// Hook saves snap synchronously. Failures are logged and reported once per
// failure streak; they never interrupt the viewer. A snapshot without images
// is not written, so an empty session cannot replace a saved study.
func (s *Saver) Hook(snap viewer.Snapshot) {
	if len(snap.Images) == 0 {
		s.Log.Debug().Str("study", s.StudyID).Msg("empty session not saved")
		return
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.Store.Save(ctx, s.StudyID, FromViewer(snap))
	if err == nil {
		s.lastErr = false
		return
	}
	s.Log.Error().Err(err).Str("study", s.StudyID).Msg("save viewer state")
	if !s.lastErr && s.Notifier != nil {
		s.Notifier.Notify(notify.EventStoreFailed, fmt.Sprintf("Could not save study %s: %v", s.StudyID, err))
	}
	s.lastErr = true
}
