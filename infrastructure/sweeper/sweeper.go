// Package sweeper runs the periodic session cleanup job.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"stoneyard/factory/login"
	"stoneyard/infrastructure/cache"
	"stoneyard/infrastructure/sqlite"
)

// Sweeper deletes expired session rows and evicts them from the
// in-process cache on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	db       *sqlite.DB
	sessions *cache.SessionCache
}

func New(db *sqlite.DB, sessions *cache.SessionCache) *Sweeper {
	return &Sweeper{cron: cron.New(), db: db, sessions: sessions}
}

// Start registers the sweep under the given cron spec and starts the
// scheduler.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. A sweep already in flight finishes on its
// own.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := login.DeleteExpiredSessions(ctx, s.db)
	if err != nil {
		slog.Error("session sweep failed", slog.Any("err", err))
		return
	}
	evicted := s.sessions.Sweep(time.Now())
	if deleted > 0 || evicted > 0 {
		slog.Info("session sweep", slog.Int64("deleted", deleted), slog.Int("evicted", evicted))
	}
}
