package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Pruner is implemented by session stores that need periodic cleanup. The
// redis store expires entries natively and never registers here.
type Pruner interface {
	Prune(ctx context.Context) int
}

type Scheduler struct {
	cron     *cron.Cron
	sessions Pruner
	log      zerolog.Logger
}

func NewScheduler(sessions Pruner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 */10 * * * *", s.pruneSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running prune to finish, bounded by a short timeout.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) pruneSessions() {
	removed := s.sessions.Prune(context.Background())
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("expired sessions pruned")
	}
}
