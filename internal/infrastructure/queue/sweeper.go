package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/api/metrics"
)

const defaultInterval = 30 * time.Second

// ExhaustedFinder lists online users whose accrued charge covers their balance.
type ExhaustedFinder interface {
	Exhausted(ctx context.Context, now time.Time) ([]int64, error)
}

// Sweeper periodically finds sessions that ran out of balance and hands them
// to the Dispatcher.
type Sweeper struct {
	finder     ExhaustedFinder
	dispatcher *Dispatcher
	interval   time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewSweeper(finder ExhaustedFinder, dispatcher *Dispatcher, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{
		finder:     finder,
		dispatcher: dispatcher,
		interval:   interval,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("billing sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("billing sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass and returns how many stops were dispatched.
func (s *Sweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	defer func() {
		metrics.BillingSweepDuration.Observe(time.Since(start).Seconds())
	}()

	ids, err := s.finder.Exhausted(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("billing sweep failed")
		return 0
	}

	n := 0
	for _, id := range ids {
		if !s.dispatcher.Enqueue(ctx, id) {
			break
		}
		n++
	}
	if n > 0 {
		s.log.Info().Int("sessions", n).Msg("dispatched exhausted sessions")
	}
	return n
}
