package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/api/metrics"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// SessionStopper ends a session whose balance ran out.
type SessionStopper interface {
	StopExhausted(ctx context.Context, userID int64) (*ports.SessionResult, error)
}

// Dispatcher routes stop commands to a fixed set of workers using consistent
// hashing on the user id, so commands for one user never run concurrently.
type Dispatcher struct {
	workers []chan int64
	stopper SessionStopper
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, stopper SessionStopper, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan int64, numWorkers),
		stopper: stopper,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan int64, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a user id to its worker. It gives up when ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, userID int64) bool {
	idx := d.shardIndex(userID)
	select {
	case d.workers[idx] <- userID:
		metrics.StopQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	case <-ctx.Done():
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan int64) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case userID, ok := <-ch:
			if !ok {
				return
			}
			metrics.StopQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			_, err := d.stopper.StopExhausted(ctx, userID)
			switch {
			case err == nil:
				d.log.Info().Int64("user_id", userID).Int("worker_id", id).Msg("session stopped, balance exhausted")
			case errors.Is(err, domain.ErrUserOffline):
				// stopped by the user between sweep and dispatch
			default:
				d.log.Error().Err(err).
					Int64("user_id", userID).
					Int("worker_id", id).
					Msg("stopping exhausted session failed")
			}
		}
	}
}
