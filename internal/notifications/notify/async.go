package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when an AsyncSink cannot accept another notice.
var ErrQueueFull = errors.New("notify: delivery queue full")

// ErrSinkClosed is returned by Send after Close.
var ErrSinkClosed = errors.New("notify: sink closed")

// AsyncSink delivers notices to a slow sink from a single background worker.
// Send never blocks; notices are delivered in order.
type AsyncSink struct {
	next    Sink
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Notice
	done   chan struct{}
}

// NewAsyncSink starts the delivery worker for next.
func NewAsyncSink(next Sink, size int, timeout time.Duration, log zerolog.Logger) (*AsyncSink, error) {
	if next == nil {
		return nil, errors.New("async sink: nil sink")
	}
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &AsyncSink{
		next:    next,
		timeout: timeout,
		log:     log,
		queue:   make(chan Notice, size),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Send implements Sink.
func (s *AsyncSink) Send(_ context.Context, notice Notice) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.queue <- notice:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting notices and waits for the queue to drain or ctx to end.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for notice := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.next.Send(ctx, notice); err != nil {
			s.log.Warn().Err(err).Str("notice_id", notice.ID).Msg("async notice delivery failed")
		}
		cancel()
	}
}
