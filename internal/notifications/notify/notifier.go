package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"admin-dashboard/internal/observability/metrics"
)

// Notifier turns outcome messages into notices and hands them to a sink.
type Notifier struct {
	sink         Sink
	clock        Clock
	log          zerolog.Logger
	dedupeWindow time.Duration
	timeout      time.Duration

	mu   sync.Mutex
	sent map[string]time.Time
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithDedupeWindow suppresses identical notices within the window.
// Polling failures repeat every tick and would otherwise flood the channel.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// WithSendTimeout bounds each delivery.
func WithSendTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Notifier) {
		n.log = log
	}
}

// NewNotifier constructs a notifier.
func NewNotifier(sink Sink, opts ...Option) (*Notifier, error) {
	if sink == nil {
		return nil, errors.New("notice notifier: nil sink")
	}
	n := &Notifier{
		sink:    sink,
		clock:   systemClock{},
		log:     zerolog.Nop(),
		timeout: 5 * time.Second,
		sent:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Success shows a success notice.
func (n *Notifier) Success(ctx context.Context, message string) {
	n.dispatch(ctx, LevelSuccess, message)
}

// Error shows an error notice.
func (n *Notifier) Error(ctx context.Context, message string) {
	n.dispatch(ctx, LevelError, message)
}

// Info shows an informational notice.
func (n *Notifier) Info(ctx context.Context, message string) {
	n.dispatch(ctx, LevelInfo, message)
}

func (n *Notifier) dispatch(ctx context.Context, level Level, message string) {
	if n == nil || n.sink == nil || message == "" {
		return
	}
	now := n.clock.Now().UTC()
	if !n.shouldSend(level, message, now) {
		return
	}
	notice := Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      now,
	}
	// The caller may already be cancelled when reporting its own failure.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.sink.Send(sendCtx, notice); err != nil {
		n.log.Warn().Err(err).Str("level", string(level)).Msg("notice delivery failed")
	}
	metrics.IncNotice(string(level))
	n.markSent(level, message, now)
}

func (n *Notifier) shouldSend(level Level, message string, now time.Time) bool {
	if n.dedupeWindow <= 0 {
		return true
	}
	key := noticeKey(level, message)
	n.mu.Lock()
	last, ok := n.sent[key]
	n.mu.Unlock()
	return !ok || now.Sub(last) >= n.dedupeWindow
}

func (n *Notifier) markSent(level Level, message string, now time.Time) {
	if n.dedupeWindow <= 0 {
		return
	}
	key := noticeKey(level, message)
	n.mu.Lock()
	for k, at := range n.sent {
		if now.Sub(at) >= n.dedupeWindow {
			delete(n.sent, k)
		}
	}
	n.sent[key] = now
	n.mu.Unlock()
}

func noticeKey(level Level, message string) string {
	sum := sha1.Sum([]byte(string(level) + "|" + message))
	return hex.EncodeToString(sum[:8])
}
