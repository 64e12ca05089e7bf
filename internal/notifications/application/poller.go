package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"admin-dashboard/internal/observability/metrics"
)

// DefaultPollInterval is the background refresh period.
const DefaultPollInterval = 20 * time.Second

// PollTask refreshes the store on a fixed interval until stopped.
// Every tick re-checks the session, so a credential that appears later starts refreshing
// at the next tick. Ticks that would overlap a running one are skipped.
type PollTask struct {
	store    *Store
	session  SessionChecker
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	started bool
	stopped bool
}

// PollOption customizes the poll task.
type PollOption func(*PollTask)

// WithPollTimeout bounds a single refresh.
func WithPollTimeout(timeout time.Duration) PollOption {
	return func(p *PollTask) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithPollLogger assigns a logger.
func WithPollLogger(log zerolog.Logger) PollOption {
	return func(p *PollTask) {
		p.log = log
	}
}

// NewPollTask constructs a poll task. Intervals are rounded down to whole seconds, minimum one.
func NewPollTask(store *Store, session SessionChecker, interval time.Duration, opts ...PollOption) (*PollTask, error) {
	if store == nil {
		return nil, errors.New("notification poller: nil store")
	}
	if session == nil {
		return nil, errors.New("notification poller: nil session")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &PollTask{
		store:    store,
		session:  session,
		interval: interval,
		timeout:  15 * time.Second,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	logger := cronLogger{log: p.log}
	p.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", interval), p.Tick); err != nil {
		return nil, fmt.Errorf("notification poller: schedule: %w", err)
	}
	return p, nil
}

// StartPolling constructs and starts a poll task. The caller owns the returned task
// and must Stop it on teardown.
func StartPolling(store *Store, session SessionChecker, interval time.Duration, opts ...PollOption) (*PollTask, error) {
	p, err := NewPollTask(store, session, interval, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// Start begins the schedule.
func (p *PollTask) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return errors.New("notification poller: already stopped")
	}
	if p.started {
		return nil
	}
	p.started = true
	p.cron.Start()
	p.log.Info().Dur("interval", p.interval).Msg("notification polling started")
	return nil
}

// Tick runs one refresh.
func (p *PollTask) Tick() {
	if p.store.Closed() {
		return
	}
	if !p.session.Active() {
		metrics.IncPollTick(metrics.PollSkippedNoSession)
		p.log.Debug().Msg("notification poll skipped: no session")
		return
	}
	metrics.IncPollTick(metrics.PollRan)
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	p.store.FetchNotifications(ctx)
}

// Stop cancels the schedule and waits for a running tick until ctx is done.
// It is safe to call more than once.
func (p *PollTask) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	done := p.cron.Stop()
	select {
	case <-done.Done():
		p.log.Info().Msg("notification polling stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to the cron logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		metrics.IncPollTick(metrics.PollSkippedOverlap)
	}
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
