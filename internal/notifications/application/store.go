package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	notifications "admin-dashboard/internal/notifications/domain"
	"admin-dashboard/internal/observability/metrics"
)

const (
	msgFetchFailed   = "Failed to load notifications."
	msgMarkFailed    = "Failed to mark notification as read."
	msgMarkAllFailed = "Failed to mark all notifications as read."
	msgMarkAllDone   = "All notifications marked as read."
	msgUnavailable   = "You need to be logged in to view notifications."

	opFetch   = "fetch"
	opMark    = "mark_read"
	opMarkAll = "mark_all_read"
)

// NotificationSource is the remote notification API.
type NotificationSource interface {
	ListMyNotifications(ctx context.Context) ([]notifications.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// SessionChecker reports whether a session credential is present.
type SessionChecker interface {
	Active() bool
}

// NoticeChannel shows transient messages to the admin.
type NoticeChannel interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	Info(ctx context.Context, message string)
}

// Store is the single writer of the notification list and unread count.
type Store struct {
	source  NotificationSource
	session SessionChecker
	notices NoticeChannel
	log     zerolog.Logger
	limit   int

	mu            sync.RWMutex
	notifications []notifications.Notification
	unread        int
	closed        bool
	issuedFetch   uint64
	appliedFetch  uint64
	// localReads maps ids confirmed read locally to the newest fetch issued at that moment.
	// Fetches issued at or before that point may still report the entry as unread.
	localReads map[string]uint64
}

// StoreOption customizes the store.
type StoreOption func(*Store)

// WithNoticeChannel assigns the user-facing notice channel.
func WithNoticeChannel(notices NoticeChannel) StoreOption {
	return func(s *Store) {
		if notices != nil {
			s.notices = notices
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// WithMarkAllConcurrency bounds the number of parallel mark-read calls.
func WithMarkAllConcurrency(limit int) StoreOption {
	return func(s *Store) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// NewStore constructs a notification store.
func NewStore(source NotificationSource, session SessionChecker, opts ...StoreOption) (*Store, error) {
	if source == nil {
		return nil, errors.New("notification store: nil source")
	}
	if session == nil {
		return nil, errors.New("notification store: nil session")
	}
	s := &Store{
		source:        source,
		session:       session,
		notices:       nopNotices{},
		log:           zerolog.Nop(),
		limit:         8,
		notifications: []notifications.Notification{},
		localReads:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init performs the initial fetch when a session credential is present.
// Without one it only logs that notifications are unavailable.
func (s *Store) Init(ctx context.Context) notifications.Result {
	if !s.session.Active() {
		s.log.Info().Msg(msgUnavailable)
		return notifications.Success(0)
	}
	return s.FetchNotifications(ctx)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() notifications.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]notifications.Notification, len(s.notifications))
	copy(list, s.notifications)
	return notifications.Snapshot{Notifications: list, UnreadCount: s.unread}
}

// UnreadCount returns the current unread count.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// FetchNotifications replaces the list with the remote one.
// On failure the state is left untouched and an error notice is shown.
func (s *Store) FetchNotifications(ctx context.Context) notifications.Result {
	start := time.Now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return notifications.Failure(notifications.ErrStoreClosed)
	}
	s.issuedFetch++
	seq := s.issuedFetch
	s.mu.Unlock()

	list, err := s.source.ListMyNotifications(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch notifications failed")
		if !s.isClosed() {
			s.notices.Error(ctx, msgFetchFailed)
		}
		metrics.ObserveNotificationOperation(opFetch, string(notifications.OutcomeFailure), time.Since(start))
		return notifications.Failure(err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return notifications.Failure(notifications.ErrStoreClosed)
	}
	if seq < s.appliedFetch {
		s.mu.Unlock()
		s.log.Debug().Uint64("seq", seq).Msg("discarding stale notification fetch")
		metrics.ObserveNotificationOperation(opFetch, "stale", time.Since(start))
		return notifications.Success(0)
	}
	s.applyFetch(seq, list)
	unread := s.unread
	s.mu.Unlock()

	metrics.SetUnreadNotifications(unread)
	metrics.ObserveNotificationOperation(opFetch, string(notifications.OutcomeSuccess), time.Since(start))
	return notifications.Success(0)
}

func (s *Store) applyFetch(seq uint64, list []notifications.Notification) {
	next := make([]notifications.Notification, len(list))
	copy(next, list)
	for i := range next {
		if at, ok := s.localReads[next[i].ID]; ok && at >= seq {
			next[i].Read = true
		}
	}
	for id, at := range s.localReads {
		if at <= seq {
			delete(s.localReads, id)
		}
	}
	s.notifications = next
	s.unread = notifications.CountUnread(next)
	s.appliedFetch = seq
}

// MarkNotificationAsRead marks one notification as read remotely, then locally.
// The unread count only drops when the local entry goes from unread to read, so it
// never goes below zero and always equals the number of unread entries.
func (s *Store) MarkNotificationAsRead(ctx context.Context, id string) notifications.Result {
	start := time.Now()
	if id == "" {
		return notifications.Failure(notifications.ErrEmptyID)
	}
	if s.isClosed() {
		return notifications.Failure(notifications.ErrStoreClosed)
	}

	if err := s.source.MarkNotificationRead(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("notification_id", id).Msg("mark notification read failed")
		if !s.isClosed() {
			s.notices.Error(ctx, msgMarkFailed)
		}
		metrics.ObserveNotificationOperation(opMark, string(notifications.OutcomeFailure), time.Since(start))
		return notifications.Failure(err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return notifications.Failure(notifications.ErrStoreClosed)
	}
	marked := s.applyRead(id)
	unread := s.unread
	s.mu.Unlock()

	metrics.SetUnreadNotifications(unread)
	metrics.ObserveNotificationOperation(opMark, string(notifications.OutcomeSuccess), time.Since(start))
	return notifications.Success(marked)
}

// applyRead must be called with mu held.
func (s *Store) applyRead(id string) int {
	s.localReads[id] = s.issuedFetch
	for i := range s.notifications {
		if s.notifications[i].ID != id || s.notifications[i].Read {
			continue
		}
		s.notifications[i].Read = true
		if s.unread > 0 {
			s.unread--
		}
		return 1
	}
	return 0
}

// readUnaddressable marks unread entries without an ID as read locally.
// They cannot be marked remotely. Callers hold s.mu.
func (s *Store) readUnaddressable() int {
	marked := 0
	for i := range s.notifications {
		if s.notifications[i].ID != "" || s.notifications[i].Read {
			continue
		}
		s.notifications[i].Read = true
		if s.unread > 0 {
			s.unread--
		}
		marked++
	}
	return marked
}

// MarkAllNotificationsAsRead marks every currently unread notification as read.
// Calls run concurrently and all of them settle before the result is applied.
// Confirmed marks stay applied when others fail; the result reports both counts.
func (s *Store) MarkAllNotificationsAsRead(ctx context.Context) notifications.Result {
	start := time.Now()
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return notifications.Failure(notifications.ErrStoreClosed)
	}
	ids := notifications.UnreadIDs(s.notifications)
	s.mu.RUnlock()

	confirmed := make([]bool, len(ids))
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := s.source.MarkNotificationRead(ctx, id); err != nil {
				errs[i] = fmt.Errorf("notification %s: %w", id, err)
				return errs[i]
			}
			confirmed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return notifications.Failure(notifications.ErrStoreClosed)
	}
	marked := 0
	for i, id := range ids {
		if confirmed[i] {
			marked += s.applyRead(id)
		}
	}
	if failed == 0 {
		marked += s.readUnaddressable()
	}
	unread := s.unread
	s.mu.Unlock()
	metrics.SetUnreadNotifications(unread)
	if failed > 0 {
		err := fmt.Errorf("%w: %d of %d failed: %w", notifications.ErrPartialMarkAll, failed, len(ids), errors.Join(errs...))
		s.log.Warn().Err(err).Int("marked", marked).Int("failed", failed).Msg("mark all notifications read failed")
		s.notices.Error(ctx, msgMarkAllFailed)
		metrics.ObserveNotificationOperation(opMarkAll, string(notifications.OutcomeFailure), time.Since(start))
		result := notifications.Failure(err)
		result.Marked = marked
		result.Failed = failed
		return result
	}

	s.notices.Success(ctx, msgMarkAllDone)
	metrics.ObserveNotificationOperation(opMarkAll, string(notifications.OutcomeSuccess), time.Since(start))
	return notifications.Success(marked)
}

// ShowSuccess forwards a success message to the notice channel.
func (s *Store) ShowSuccess(ctx context.Context, message string) { s.notices.Success(ctx, message) }

// ShowError forwards an error message to the notice channel.
func (s *Store) ShowError(ctx context.Context, message string) { s.notices.Error(ctx, message) }

// ShowInfo forwards an informational message to the notice channel.
func (s *Store) ShowInfo(ctx context.Context, message string) { s.notices.Info(ctx, message) }

// Close disposes the store. Results of requests still in flight are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	return s.isClosed()
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type nopNotices struct{}

func (nopNotices) Success(context.Context, string) {}
func (nopNotices) Error(context.Context, string)   {}
func (nopNotices) Info(context.Context, string)    {}
