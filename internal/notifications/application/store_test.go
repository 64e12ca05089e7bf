package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifications "admin-dashboard/internal/notifications/domain"
)

type stubSource struct {
	mu       sync.Mutex
	list     []notifications.Notification
	listErr  error
	markErr  map[string]error
	marked   []string
	lists    int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	listHook func()
	markHook func(id string)
}

func (s *stubSource) ListMyNotifications(_ context.Context) ([]notifications.Notification, error) {
	if s.listHook != nil {
		s.listHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]notifications.Notification(nil), s.list...), nil
}

func (s *stubSource) MarkNotificationRead(_ context.Context, id string) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if s.markHook != nil {
		s.markHook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	s.marked = append(s.marked, id)
	for i := range s.list {
		if s.list[i].ID == id {
			s.list[i].Read = true
		}
	}
	return nil
}

func (s *stubSource) Marked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

type stubSession struct {
	active atomic.Bool
}

func (s *stubSession) Active() bool { return s.active.Load() }

func activeSession() *stubSession {
	s := &stubSession{}
	s.active.Store(true)
	return s
}

type recordedNotice struct {
	level   string
	message string
}

type stubNotices struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (n *stubNotices) record(level, message string) {
	n.mu.Lock()
	n.notices = append(n.notices, recordedNotice{level: level, message: message})
	n.mu.Unlock()
}

func (n *stubNotices) Success(_ context.Context, message string) { n.record("success", message) }
func (n *stubNotices) Error(_ context.Context, message string)   { n.record("error", message) }
func (n *stubNotices) Info(_ context.Context, message string)    { n.record("info", message) }

func (n *stubNotices) All() []recordedNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedNotice(nil), n.notices...)
}

func note(id string, read bool) notifications.Notification {
	return notifications.Notification{ID: id, Title: "t-" + id, Body: "b", Read: read}
}

func newTestStore(t *testing.T, source *stubSource, session SessionChecker) (*Store, *stubNotices) {
	t.Helper()
	notices := &stubNotices{}
	store, err := NewStore(source, session, WithNoticeChannel(notices))
	require.NoError(t, err)
	return store, notices
}

func assertInvariant(t *testing.T, store *Store) {
	t.Helper()
	snap := store.Snapshot()
	assert.Equal(t, notifications.CountUnread(snap.Notifications), snap.UnreadCount)
	assert.GreaterOrEqual(t, snap.UnreadCount, 0)
}

func TestNewStore_ValidatesDependencies(t *testing.T) {
	_, err := NewStore(nil, activeSession())
	assert.Error(t, err)
	_, err = NewStore(&stubSource{}, nil)
	assert.Error(t, err)
}

func TestStore_UnreadCountInvariant(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false), note("b", false), note("c", true)}}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()

	res := store.FetchNotifications(ctx)
	require.True(t, res.OK())
	assert.Equal(t, 2, store.UnreadCount())
	assertInvariant(t, store)

	res = store.MarkNotificationAsRead(ctx, "a")
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Marked)
	snap := store.Snapshot()
	assert.Equal(t, 1, snap.UnreadCount)
	assert.True(t, snap.Notifications[0].Read)
	assertInvariant(t, store)

	res = store.MarkAllNotificationsAsRead(ctx)
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Marked)
	assert.Equal(t, 0, store.UnreadCount())
	assertInvariant(t, store)
	assert.ElementsMatch(t, []string{"a", "b"}, source.Marked())
	assert.Equal(t, []recordedNotice{{level: "success", message: msgMarkAllDone}}, notices.All())
}

func TestStore_FetchFailureLeavesStateUntouched(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false)}}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())
	before := store.Snapshot()

	source.listErr = errors.New("network down")
	res := store.FetchNotifications(ctx)
	assert.False(t, res.OK())
	assert.EqualError(t, res.Err, "network down")
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, []recordedNotice{{level: "error", message: msgFetchFailed}}, notices.All())

	// The store stays usable.
	source.listErr = nil
	assert.True(t, store.FetchNotifications(ctx).OK())
}

func TestStore_FetchReplacesWholesale(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false), note("b", false)}}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	source.list = []notifications.Notification{note("c", true)}
	require.True(t, store.FetchNotifications(ctx).OK())
	snap := store.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "c", snap.Notifications[0].ID)
	assert.Zero(t, snap.UnreadCount)
}

func TestStore_MarkFailureIsolation(t *testing.T) {
	source := &stubSource{
		list:    []notifications.Notification{note("a", false), note("b", false)},
		markErr: map[string]error{"a": errors.New("500")},
	}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())
	before := store.Snapshot()

	res := store.MarkNotificationAsRead(ctx, "a")
	assert.False(t, res.OK())
	assert.Equal(t, notifications.OutcomeFailure, res.Outcome)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, []recordedNotice{{level: "error", message: msgMarkFailed}}, notices.All())

	res = store.MarkNotificationAsRead(ctx, "")
	assert.ErrorIs(t, res.Err, notifications.ErrEmptyID)
}

func TestStore_NoNegativeUnreadCount(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false), note("b", true)}}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	for i := 0; i < 5; i++ {
		res := store.MarkNotificationAsRead(ctx, "a")
		require.True(t, res.OK())
		assert.Equal(t, 0, store.UnreadCount())
	}
	res := store.MarkNotificationAsRead(ctx, "b")
	require.True(t, res.OK())
	assert.Zero(t, res.Marked)
	res = store.MarkNotificationAsRead(ctx, "unknown")
	require.True(t, res.OK())
	assert.Equal(t, 0, store.UnreadCount())
	assertInvariant(t, store)
}

func TestStore_MarkAllPartialFailureKeepsConfirmedMarks(t *testing.T) {
	source := &stubSource{
		list:    []notifications.Notification{note("a", false), note("b", false), note("c", false), note("d", true)},
		markErr: map[string]error{"b": errors.New("timeout")},
	}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	res := store.MarkAllNotificationsAsRead(ctx)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, notifications.ErrPartialMarkAll)
	assert.Equal(t, 2, res.Marked)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, store.UnreadCount())
	assertInvariant(t, store)
	for _, n := range store.Snapshot().Notifications {
		assert.Equal(t, n.ID != "b", n.Read, n.ID)
	}
	assert.Equal(t, []recordedNotice{{level: "error", message: msgMarkAllFailed}}, notices.All())
}

func TestStore_MarkAllWithNothingUnread(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", true)}}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	res := store.MarkAllNotificationsAsRead(ctx)
	assert.True(t, res.OK())
	assert.Zero(t, res.Marked)
	assert.Empty(t, source.Marked())
	assert.Len(t, notices.All(), 1)
}

func TestStore_MarkAllReadsEntriesWithoutID(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("n1", false), note("", false)}}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())
	require.Equal(t, 2, store.UnreadCount())

	res := store.MarkAllNotificationsAsRead(ctx)
	require.True(t, res.OK())
	assert.Equal(t, 2, res.Marked)
	assert.Equal(t, []string{"n1"}, source.Marked())
	assert.Zero(t, store.UnreadCount())
	assertInvariant(t, store)
	for _, n := range store.Snapshot().Notifications {
		assert.True(t, n.Read, n.ID)
	}
}

func TestStore_MarkAllFailureKeepsEntriesWithoutID(t *testing.T) {
	source := &stubSource{
		list:    []notifications.Notification{note("n1", false), note("", false)},
		markErr: map[string]error{"n1": errors.New("timeout")},
	}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	res := store.MarkAllNotificationsAsRead(ctx)
	assert.False(t, res.OK())
	assert.Equal(t, 2, store.UnreadCount())
	assertInvariant(t, store)
}

func TestStore_MarkAllRunsConcurrentlyWithinLimit(t *testing.T) {
	list := make([]notifications.Notification, 0, 20)
	for i := 0; i < 20; i++ {
		list = append(list, note(string(rune('a'+i)), false))
	}
	release := make(chan struct{})
	var started atomic.Int32
	source := &stubSource{list: list}
	source.markHook = func(string) {
		if started.Add(1) == 4 {
			close(release)
		}
		<-release
	}
	notices := &stubNotices{}
	store, err := NewStore(source, activeSession(), WithNoticeChannel(notices), WithMarkAllConcurrency(4))
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	res := store.MarkAllNotificationsAsRead(ctx)
	require.True(t, res.OK())
	assert.Equal(t, 20, res.Marked)
	assert.Equal(t, int32(4), source.maxSeen.Load())
	assert.Zero(t, store.UnreadCount())
}

func TestStore_ResultsAfterCloseAreDiscarded(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false)}}
	store, notices := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	source.markHook = func(string) { store.Close() }
	res := store.MarkNotificationAsRead(ctx, "a")
	assert.ErrorIs(t, res.Err, notifications.ErrStoreClosed)
	assert.Equal(t, 1, store.UnreadCount())

	source.listHook = nil
	res = store.FetchNotifications(ctx)
	assert.ErrorIs(t, res.Err, notifications.ErrStoreClosed)
	res = store.MarkAllNotificationsAsRead(ctx)
	assert.ErrorIs(t, res.Err, notifications.ErrStoreClosed)
	assert.Empty(t, notices.All())
}

func TestStore_FetchDiscardsResponsesOutOfOrder(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false)}}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()

	// The first fetch reads the source, then a second fetch completes before it applies.
	first := true
	source.listHook = func() {
		if !first {
			return
		}
		first = false
		source.mu.Lock()
		source.list = []notifications.Notification{note("a", false), note("b", false)}
		source.mu.Unlock()
		require.True(t, store.FetchNotifications(ctx).OK())
		source.mu.Lock()
		source.list = []notifications.Notification{note("stale", false)}
		source.mu.Unlock()
	}
	require.True(t, store.FetchNotifications(ctx).OK())

	snap := store.Snapshot()
	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, "a", snap.Notifications[0].ID)
	assert.Equal(t, 2, snap.UnreadCount)
}

func TestStore_FetchKeepsReadsConfirmedDuringTheRequest(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false), note("b", false)}}
	store, _ := newTestStore(t, source, activeSession())
	ctx := context.Background()
	require.True(t, store.FetchNotifications(ctx).OK())

	// The list response is produced before "a" is marked, but applied after.
	var snapshotBeforeMark []notifications.Notification
	source.listHook = func() {
		source.mu.Lock()
		snapshotBeforeMark = append([]notifications.Notification(nil), source.list...)
		source.mu.Unlock()
		source.listHook = nil
		require.True(t, store.MarkNotificationAsRead(ctx, "a").OK())
		source.mu.Lock()
		source.list = snapshotBeforeMark
		source.mu.Unlock()
	}
	require.True(t, store.FetchNotifications(ctx).OK())

	snap := store.Snapshot()
	assert.True(t, snap.Notifications[0].Read)
	assert.Equal(t, 1, snap.UnreadCount)
	assertInvariant(t, store)
}

func TestStore_InitGatedOnSession(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false)}}
	session := &stubSession{}
	store, _ := newTestStore(t, source, session)

	res := store.Init(context.Background())
	assert.True(t, res.OK())
	assert.Zero(t, source.lists)
	assert.Empty(t, store.Snapshot().Notifications)

	session.active.Store(true)
	require.True(t, store.Init(context.Background()).OK())
	assert.Equal(t, 1, source.lists)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	source := &stubSource{list: []notifications.Notification{note("a", false)}}
	store, _ := newTestStore(t, source, activeSession())
	require.True(t, store.FetchNotifications(context.Background()).OK())

	snap := store.Snapshot()
	snap.Notifications[0].Read = true
	assert.False(t, store.Snapshot().Notifications[0].Read)
}

func TestStore_ShowForwardsToNoticeChannel(t *testing.T) {
	store, notices := newTestStore(t, &stubSource{}, activeSession())
	ctx := context.Background()
	store.ShowSuccess(ctx, "saved")
	store.ShowError(ctx, "failed")
	store.ShowInfo(ctx, "fyi")
	assert.Equal(t, []recordedNotice{
		{level: "success", message: "saved"},
		{level: "error", message: "failed"},
		{level: "info", message: "fyi"},
	}, notices.All())
}
