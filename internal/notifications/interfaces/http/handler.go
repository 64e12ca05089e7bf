package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"admin-dashboard/internal/audit"
	"admin-dashboard/internal/auth"
	notifications "admin-dashboard/internal/notifications/domain"
)

const basePath = "/api/v1/notifications"

// Store is the notification state the handler reads and drives.
type Store interface {
	Snapshot() notifications.Snapshot
	FetchNotifications(ctx context.Context) notifications.Result
	MarkNotificationAsRead(ctx context.Context, id string) notifications.Result
	MarkAllNotificationsAsRead(ctx context.Context) notifications.Result
}

// Publisher sends and lists platform notifications on behalf of the admin.
type Publisher interface {
	ListNotifications(ctx context.Context, recipient string) ([]notifications.Notification, error)
	CreateNotification(ctx context.Context, draft notifications.Draft) (notifications.Notification, error)
}

// Handler provides notification HTTP endpoints.
type Handler struct {
	store     Store
	publisher Publisher
	audit     audit.Logger
	log       zerolog.Logger
}

// Option customizes the handler.
type Option func(*Handler)

// WithPublisher enables the send/list endpoints.
func WithPublisher(p Publisher) Option {
	return func(h *Handler) {
		h.publisher = p
	}
}

// WithAudit records admin actions.
func WithAudit(logger audit.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.audit = logger
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// NewHandler constructs a handler.
func NewHandler(store Store, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, errors.New("notifications handler: nil store")
	}
	h := &Handler{store: store, audit: audit.NopLogger{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type actionResponse struct {
	Result notifications.Result   `json:"result"`
	State  notifications.Snapshot `json:"state"`
}

// ServeHTTP handles /api/v1/notifications and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == basePath:
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.store.Snapshot())
		case http.MethodPost:
			h.handleSend(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case path == basePath+"/sent":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSent(w, r)
		return
	case strings.HasPrefix(path, basePath+"/"):
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleAction(w, r, strings.TrimPrefix(path, basePath+"/"))
		return
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, rest string) {
	var (
		result notifications.Result
		action string
		id     string
	)
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] == "refresh":
		action = audit.ActionRefresh
		result = h.store.FetchNotifications(r.Context())
	case len(parts) == 1 && parts[0] == "read-all":
		action = audit.ActionMarkAllRead
		result = h.store.MarkAllNotificationsAsRead(r.Context())
	case len(parts) == 2 && parts[1] == "read" && parts[0] != "":
		action = audit.ActionMarkRead
		id = parts[0]
		result = h.store.MarkNotificationAsRead(r.Context(), id)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.record(r, action, id, result)
	writeJSON(w, statusFor(result), actionResponse{Result: result, State: h.store.Snapshot()})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var draft notifications.Draft
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&draft); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := draft.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.publisher.CreateNotification(r.Context(), draft)
	if err != nil {
		h.log.Warn().Err(err).Msg("create notification failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleSent(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	list, err := h.publisher.ListNotifications(r.Context(), r.URL.Query().Get("recipient"))
	if err != nil {
		h.log.Warn().Err(err).Msg("list notifications failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) record(r *http.Request, action, id string, result notifications.Result) {
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "notification",
		ResourceID:   id,
		Outcome:      string(result.Outcome),
		Metadata:     audit.Metadata(map[string]int{"marked": result.Marked, "failed": result.Failed}),
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.log.Warn().Err(err).Str("action", action).Msg("audit log failed")
	}
}

func statusFor(result notifications.Result) int {
	switch {
	case result.OK():
		return http.StatusOK
	case errors.Is(result.Err, notifications.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(result.Err, notifications.ErrEmptyID):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
