package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"admin-dashboard/internal/adminapi"
	"admin-dashboard/internal/audit"
	"admin-dashboard/internal/auth"
	notifications "admin-dashboard/internal/notifications/domain"
	orders "admin-dashboard/internal/orders/domain"
)

const timeLayout = time.RFC3339

// Authenticator exchanges admin credentials for a platform token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (adminapi.LoginResult, error)
}

// NotificationInitializer loads notifications once a session exists.
type NotificationInitializer interface {
	Init(ctx context.Context) notifications.Result
}

// SessionHandler serves /api/v1/session.
type SessionHandler struct {
	authn   Authenticator
	session *auth.Session
	notices NotificationInitializer
	audit   audit.Logger
	secret  []byte
	ttl     time.Duration
	log     zerolog.Logger
}

// SessionOption customizes the session handler.
type SessionOption func(*SessionHandler)

// WithDashboardToken issues a signed dashboard token on login.
func WithDashboardToken(secret []byte, ttl time.Duration) SessionOption {
	return func(h *SessionHandler) {
		h.secret = secret
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithNotificationInit loads notifications after a successful login.
func WithNotificationInit(init NotificationInitializer) SessionOption {
	return func(h *SessionHandler) {
		h.notices = init
	}
}

// WithSessionAudit records logins and logouts.
func WithSessionAudit(logger audit.Logger) SessionOption {
	return func(h *SessionHandler) {
		if logger != nil {
			h.audit = logger
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(h *SessionHandler) {
		h.log = log
	}
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(authn Authenticator, session *auth.Session, opts ...SessionOption) (*SessionHandler, error) {
	if authn == nil {
		return nil, errors.New("session handler: nil authenticator")
	}
	if session == nil {
		return nil, errors.New("session handler: nil session")
	}
	h := &SessionHandler{
		authn:   authn,
		session: session,
		audit:   audit.NopLogger{},
		ttl:     12 * time.Hour,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Active        bool                  `json:"active"`
	Subject       string                `json:"subject,omitempty"`
	Role          string                `json:"role,omitempty"`
	ExpiresAt     string                `json:"expiresAt,omitempty"`
	Token         string                `json:"token,omitempty"`
	Notifications *notifications.Result `json:"notifications,omitempty"`
}

// ServeHTTP handles GET, POST and DELETE /api/v1/session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.state())
	case http.MethodPost:
		h.login(w, r)
	case http.MethodDelete:
		h.session.Clear()
		h.record(r, audit.ActionLogout, auth.SubjectFromContext(r.Context()), outcomeOf(nil))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	result, err := h.authn.Login(r.Context(), req.Email, req.Password)
	if err == nil {
		err = h.session.Set(result.Token)
	}
	h.record(r, audit.ActionLogin, req.Email, outcomeOf(err))
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("login failed")
		http.Error(w, loginMessage(err), loginStatus(err))
		return
	}

	resp := h.state()
	if resp.Subject == "" {
		resp.Subject = req.Email
	}
	resp.Role = string(auth.RoleAdmin)
	if len(h.secret) > 0 {
		token, err := auth.IssueJWT(h.secret, resp.Subject, auth.RoleAdmin, h.ttl)
		if err != nil {
			h.log.Error().Err(err).Msg("issue dashboard token failed")
			http.Error(w, "issue token failed", http.StatusInternalServerError)
			return
		}
		resp.Token = token
	}
	if h.notices != nil {
		res := h.notices.Init(r.Context())
		resp.Notifications = &res
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) state() sessionResponse {
	resp := sessionResponse{Active: h.session.Active(), Subject: h.session.Subject()}
	if exp := h.session.ExpiresAt(); !exp.IsZero() {
		resp.ExpiresAt = exp.UTC().Format(timeLayout)
	}
	return resp
}

func (h *SessionHandler) record(r *http.Request, action, actor, outcome string) {
	entry := audit.Entry{
		Actor:        actor,
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "session",
		Outcome:      outcome,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.log.Warn().Err(err).Str("action", action).Msg("audit log failed")
	}
}

func loginStatus(err error) int {
	switch {
	case errors.Is(err, adminapi.ErrNotAdmin), errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, adminapi.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func loginMessage(err error) string {
	switch loginStatus(err) {
	case http.StatusForbidden:
		return "admin role required"
	case http.StatusUnauthorized:
		return "invalid credentials"
	default:
		return "admin api unavailable"
	}
}

// StatusSource reports live component state.
type StatusSource interface {
	BreakerState() string
}

// UnreadCounter reports the current unread notification count.
type UnreadCounter interface {
	UnreadCount() int
}

// StatusHandler serves GET /api/v1/status.
type StatusHandler struct {
	upstream StatusSource
	session  *auth.Session
	unread   UnreadCounter
	started  time.Time
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(upstream StatusSource, session *auth.Session, unread UnreadCounter) *StatusHandler {
	return &StatusHandler{upstream: upstream, session: session, unread: unread, started: time.Now()}
}

type statusResponse struct {
	AdminAPI      string `json:"adminApi"`
	SessionActive bool   `json:"sessionActive"`
	UnreadCount   int    `json:"unreadCount"`
	Uptime        string `json:"uptime"`
}

// ServeHTTP handles GET /api/v1/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{Uptime: time.Since(h.started).Truncate(time.Second).String()}
	if h.upstream != nil {
		resp.AdminAPI = h.upstream.BreakerState()
	}
	if h.session != nil {
		resp.SessionActive = h.session.Active()
	}
	if h.unread != nil {
		resp.UnreadCount = h.unread.UnreadCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// OrderFinder fetches a single order from the admin API.
type OrderFinder interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
}

// OrderHandler serves GET /api/v1/orders/{id}.
type OrderHandler struct {
	finder OrderFinder
	log    zerolog.Logger
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(finder OrderFinder, log zerolog.Logger) (*OrderHandler, error) {
	if finder == nil {
		return nil, errors.New("order handler: nil finder")
	}
	return &OrderHandler{finder: finder, log: log}, nil
}

// ServeHTTP handles GET /api/v1/orders/{id}.
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		http.Error(w, "order id is required", http.StatusBadRequest)
		return
	}
	order, err := h.finder.GetOrder(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, order)
	case errors.Is(err, adminapi.ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, adminapi.ErrEmptyID):
		http.Error(w, "order id is required", http.StatusBadRequest)
	default:
		h.log.Warn().Err(err).Str("order_id", id).Msg("get order failed")
		http.Error(w, "admin api unavailable", http.StatusBadGateway)
	}
}

// AuditReader lists recent audit entries.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// AuditHandler serves GET /api/v1/audit.
type AuditHandler struct {
	reader AuditReader
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

type auditRow struct {
	ID           string          `json:"id"`
	Actor        string          `json:"actor"`
	Role         string          `json:"role"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Outcome      string          `json:"outcome"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

// ServeHTTP handles GET /api/v1/audit?limit=.
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.reader == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.reader.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "query audit error", http.StatusInternalServerError)
		return
	}
	rows := make([]auditRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, auditRow{
			ID:           e.ID,
			Actor:        e.Actor,
			Role:         e.Role,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Outcome:      e.Outcome,
			Metadata:     e.Metadata,
			CreatedAt:    formatTime(e.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func parseLimit(r *http.Request) (int, error) {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return 50, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 || parsed > 500 {
		return 0, errors.New("limit must be between 1 and 500")
	}
	return parsed, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
