package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"admin-dashboard/internal/analytics/application"
	"admin-dashboard/internal/analytics/domain/statistic"
	"admin-dashboard/internal/audit"
	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/observability/metrics"
	orders "admin-dashboard/internal/orders/domain"
)

const basePath = "/api/v1/dashboard"

// ReportBuilder builds dashboard reports.
type ReportBuilder interface {
	Build(ctx context.Context, filter orders.Filter) (application.Report, error)
	Location() *time.Location
}

// DashboardHandler serves the dashboard report and its exports.
type DashboardHandler struct {
	builder ReportBuilder
	audit   audit.Logger
	log     zerolog.Logger
}

// HandlerOption customizes the dashboard handler.
type HandlerOption func(*DashboardHandler)

// WithAudit records exports.
func WithAudit(logger audit.Logger) HandlerOption {
	return func(h *DashboardHandler) {
		if logger != nil {
			h.audit = logger
		}
	}
}

// WithHandlerLogger sets the logger.
func WithHandlerLogger(log zerolog.Logger) HandlerOption {
	return func(h *DashboardHandler) {
		h.log = log
	}
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(builder ReportBuilder, opts ...HandlerOption) (*DashboardHandler, error) {
	if builder == nil {
		return nil, errors.New("dashboard handler: nil builder")
	}
	h := &DashboardHandler{builder: builder, audit: audit.NopLogger{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP handles GET /api/v1/dashboard and GET /api/v1/dashboard/export.{xlsx,pdf,csv}.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	format := ""
	switch path {
	case basePath:
	case basePath + "/export." + FormatXLSX:
		format = FormatXLSX
	case basePath + "/export." + FormatPDF:
		format = FormatPDF
	case basePath + "/export." + FormatCSV:
		format = FormatCSV
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	filter, err := parseFilter(r, h.builder.Location())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.builder.Build(r.Context(), filter)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidRange) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Warn().Err(err).Msg("build dashboard failed")
		http.Error(w, "orders unavailable", http.StatusBadGateway)
		return
	}

	if format == "" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
		return
	}
	h.export(w, r, format, report)
}

func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, format string, report application.Report) {
	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case FormatXLSX:
		body, err = BuildDashboardXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		body, err = BuildDashboardPDF(report)
		contentType = "application/pdf"
	default:
		body, err = BuildDashboardCSV(report)
		contentType = "text/csv; charset=utf-8"
	}
	metrics.IncDashboardExport(format, err)
	h.record(r, format, err)
	if err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("dashboard export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	filename := "dashboard-" + report.Metrics.ComputedAt.Format("20060102-150405") + "." + format
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(body)
}

func (h *DashboardHandler) record(r *http.Request, format string, err error) {
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       audit.ActionDashboardExport,
		ResourceType: "dashboard",
		ResourceID:   format,
		Outcome:      outcome,
		Metadata:     audit.Metadata(r.URL.Query()),
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if logErr := h.audit.Log(r.Context(), entry); logErr != nil {
		h.log.Warn().Err(logErr).Msg("audit log failed")
	}
}

func parseFilter(r *http.Request, loc *time.Location) (orders.Filter, error) {
	q := r.URL.Query()
	filter := orders.Filter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: strings.TrimSpace(q.Get("q")),
	}
	var err error
	if filter.From, err = parseBound(q.Get("from"), loc, false); err != nil {
		return orders.Filter{}, errors.New("from: " + err.Error())
	}
	if filter.To, err = parseBound(q.Get("to"), loc, true); err != nil {
		return orders.Filter{}, errors.New("to: " + err.Error())
	}
	return filter, nil
}

// parseBound accepts RFC3339, a day key or a month key. Day and month keys
// used as an upper bound cover the whole named period.
func parseBound(value string, loc *time.Location, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := statistic.ParseTimeKey(statistic.GranularityDay, statistic.TimeKey(value), loc); err == nil {
		if upper {
			return t.AddDate(0, 0, 1), nil
		}
		return t, nil
	}
	if t, err := statistic.ParseTimeKey(statistic.GranularityMonth, statistic.TimeKey(value), loc); err == nil {
		if upper {
			return t.AddDate(0, 1, 0), nil
		}
		return t, nil
	}
	return time.Time{}, errors.New("must be RFC3339, YYYY-MM-DD or YYYY-MM")
}
