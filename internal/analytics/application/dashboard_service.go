package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"admin-dashboard/internal/analytics/domain/statistic"
	"admin-dashboard/internal/observability/metrics"
	orders "admin-dashboard/internal/orders/domain"
)

// OrderSource lists the platform's orders.
type OrderSource interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
}

// ReportCache keeps recently built reports.
type ReportCache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (*Report, bool)
	Save(ctx context.Context, key string, report Report) error
}

// Report is a computed dashboard plus the context it was computed in.
type Report struct {
	Metrics     statistic.Metrics           `json:"metrics"`
	TopProducts []statistic.ProductQuantity `json:"topProducts"`
	OrderCount  int                         `json:"orderCount"`
	Filter      FilterView                  `json:"filter"`
	Currency    string                      `json:"currency"`
	Timezone    string                      `json:"timezone"`
}

// FilterView is the JSON form of the applied filter.
type FilterView struct {
	Status string     `json:"status,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Search string     `json:"q,omitempty"`
}

// DashboardService computes dashboard reports from the order list.
type DashboardService struct {
	source   OrderSource
	clock    statistic.Clock
	loc      *time.Location
	currency string
	topN     int
	cache    ReportCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// DashboardOption customizes the dashboard service.
type DashboardOption func(*DashboardService)

// WithClock assigns a clock.
func WithClock(clock statistic.Clock) DashboardOption {
	return func(s *DashboardService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the calendar used for day and month buckets.
func WithLocation(loc *time.Location) DashboardOption {
	return func(s *DashboardService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCurrency sets the currency code reported alongside amounts.
func WithCurrency(code string) DashboardOption {
	return func(s *DashboardService) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithTopProducts sets how many products the ranking keeps.
func WithTopProducts(n int) DashboardOption {
	return func(s *DashboardService) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithCache serves reports younger than ttl from cache.
func WithCache(cache ReportCache, ttl time.Duration) DashboardOption {
	return func(s *DashboardService) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) DashboardOption {
	return func(s *DashboardService) {
		s.log = log
	}
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(source OrderSource, opts ...DashboardOption) (*DashboardService, error) {
	if source == nil {
		return nil, errors.New("dashboard service: nil order source")
	}
	s := &DashboardService{
		source:   source,
		clock:    statistic.SystemClock{},
		loc:      time.Local,
		currency: "USD",
		topN:     5,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Location returns the dashboard calendar.
func (s *DashboardService) Location() *time.Location { return s.loc }

// Build fetches the orders, applies the filter and aggregates them.
func (s *DashboardService) Build(ctx context.Context, filter orders.Filter) (Report, error) {
	if err := filter.Validate(); err != nil {
		return Report{}, err
	}
	key := cacheKey(filter, statistic.DayStart(s.clock.Now(), s.loc))
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key, s.cacheTTL); ok {
			s.log.Debug().Str("key", key).Msg("dashboard served from cache")
			return *cached, nil
		}
	}

	start := time.Now()
	list, err := s.source.ListOrders(ctx)
	if err != nil {
		metrics.ObserveDashboardBuild(err, 0, time.Since(start))
		s.log.Warn().Err(err).Msg("list orders failed")
		return Report{}, fmt.Errorf("dashboard: list orders: %w", err)
	}
	selected := filter.Apply(list)
	m := statistic.Aggregate(selected, s.clock.Now(), s.loc)

	report := Report{
		Metrics:     m,
		TopProducts: m.TopProducts(s.topN),
		OrderCount:  len(selected),
		Filter:      viewOf(filter),
		Currency:    s.currency,
		Timezone:    s.loc.String(),
	}
	metrics.ObserveDashboardBuild(nil, len(selected), time.Since(start))
	s.log.Debug().
		Int("orders", len(list)).
		Int("selected", len(selected)).
		Dur("duration", time.Since(start)).
		Msg("dashboard built")

	if s.cache != nil {
		if err := s.cache.Save(ctx, key, report); err != nil {
			s.log.Warn().Err(err).Msg("cache dashboard report")
		}
	}
	return report, nil
}

func viewOf(f orders.Filter) FilterView {
	view := FilterView{Status: f.Status, Search: f.Search}
	if !f.From.IsZero() {
		from := f.From
		view.From = &from
	}
	if !f.To.IsZero() {
		to := f.To
		view.To = &to
	}
	return view
}

// cacheKey includes the calendar day so today and this-month figures never
// outlive midnight.
func cacheKey(f orders.Filter, day time.Time) string {
	var from, to int64
	if !f.From.IsZero() {
		from = f.From.UnixNano()
	}
	if !f.To.IsZero() {
		to = f.To.UnixNano()
	}
	return fmt.Sprintf("%s|%d|%d|%s|%s", f.Status, from, to, f.Search, day.Format("2006-01-02"))
}
