package statistic

import (
	"sort"
	"time"

	orders "admin-dashboard/internal/orders/domain"
)

// DayPoint is one bucket of the daily revenue series.
type DayPoint struct {
	Day       time.Time `json:"day"`
	Timestamp int64     `json:"timestamp"`
	Amount    float64   `json:"amount"`
}

// MonthPoint is one bucket of the monthly revenue series keyed by "YYYY-MM".
type MonthPoint struct {
	Month  TimeKey `json:"month"`
	Amount float64 `json:"amount"`
}

// LabelPoint is one bucket of the sales-by-month chart keyed by a label like "Jan 2024".
type LabelPoint struct {
	Label string  `json:"label"`
	Sales float64 `json:"sales"`
}

// ProductQuantity is the quantity sold for one product reference.
type ProductQuantity struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Metrics is the derived dashboard bundle computed from an order snapshot.
type Metrics struct {
	TotalRevenue        float64        `json:"totalRevenue"`
	TotalSales          int            `json:"totalSales"`
	DailyRevenue        []DayPoint     `json:"dailyRevenue"`
	MonthlyRevenue      []MonthPoint   `json:"monthlyRevenue"`
	SalesByMonthLabel   []LabelPoint   `json:"salesByMonthLabel"`
	ProductsSold        map[string]int `json:"productsSold"`
	CurrentMonthRevenue float64        `json:"currentMonthRevenue"`
	CurrentMonthOrders  int            `json:"currentMonthOrders"`
	TodayRevenue        float64        `json:"todayRevenue"`
	TodayOrders         int            `json:"todayOrders"`
	ComputedAt          time.Time      `json:"computedAt"`
}

// Aggregate folds an order snapshot into dashboard metrics.
// Buckets use calendar days and months in loc; now is the reference for the
// today and current-month rollups. Orders without a creation time count toward
// the totals only.
func Aggregate(list []orders.Order, now time.Time, loc *time.Location) Metrics {
	loc = location(loc)
	m := Metrics{
		DailyRevenue:      []DayPoint{},
		MonthlyRevenue:    []MonthPoint{},
		SalesByMonthLabel: []LabelPoint{},
		ProductsSold:      map[string]int{},
		ComputedAt:        now,
	}
	if len(list) == 0 {
		return m
	}

	// Float sums depend on addition order, so fold over a canonical ordering.
	sorted := canonicalOrder(list)

	today := DayStart(now, loc)
	thisMonth := MonthStart(now, loc)

	daily := make(map[time.Time]float64)
	monthly := make(map[time.Time]float64)

	for _, o := range sorted {
		amount := o.EffectiveAmount()
		m.TotalRevenue += amount
		m.TotalSales++

		for _, item := range o.Items {
			m.ProductsSold[item.Product.String()] += item.Quantity
		}

		if o.CreatedAt.IsZero() {
			continue
		}
		day := DayStart(o.CreatedAt, loc)
		month := MonthStart(o.CreatedAt, loc)
		daily[day] += amount
		monthly[month] += amount

		if day.Equal(today) {
			m.TodayRevenue += amount
			m.TodayOrders++
		}
		if month.Equal(thisMonth) {
			m.CurrentMonthRevenue += amount
			m.CurrentMonthOrders++
		}
	}

	days := sortedKeys(daily)
	for _, day := range days {
		m.DailyRevenue = append(m.DailyRevenue, DayPoint{
			Day:       day,
			Timestamp: day.UnixMilli(),
			Amount:    daily[day],
		})
	}

	months := sortedKeys(monthly)
	for _, month := range months {
		key, _ := NewTimeKey(GranularityMonth, month, loc)
		m.MonthlyRevenue = append(m.MonthlyRevenue, MonthPoint{Month: key, Amount: monthly[month]})
		m.SalesByMonthLabel = append(m.SalesByMonthLabel, LabelPoint{Label: MonthLabel(month, loc), Sales: monthly[month]})
	}

	return m
}

// TopProducts returns up to n products ranked by quantity, ties broken by name.
// n <= 0 returns every product.
func (m Metrics) TopProducts(n int) []ProductQuantity {
	out := m.ProductsSoldSeries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ProductsSoldSeries returns ProductsSold as a slice ordered by product.
func (m Metrics) ProductsSoldSeries() []ProductQuantity {
	out := make([]ProductQuantity, 0, len(m.ProductsSold))
	for product, qty := range m.ProductsSold {
		out = append(out, ProductQuantity{Product: product, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

func canonicalOrder(list []orders.Order) []orders.Order {
	sorted := make([]orders.Order, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.EffectiveAmount() < b.EffectiveAmount()
	})
	return sorted
}

func sortedKeys(buckets map[time.Time]float64) []time.Time {
	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
