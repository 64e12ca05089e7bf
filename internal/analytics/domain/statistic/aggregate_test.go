package statistic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orders "admin-dashboard/internal/orders/domain"
)

var testLoc = time.FixedZone("ICT", 7*3600)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, testLoc)
}

func item(product string, qty int) orders.Item {
	return orders.Item{Product: orders.ProductRef(product), Quantity: qty}
}

func TestAggregate_EmptyInput(t *testing.T) {
	now := at(2024, 3, 10, 9, 0)
	m := Aggregate(nil, now, testLoc)

	assert.Zero(t, m.TotalRevenue)
	assert.Zero(t, m.TotalSales)
	assert.Empty(t, m.DailyRevenue)
	assert.Empty(t, m.MonthlyRevenue)
	assert.Empty(t, m.SalesByMonthLabel)
	assert.Empty(t, m.ProductsSold)
	assert.Zero(t, m.TodayRevenue)
	assert.Zero(t, m.TodayOrders)
	assert.Zero(t, m.CurrentMonthRevenue)
	assert.Zero(t, m.CurrentMonthOrders)
	assert.NotNil(t, m.DailyRevenue)
	assert.NotNil(t, m.ProductsSold)
}

func TestAggregate_AmountFallback(t *testing.T) {
	now := at(2024, 3, 10, 9, 0)
	list := []orders.Order{
		{ID: "a", CreatedAt: at(2024, 3, 1, 10, 0), TotalAmount: 100},
		{ID: "b", CreatedAt: at(2024, 3, 2, 10, 0), TotalAmount: 100, FinalAmount: orders.Amount(80)},
	}
	m := Aggregate(list, now, testLoc)

	assert.Equal(t, 180.0, m.TotalRevenue)
	assert.Equal(t, 2, m.TotalSales)
	require.Len(t, m.DailyRevenue, 2)
	assert.Equal(t, 100.0, m.DailyRevenue[0].Amount)
	assert.Equal(t, 80.0, m.DailyRevenue[1].Amount)
	require.Len(t, m.MonthlyRevenue, 1)
	assert.Equal(t, 180.0, m.MonthlyRevenue[0].Amount)
	assert.Equal(t, 180.0, m.CurrentMonthRevenue)
}

func TestAggregate_MissingAmountsCountAsZero(t *testing.T) {
	list := []orders.Order{{ID: "a", CreatedAt: at(2024, 3, 1, 10, 0)}}
	m := Aggregate(list, at(2024, 3, 10, 9, 0), testLoc)

	assert.Equal(t, 0.0, m.TotalRevenue)
	assert.Equal(t, 1, m.TotalSales)
	require.Len(t, m.DailyRevenue, 1)
	assert.Equal(t, 0.0, m.DailyRevenue[0].Amount)
}

func TestAggregate_DayBucketing(t *testing.T) {
	list := []orders.Order{
		{ID: "early", CreatedAt: at(2024, 3, 5, 1, 0), TotalAmount: 10},
		{ID: "late", CreatedAt: at(2024, 3, 5, 23, 0), TotalAmount: 20},
		{ID: "next", CreatedAt: at(2024, 3, 6, 0, 1), TotalAmount: 5},
	}
	m := Aggregate(list, at(2024, 4, 1, 0, 0), testLoc)

	require.Len(t, m.DailyRevenue, 2)
	assert.Equal(t, at(2024, 3, 5, 0, 0), m.DailyRevenue[0].Day)
	assert.Equal(t, 30.0, m.DailyRevenue[0].Amount)
	assert.Equal(t, at(2024, 3, 5, 0, 0).UnixMilli(), m.DailyRevenue[0].Timestamp)
	assert.Equal(t, at(2024, 3, 6, 0, 0), m.DailyRevenue[1].Day)
	assert.Equal(t, 5.0, m.DailyRevenue[1].Amount)
}

func TestAggregate_DayBucketingUsesLocalCalendar(t *testing.T) {
	// 20:00 UTC on the 5th is 03:00 on the 6th in UTC+7.
	list := []orders.Order{
		{ID: "a", CreatedAt: time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC), TotalAmount: 1},
		{ID: "b", CreatedAt: at(2024, 3, 6, 22, 0), TotalAmount: 2},
	}
	m := Aggregate(list, at(2024, 4, 1, 0, 0), testLoc)

	require.Len(t, m.DailyRevenue, 1)
	assert.Equal(t, at(2024, 3, 6, 0, 0), m.DailyRevenue[0].Day)
	assert.Equal(t, 3.0, m.DailyRevenue[0].Amount)
}

func TestAggregate_MonthBucketingSortedAscending(t *testing.T) {
	list := []orders.Order{
		{ID: "jan", CreatedAt: at(2024, 1, 15, 10, 0), TotalAmount: 1},
		{ID: "mar", CreatedAt: at(2024, 3, 15, 10, 0), TotalAmount: 3},
		{ID: "feb", CreatedAt: at(2024, 2, 15, 10, 0), TotalAmount: 2},
		{ID: "dec", CreatedAt: at(2023, 12, 31, 23, 59), TotalAmount: 4},
	}
	m := Aggregate(list, at(2024, 4, 1, 0, 0), testLoc)

	require.Len(t, m.MonthlyRevenue, 4)
	assert.Equal(t, []MonthPoint{
		{Month: "2023-12", Amount: 4},
		{Month: "2024-01", Amount: 1},
		{Month: "2024-02", Amount: 2},
		{Month: "2024-03", Amount: 3},
	}, m.MonthlyRevenue)
	assert.Equal(t, []LabelPoint{
		{Label: "Dec 2023", Sales: 4},
		{Label: "Jan 2024", Sales: 1},
		{Label: "Feb 2024", Sales: 2},
		{Label: "Mar 2024", Sales: 3},
	}, m.SalesByMonthLabel)
}

func TestAggregate_ProductQuantities(t *testing.T) {
	list := []orders.Order{
		{ID: "1", Items: []orders.Item{item("A", 2)}},
		{ID: "2", Items: []orders.Item{item("A", 3)}},
		{ID: "3", Items: []orders.Item{item("B", 1)}},
		{ID: "4"},
	}
	m := Aggregate(list, at(2024, 4, 1, 0, 0), testLoc)

	assert.Equal(t, map[string]int{"A": 5, "B": 1}, m.ProductsSold)
	assert.Equal(t, 4, m.TotalSales)
	assert.Empty(t, m.DailyRevenue, "orders without creation time are not bucketed")
}

func TestAggregate_ProductIdentifiersAreNotNormalized(t *testing.T) {
	list := []orders.Order{
		{ID: "1", Items: []orders.Item{item("p-1", 1)}},
		{ID: "2", Items: []orders.Item{item("Mug", 2)}},
	}
	m := Aggregate(list, at(2024, 4, 1, 0, 0), testLoc)

	assert.Equal(t, map[string]int{"p-1": 1, "Mug": 2}, m.ProductsSold)
}

func TestAggregate_TodayAndCurrentMonth(t *testing.T) {
	now := at(2024, 3, 10, 9, 0)
	list := []orders.Order{
		{ID: "today-1", CreatedAt: at(2024, 3, 10, 0, 5), TotalAmount: 10},
		{ID: "today-2", CreatedAt: at(2024, 3, 10, 23, 59), TotalAmount: 15},
		{ID: "month", CreatedAt: at(2024, 3, 1, 0, 0), TotalAmount: 7},
		{ID: "last-month", CreatedAt: at(2024, 2, 29, 23, 59), TotalAmount: 100},
		{ID: "last-year", CreatedAt: at(2023, 3, 10, 12, 0), TotalAmount: 1000},
	}
	m := Aggregate(list, now, testLoc)

	assert.Equal(t, 25.0, m.TodayRevenue)
	assert.Equal(t, 2, m.TodayOrders)
	assert.Equal(t, 32.0, m.CurrentMonthRevenue)
	assert.Equal(t, 3, m.CurrentMonthOrders)
	assert.Equal(t, now, m.ComputedAt)

	// The same snapshot evaluated a day later has no orders today.
	later := Aggregate(list, at(2024, 3, 11, 9, 0), testLoc)
	assert.Zero(t, later.TodayOrders)
	assert.Equal(t, 3, later.CurrentMonthOrders)
}

func TestAggregate_IndependentOfInputOrder(t *testing.T) {
	now := at(2024, 3, 10, 9, 0)
	list := []orders.Order{
		{ID: "a", CreatedAt: at(2024, 3, 1, 10, 0), TotalAmount: 0.1, Items: []orders.Item{item("A", 1)}},
		{ID: "b", CreatedAt: at(2024, 3, 1, 11, 0), TotalAmount: 0.2, Items: []orders.Item{item("B", 2)}},
		{ID: "c", CreatedAt: at(2024, 3, 1, 12, 0), TotalAmount: 0.3, FinalAmount: orders.Amount(0.7)},
		{ID: "d", CreatedAt: at(2024, 2, 1, 12, 0), TotalAmount: 1e16},
		{ID: "e", CreatedAt: at(2024, 2, 1, 13, 0), TotalAmount: 1},
	}
	reversed := make([]orders.Order, len(list))
	for i := range list {
		reversed[len(list)-1-i] = list[i]
	}
	shuffled := []orders.Order{list[2], list[4], list[0], list[3], list[1]}

	want := Aggregate(list, now, testLoc)
	assert.Equal(t, want, Aggregate(reversed, now, testLoc))
	assert.Equal(t, want, Aggregate(shuffled, now, testLoc))
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	list := []orders.Order{
		{ID: "b", CreatedAt: at(2024, 3, 2, 0, 0), TotalAmount: 1},
		{ID: "a", CreatedAt: at(2024, 3, 1, 0, 0), TotalAmount: 2},
	}
	_ = Aggregate(list, at(2024, 3, 10, 0, 0), testLoc)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestMetrics_TopProducts(t *testing.T) {
	m := Metrics{ProductsSold: map[string]int{"C": 2, "A": 5, "B": 2, "D": 1}}

	assert.Equal(t, []ProductQuantity{
		{Product: "A", Quantity: 5},
		{Product: "B", Quantity: 2},
		{Product: "C", Quantity: 2},
	}, m.TopProducts(3))
	assert.Len(t, m.TopProducts(0), 4)
}

func TestMetrics_ProductsSoldSeriesOrderedByProduct(t *testing.T) {
	m := Metrics{ProductsSold: map[string]int{"mug": 1, "cup": 4, "bowl": 2}}

	assert.Equal(t, []ProductQuantity{
		{Product: "bowl", Quantity: 2},
		{Product: "cup", Quantity: 4},
		{Product: "mug", Quantity: 1},
	}, m.ProductsSoldSeries())
}
