package orders

import (
	"strings"
	"time"
)

// StatusAll selects orders of every status.
const StatusAll = "all"

// Filter narrows an order list before aggregation.
// Zero fields do not filter. From is inclusive, To is exclusive.
// Search matches the order id or the customer email.
type Filter struct {
	Status string
	From   time.Time
	To     time.Time
	Search string
}

// IsZero reports whether the filter keeps every order.
func (f Filter) IsZero() bool {
	return !f.filtersStatus() && f.From.IsZero() && f.To.IsZero() && strings.TrimSpace(f.Search) == ""
}

// Validate checks the time range.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return ErrInvalidRange
	}
	return nil
}

// Match reports whether an order passes the filter.
func (f Filter) Match(o Order) bool {
	if f.filtersStatus() && !strings.EqualFold(o.OrderStatus, strings.TrimSpace(f.Status)) {
		return false
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(o.ID), q) && !strings.Contains(strings.ToLower(o.User.Email), q) {
			return false
		}
	}
	return true
}

func (f Filter) filtersStatus() bool {
	s := strings.TrimSpace(f.Status)
	return s != "" && !strings.EqualFold(s, StatusAll)
}

// Apply returns the orders that pass the filter. The input is not modified.
func (f Filter) Apply(list []Order) []Order {
	if f.IsZero() {
		return list
	}
	out := make([]Order, 0, len(list))
	for _, o := range list {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}
