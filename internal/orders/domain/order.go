package orders

import (
	"bytes"
	"encoding/json"
	"time"
)

// Order is the read-only view of a platform order used by the dashboard.
type Order struct {
	ID            string    `json:"_id"`
	CreatedAt     time.Time `json:"createdAt"`
	TotalAmount   float64   `json:"totalAmount"`
	FinalAmount   *float64  `json:"finalAmount,omitempty"`
	Items         []Item    `json:"items"`
	OrderStatus   string    `json:"orderStatus,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	User          UserRef   `json:"user"`
}

// Item is one order line.
type Item struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// EffectiveAmount is the charged amount: FinalAmount when present, otherwise TotalAmount.
// A missing TotalAmount decodes as zero.
func (o Order) EffectiveAmount() float64 {
	if o.FinalAmount != nil {
		return *o.FinalAmount
	}
	return o.TotalAmount
}

// ProductRef is the product of an order line as sent by the platform.
// The platform sends either a bare identifier/name or a populated product document.
type ProductRef string

// String returns the raw reference.
func (p ProductRef) String() string { return string(p) }

type populatedProduct struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts a string or a populated product object.
// Objects resolve to their _id, falling back to name.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*p = ProductRef(raw)
		return nil
	}
	var doc populatedProduct
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.ID != "" {
		*p = ProductRef(doc.ID)
		return nil
	}
	*p = ProductRef(doc.Name)
	return nil
}

// UserRef is the customer of an order. The platform sends either the user
// id or a populated user document.
type UserRef struct {
	ID    string `json:"_id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UnmarshalJSON accepts a string id or a populated user object.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = UserRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var doc plain
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*u = UserRef(doc)
	return nil
}

// Amount returns a pointer for optional amount fields.
func Amount(v float64) *float64 { return &v }
