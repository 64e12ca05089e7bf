package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveAmountFallback(t *testing.T) {
	assert.Equal(t, 100.0, Order{TotalAmount: 100}.EffectiveAmount())
	assert.Equal(t, 80.0, Order{TotalAmount: 100, FinalAmount: Amount(80)}.EffectiveAmount())
	assert.Equal(t, 0.0, Order{FinalAmount: Amount(0), TotalAmount: 50}.EffectiveAmount())
	assert.Equal(t, 0.0, Order{}.EffectiveAmount())
}

func TestOrderDecodeFromPlatformPayload(t *testing.T) {
	payload := `[
		{"_id":"o1","createdAt":"2024-03-05T01:00:00.000Z","totalAmount":100,"finalAmount":80,
		 "items":[{"product":"A","quantity":2},{"product":{"_id":"p-9","name":"Mug"},"quantity":1}],
		 "orderStatus":"delivered","user":{"_id":"u-1","email":"ana@shop.test","name":"Ana"}},
		{"_id":"o2","createdAt":"2024-03-06T00:01:00Z","user":"u-2","items":[{"product":{"name":"Cup"},"quantity":3},{"product":null,"quantity":1}]}
	]`
	var list []Order
	require.NoError(t, json.Unmarshal([]byte(payload), &list))
	require.Len(t, list, 2)

	assert.Equal(t, 80.0, list[0].EffectiveAmount())
	assert.Equal(t, time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), list[0].CreatedAt.UTC())
	assert.Equal(t, ProductRef("A"), list[0].Items[0].Product)
	assert.Equal(t, ProductRef("p-9"), list[0].Items[1].Product)
	assert.Equal(t, "delivered", list[0].OrderStatus)
	assert.Equal(t, UserRef{ID: "u-1", Email: "ana@shop.test", Name: "Ana"}, list[0].User)

	assert.Nil(t, list[1].FinalAmount)
	assert.Equal(t, 0.0, list[1].EffectiveAmount())
	assert.Equal(t, ProductRef("Cup"), list[1].Items[0].Product)
	assert.Equal(t, ProductRef(""), list[1].Items[1].Product)
	assert.Equal(t, UserRef{ID: "u-2"}, list[1].User)
}

func TestFilterApply(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	list := []Order{
		{ID: "abc-1", CreatedAt: day(1), OrderStatus: "pending"},
		{ID: "abc-2", CreatedAt: day(5), OrderStatus: "Delivered"},
		{ID: "xyz-3", CreatedAt: day(9), OrderStatus: "delivered", User: UserRef{Email: "Buyer@Shop.test"}},
	}

	assert.Len(t, Filter{}.Apply(list), 3)

	got := Filter{Status: "delivered"}.Apply(list)
	require.Len(t, got, 2)
	assert.Equal(t, "abc-2", got[0].ID)

	got = Filter{From: day(5), To: day(9)}.Apply(list)
	require.Len(t, got, 1)
	assert.Equal(t, "abc-2", got[0].ID)

	got = Filter{Search: "XYZ"}.Apply(list)
	require.Len(t, got, 1)
	assert.Equal(t, "xyz-3", got[0].ID)

	got = Filter{Search: "buyer@shop"}.Apply(list)
	require.Len(t, got, 1)
	assert.Equal(t, "xyz-3", got[0].ID)

	assert.True(t, Filter{Status: "all"}.IsZero())
	assert.Len(t, Filter{Status: "All"}.Apply(list), 3)
	assert.Len(t, Filter{Status: StatusAll, From: day(5)}.Apply(list), 2)
}

func TestFilterValidate(t *testing.T) {
	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, Filter{From: from}.Validate())
	assert.NoError(t, Filter{From: from, To: from.Add(time.Hour)}.Validate())
	assert.ErrorIs(t, Filter{From: from, To: from}.Validate(), ErrInvalidRange)
}
