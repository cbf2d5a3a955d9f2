package service

import (
	"context"
	"math"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCartModel_Absent(t *testing.T) {
	st := newMockStore()

	m := LoadCartModel(context.Background(), st, testKeys.Cart, nullLogger())

	assert.True(t, m.Cart().IsEmpty())
	assert.Equal(t, FallbackAbsent, m.Hydration())
	assert.Equal(t, 0, st.SetCalls, "hydration must not write")
}

func TestLoadCartModel_Stored(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	require.NoError(t, st.Set(ctx, testKeys.Cart, []byte(`[{"id":1,"name":"Bowl","price":12.5,"qty":2}]`)))

	m := LoadCartModel(ctx, st, testKeys.Cart, nullLogger())

	require.Equal(t, Hydrated, m.Hydration())
	cart := m.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "25.00", m.Subtotal().StringFixed(2))
}

func TestLoadCartModel_CorruptFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{{{`},
		{name: "null", data: `null`},
		{name: "object instead of array", data: `{"id":1}`},
		{name: "zero quantity", data: `[{"id":1,"name":"Bowl","price":1,"qty":0}]`},
		{name: "duplicate ids", data: `[{"id":1,"name":"A","price":1,"qty":1},{"id":1,"name":"B","price":1,"qty":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := newMockStore()
			require.NoError(t, st.Set(ctx, testKeys.Cart, []byte(tt.data)))
			log, hook := test.NewNullLogger()

			m := LoadCartModel(ctx, st, testKeys.Cart, log)

			assert.True(t, m.Cart().IsEmpty())
			assert.Equal(t, FallbackCorrupt, m.Hydration())
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

			raw, _, err := st.MemoryStore.Get(ctx, testKeys.Cart)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(raw), "corrupt data is left in place")
		})
	}
}

func TestLoadCartModel_Unreadable(t *testing.T) {
	st := newMockStore()
	st.GetErr = errStoreDown

	m := LoadCartModel(context.Background(), st, testKeys.Cart, nullLogger())

	assert.True(t, m.Cart().IsEmpty())
	assert.Equal(t, FallbackUnreadable, m.Hydration())
}

func TestCartModel_ReloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = m.AddItem(ctx, product(2, "Mug", "8"))
	require.NoError(t, err)

	first := m.Reload(ctx)
	second := m.Reload(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, m.Cart(), first)
}

func TestCartModel_AddItem(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())

	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	cart, err := m.AddItem(ctx, product(1, "Bowl", "99.99"))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "12.50", cart.Items[0].UnitPrice.StringFixed(2), "first price wins")

	raw, found, err := st.Get(ctx, testKeys.Cart)
	require.NoError(t, err)
	require.True(t, found)
	stored, err := domain.DecodeCart(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalQuantity())
}

func TestCartModel_ChangeQuantity(t *testing.T) {
	ctx := context.Background()
	m := NewCartModel(newMockStore(), testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = m.AddItem(ctx, product(2, "Mug", "8.00"))
	require.NoError(t, err)

	cart, err := m.ChangeQuantity(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[cart.Find(1)].Quantity)

	cart, err = m.ChangeQuantity(ctx, 1, -4)
	require.NoError(t, err)
	assert.Equal(t, -1, cart.Find(1), "line dropped at zero")
	require.Len(t, cart.Items, 1)

	cart, err = m.ChangeQuantity(ctx, 2, -10)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "line dropped below zero")
}

func TestCartModel_ChangeQuantityUnknownProduct(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	writes := st.SetCalls

	cart, err := m.ChangeQuantity(ctx, 42, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, cart.TotalQuantity())
	assert.Equal(t, writes, st.SetCalls, "no-op does not write")
}

func TestCartModel_ChangeQuantityOverflow(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = m.ChangeQuantity(ctx, 1, math.MaxInt-1)
	require.NoError(t, err)
	writes := st.SetCalls

	cart, err := m.ChangeQuantity(ctx, 1, 1)

	require.ErrorIs(t, err, ErrQuantityRange)
	assert.Equal(t, math.MaxInt, cart.Items[0].Quantity)
	assert.Equal(t, math.MaxInt, m.TotalQuantity())
	assert.Equal(t, writes, st.SetCalls, "rejected change does not write")

	_, err = m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.ErrorIs(t, err, ErrQuantityRange)
	assert.Equal(t, math.MaxInt, m.Cart().Items[0].Quantity)

	cart, err = m.ChangeQuantity(ctx, 1, math.MinInt)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "large negative delta removes the line")
}

func TestCartModel_RemovalIsMonotonic(t *testing.T) {
	ctx := context.Background()
	m := NewCartModel(newMockStore(), testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = m.ChangeQuantity(ctx, 1, 4)
	require.NoError(t, err)

	prev := m.TotalQuantity()
	for prev > 0 {
		_, err := m.ChangeQuantity(ctx, 1, -1)
		require.NoError(t, err)
		assert.Equal(t, prev-1, m.TotalQuantity())
		prev = m.TotalQuantity()
	}
	assert.True(t, m.Cart().IsEmpty())
}

func TestCartModel_PersistFailureKeepsPreviousCart(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)

	st.SetErr = errStoreDown
	notified := 0
	unsubscribe := m.Subscribe(func(domain.Cart) { notified++ })
	defer unsubscribe()

	cart, err := m.AddItem(ctx, product(2, "Mug", "8.00"))

	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, cart.TotalQuantity())
	assert.Equal(t, 1, m.TotalQuantity())
	assert.Equal(t, 0, notified)
}

func TestCartModel_ClearPersistsEmptyArray(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	m := NewCartModel(st, testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)

	cart, err := m.Clear(ctx)

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	raw, found, err := st.Get(ctx, testKeys.Cart)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCartModel_SubscribersSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	m := NewCartModel(newMockStore(), testKeys.Cart, nullLogger())
	var badges []int
	unsubscribe := m.Subscribe(func(c domain.Cart) { badges = append(badges, c.TotalQuantity()) })

	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	unsubscribe()
	_, err = m.Clear(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, badges)
}

func TestCartModel_SnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewCartModel(newMockStore(), testKeys.Cart, nullLogger())
	_, err := m.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)

	cart := m.Cart()
	cart.Items[0].Quantity = 100

	assert.Equal(t, 1, m.TotalQuantity())
}

func TestCartModel_TwoInstancesLastWriterWins(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	tabA := LoadCartModel(ctx, st, testKeys.Cart, nullLogger())
	tabB := LoadCartModel(ctx, st, testKeys.Cart, nullLogger())

	_, err := tabA.AddItem(ctx, product(1, "Bowl", "12.50"))
	require.NoError(t, err)
	_, err = tabB.AddItem(ctx, product(2, "Mug", "8.00"))
	require.NoError(t, err)

	fresh := LoadCartModel(ctx, st, testKeys.Cart, nullLogger())
	cart := fresh.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].ProductID)

	reloaded := tabA.Reload(ctx)
	assert.Equal(t, cart, reloaded)
}

func TestCartModel_AddThenRemoveBowl(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	require.NoError(t, st.Set(ctx, testKeys.Cart, []byte(`[{"id":1,"name":"Bowl","price":15.50,"qty":1}]`)))
	m := LoadCartModel(ctx, st, testKeys.Cart, nullLogger())

	cart, err := m.AddItem(ctx, product(1, "Bowl", "15.50"))
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "31.00", m.Subtotal().StringFixed(2))

	cart, err = m.ChangeQuantity(ctx, 1, -2)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, m.TotalQuantity())

	raw, _, err := st.Get(ctx, testKeys.Cart)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}
