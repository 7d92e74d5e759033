package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitronics/storefront/internal/domain/cart"
	"github.com/vitronics/storefront/internal/domain/catalog"
	"github.com/vitronics/storefront/pkg/kvstore"
)

// --- Helpers ---

type staticLookup map[int64]catalog.Product

func (s staticLookup) Find(id int64) (catalog.Product, bool) {
	p, ok := s[id]
	return p, ok
}

var testClock = time.Date(2025, time.March, 7, 14, 30, 5, 0, time.UTC)

func validDetails() Details {
	return Details{
		FullName: "Jane Wanjiku",
		Phone:    "0712345678",
		Address:  "42 Moi Avenue, Nairobi",
	}
}

func testConfig() Config {
	return Config{
		StoreName:      "Vitronics Hub",
		ContactLine:    "Call/WhatsApp for assistance: +254 703 182530",
		WhatsAppNumber: "254703182530",
		DeliveryFee:    decimal.NewFromInt(100),
		Now:            func() time.Time { return testClock },
	}
}

func newFlowWithCart(t *testing.T, prices map[int64]int64) (*Flow, *cart.Store) {
	t.Helper()
	lookup := staticLookup{}
	for id, price := range prices {
		lookup[id] = catalog.Product{ID: id, Name: "Item " + strings.Repeat("X", int(id)), Price: decimal.NewFromInt(price)}
	}
	c := cart.NewStore(kvstore.NewMemory(), "cart:test", lookup, zap.NewNop())
	for id := range prices {
		_, ok, err := c.Add(context.Background(), id)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return NewFlow(c, testConfig()), c
}

// --- Tests ---

func TestFlow_EmptyCartRejected(t *testing.T) {
	f, _ := newFlowWithCart(t, nil)

	err := f.Begin()
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateIdle, f.State(), "DetailsCollection must never be entered")
	assert.Nil(t, f.Order())
}

func TestFlow_HappyPath(t *testing.T) {
	ctx := context.Background()
	f, c := newFlowWithCart(t, map[int64]int64{1: 1500})

	require.NoError(t, f.Begin())
	assert.Equal(t, StateDetailsCollection, f.State())

	o, err := f.Submit(validDetails())
	require.NoError(t, err)
	assert.Equal(t, StateOrderReady, f.State())

	assert.Equal(t, "254712345678", o.Customer.Phone)
	assert.Equal(t, PaymentMethod, o.PaymentMethod)
	assert.True(t, decimal.NewFromInt(1500).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(100).Equal(o.DeliveryFee))
	assert.True(t, decimal.NewFromInt(1600).Equal(o.Total))
	assert.True(t, strings.HasPrefix(o.ID, "ORD"))
	assert.Len(t, o.ID, 9)
	assert.Equal(t, "3/7/2025, 2:30:05 PM", o.Date)

	done, err := f.ConfirmSent(ctx)
	require.NoError(t, err)
	assert.Equal(t, o.ID, done.ID)
	assert.Equal(t, StateIdle, f.State())
	assert.True(t, c.Empty(), "cart clears after send")
}

func TestFlow_InvalidPhoneStaysInDetails(t *testing.T) {
	f, _ := newFlowWithCart(t, map[int64]int64{1: 100})
	require.NoError(t, f.Begin())

	d := validDetails()
	d.Phone = "12345"
	_, err := f.Submit(d)
	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, StateDetailsCollection, f.State())
	assert.Nil(t, f.Order())

	// A corrected submit still succeeds.
	_, err = f.Submit(validDetails())
	require.NoError(t, err)
	assert.Equal(t, StateOrderReady, f.State())
}

func TestFlow_MissingFieldsRejected(t *testing.T) {
	f, _ := newFlowWithCart(t, map[int64]int64{1: 100})
	require.NoError(t, f.Begin())

	d := validDetails()
	d.FullName = "  "
	_, err := f.Submit(d)
	require.ErrorIs(t, err, ErrMissingName)

	d = validDetails()
	d.Address = ""
	_, err = f.Submit(d)
	require.ErrorIs(t, err, ErrMissingAddress)

	assert.Equal(t, StateDetailsCollection, f.State())
}

func TestFlow_CancelFromOrderReadyClearsCart(t *testing.T) {
	ctx := context.Background()
	f, c := newFlowWithCart(t, map[int64]int64{1: 100})
	require.NoError(t, f.Begin())
	o, err := f.Submit(validDetails())
	require.NoError(t, err)

	dropped, err := f.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, o.ID, dropped.ID)
	assert.Equal(t, StateIdle, f.State())
	assert.True(t, c.Empty())
	assert.Nil(t, f.Order())
}

func TestFlow_CancelFromDetailsKeepsCart(t *testing.T) {
	ctx := context.Background()
	f, c := newFlowWithCart(t, map[int64]int64{1: 100})
	require.NoError(t, f.Begin())

	dropped, err := f.Cancel(ctx)
	require.NoError(t, err)
	assert.Nil(t, dropped)
	assert.Equal(t, StateIdle, f.State())
	assert.False(t, c.Empty(), "cancelling before OrderReady keeps the cart")
}

func TestFlow_CancelWhenIdleIsHarmless(t *testing.T) {
	f, _ := newFlowWithCart(t, map[int64]int64{1: 100})
	dropped, err := f.Cancel(context.Background())
	require.NoError(t, err)
	assert.Nil(t, dropped)
	assert.Equal(t, StateIdle, f.State())
}

func TestFlow_OutOfOrderEvents(t *testing.T) {
	f, _ := newFlowWithCart(t, map[int64]int64{1: 100})

	var trErr *TransitionError
	_, err := f.Submit(validDetails())
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StateIdle, trErr.State)

	_, err = f.ConfirmSent(context.Background())
	require.ErrorAs(t, err, &trErr)

	require.NoError(t, f.Begin())
	err = f.Begin()
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StateDetailsCollection, trErr.State)
}

func TestFlow_OrderSnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	f, c := newFlowWithCart(t, map[int64]int64{1: 100, 2: 200})
	require.NoError(t, f.Begin())
	o, err := f.Submit(validDetails())
	require.NoError(t, err)

	wantItems := len(o.Items)
	wantTotal := o.Total

	// Mutate and clear the cart after the order is built.
	require.NoError(t, c.SetQuantity(ctx, 1, 50))
	require.NoError(t, c.Clear(ctx))

	assert.Len(t, o.Items, wantItems)
	assert.True(t, wantTotal.Equal(o.Total))
	for _, it := range o.Items {
		assert.LessOrEqual(t, it.Quantity, 1)
	}
}

func TestFlow_ReusableAfterCompletion(t *testing.T) {
	ctx := context.Background()
	f, c := newFlowWithCart(t, map[int64]int64{1: 100})
	require.NoError(t, f.Begin())
	_, err := f.Submit(validDetails())
	require.NoError(t, err)
	_, err = f.ConfirmSent(ctx)
	require.NoError(t, err)

	// Next checkout on the same flow: empty cart is rejected again.
	require.ErrorIs(t, f.Begin(), ErrEmptyCart)

	_, ok, err := c.Add(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, f.Begin())
}
