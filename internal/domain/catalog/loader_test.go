package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCatalog = `[
	{"id": 1, "name": "Blender", "price": 100, "old_price": null, "image_url": "/img/blender.jpg", "category": "Kitchen", "stock_quantity": 4},
	{"id": 2, "name": "Kettle", "price": 200, "image_url": null, "category": "Kitchen", "stock_quantity": 9},
	{"id": 3, "name": "Toaster", "price": 300, "category": "Kitchen", "stock_quantity": 2},
	{"id": 4, "name": "Iron", "price": 400, "category": "Home", "stock_quantity": 7},
	{"id": 5, "name": "Heater", "price": 500, "category": "Home", "stock_quantity": 1},
	{"id": 6, "name": "Lamp", "price": 650, "category": "Home", "stock_quantity": 3}
]`

func newCatalogServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.RawQuery
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastQuery
}

func TestLoader_Load(t *testing.T) {
	srv, lastQuery := newCatalogServer(t, http.StatusOK, sampleCatalog)
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())

	var reloads int
	l.OnReload(func() { reloads++ })

	require.NoError(t, l.Load(context.Background()))
	assert.True(t, l.Loaded())
	assert.Equal(t, 1, reloads)

	// Cache-busting parameter must be present on the fetch.
	assert.Contains(t, *lastQuery, "t=")

	products := l.Products()
	require.Len(t, products, 6)
	assert.Equal(t, "Blender", products[0].Name)
	assert.Equal(t, 4, products[0].Stock)
	assert.True(t, decimal.NewFromInt(100).Equal(products[0].Price))

	// Only the first five products become deals.
	assert.Len(t, l.Deals(), 5)
}

func TestLoader_ImageFallback(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, sampleCatalog)
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, l.Load(context.Background()))

	products := l.Products()
	assert.Equal(t, "/img/blender.jpg", products[0].Image())
	assert.Equal(t, PlaceholderImage, products[1].Image())
	assert.Equal(t, PlaceholderImage, products[2].Image())
}

func TestLoader_NonSuccessStatus(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusInternalServerError, "boom")
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())

	err := l.Load(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.False(t, l.Loaded())
	assert.Empty(t, l.Products())
}

func TestLoader_MalformedBody(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, `{"not": "an array"`)
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())

	require.Error(t, l.Load(context.Background()))
	assert.False(t, l.Loaded())
}

func TestLoader_FailedReloadKeepsSnapshot(t *testing.T) {
	status := http.StatusOK
	body := sampleCatalog
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, l.Load(context.Background()))

	status = http.StatusBadGateway
	require.Error(t, l.Load(context.Background()))

	assert.True(t, l.Loaded())
	assert.Len(t, l.Products(), 6)
}

func TestLoader_FindPrefersDeals(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, sampleCatalog)
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, l.Load(context.Background()))

	// Product 1 is inside the deal window: the discounted price must win.
	p, ok := l.Find(1)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(80).Equal(p.Price), "got %s", p.Price)
	assert.True(t, decimal.NewFromInt(100).Equal(p.OldPrice))

	// Product 6 is outside the window: full price.
	p, ok = l.Find(6)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(650).Equal(p.Price))

	_, ok = l.Find(99)
	assert.False(t, ok)
}

func TestLoader_Ping(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, "[]")
	l := NewLoader(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, l.Ping(context.Background()))

	down, _ := newCatalogServer(t, http.StatusServiceUnavailable, "")
	l = NewLoader(down.URL, down.Client(), zap.NewNop())
	require.Error(t, l.Ping(context.Background()))
}
