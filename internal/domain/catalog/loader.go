package catalog

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxBodySize bounds how much of the upstream response is read.
const maxBodySize = 8 << 20

// StatusError indicates the catalog endpoint answered with a non-2xx status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return "catalog endpoint returned status " + strconv.Itoa(e.Status)
}

// Loader fetches the product catalog from the upstream endpoint and holds the
// current snapshot plus its derived deals. Failed loads keep the previous
// snapshot; retries are always caller-initiated.
type Loader struct {
	endpoint string
	client   *http.Client
	lg       *zap.Logger
	now      func() time.Time

	// sf collapses concurrent reload requests into one upstream fetch.
	sf singleflight.Group

	mu       sync.RWMutex
	products []Product
	deals    []Product
	loaded   bool
	onReload []func()
}

// NewLoader creates a Loader for the given catalog endpoint URL.
func NewLoader(endpoint string, client *http.Client, lg *zap.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		endpoint: endpoint,
		client:   client,
		lg:       lg,
		now:      time.Now,
	}
}

// OnReload registers fn to run after every successful load. Registration is
// not safe concurrently with Load; wire subscribers before serving traffic.
func (l *Loader) OnReload(fn func()) {
	l.onReload = append(l.onReload, fn)
}

// Load fetches the catalog, replacing the current snapshot and re-deriving
// deals on success. On failure the previous snapshot stays intact and the
// error is returned for the caller to surface as a retryable condition.
func (l *Loader) Load(ctx context.Context) error {
	_, err, _ := l.sf.Do("catalog", func() (interface{}, error) {
		return nil, l.load(ctx)
	})
	return err
}

func (l *Loader) load(ctx context.Context) error {
	// Cache-busting timestamp keeps intermediaries from serving stale lists.
	url := l.endpoint + "?t=" + strconv.FormatInt(l.now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	products, err := decodeProducts(body)
	if err != nil {
		return errors.Wrap(err, "parse catalog")
	}

	l.mu.Lock()
	l.products = products
	l.deals = Deals(products)
	l.loaded = true
	l.mu.Unlock()

	l.lg.Info("catalog loaded",
		zap.Int("products", len(products)),
		zap.Int("deals", min(len(products), dealWindow)),
	)

	for _, fn := range l.onReload {
		fn()
	}
	return nil
}

// Loaded reports whether at least one load has succeeded.
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Products returns a copy of the current catalog.
func (l *Loader) Products() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Product, len(l.products))
	copy(out, l.products)
	return out
}

// Deals returns a copy of the current promotional subset.
func (l *Loader) Deals() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Product, len(l.deals))
	copy(out, l.deals)
	return out
}

// Find resolves a product id across deals and the full catalog. Deals take
// precedence so a discounted price wins at add-to-cart time.
func (l *Loader) Find(id int64) (Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.deals {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range l.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Ping probes the catalog endpoint without touching the snapshot. Used as a
// readiness check.
func (l *Loader) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "probe catalog")
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}
