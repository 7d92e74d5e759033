package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vitronics/storefront/internal/domain/cart"
)

// State identifies a stage of the checkout flow.
//
// Transitions:
//
//	Idle -> DetailsCollection   Begin (rejected on an empty cart)
//	DetailsCollection -> OrderReady   Submit (rejected on invalid details)
//	OrderReady -> Sent        ConfirmSent: cart cleared, back to Idle
//	OrderReady -> Cancelled   Cancel: cart cleared, back to Idle
//
// Cancel is accepted in every state before Sent and always lands in Idle.
type State uint8

const (
	StateIdle State = iota
	StateDetailsCollection
	StateOrderReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetailsCollection:
		return "details_collection"
	case StateOrderReady:
		return "order_ready"
	default:
		return "unknown"
	}
}

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingName    = errors.New("full name is required")
	ErrMissingAddress = errors.New("delivery address is required")
)

// TransitionError indicates an event arrived in a state that does not
// accept it.
type TransitionError struct {
	State State
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("checkout: %s not allowed in state %s", e.Event, e.State)
}

// Details is the customer input collected during DetailsCollection. Phone is
// the raw user input; Submit normalizes it.
type Details struct {
	FullName string
	Phone    string
	Address  string
}

// Config holds the fixed order parameters.
type Config struct {
	// StoreName appears in the order message header.
	StoreName string
	// ContactLine is the fixed assistance line at the end of every message.
	ContactLine string
	// WhatsAppNumber is the deep link destination, digits only.
	WhatsAppNumber string
	// DeliveryFee is added to every order subtotal.
	DeliveryFee decimal.Decimal
	// Now supplies the clock; defaults to time.Now.
	Now func() time.Time
}

// Flow drives one checkout from cart to shareable order message. A Flow is
// reused across checkouts: completed and cancelled checkouts reset it to
// Idle. Safe for concurrent use.
type Flow struct {
	cfg  Config
	cart *cart.Store

	mu    sync.Mutex
	state State
	order *Order
}

// NewFlow creates a checkout Flow over the given cart.
func NewFlow(c *cart.Store, cfg Config) *Flow {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Flow{cfg: cfg, cart: c}
}

// State returns the current stage.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin starts a checkout. An empty cart is rejected with ErrEmptyCart and
// the flow stays Idle; DetailsCollection is never entered.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		return &TransitionError{State: f.state, Event: "begin"}
	}
	if f.cart.Empty() {
		return ErrEmptyCart
	}
	f.state = StateDetailsCollection
	return nil
}

// Submit validates the customer details and, on success, builds the order
// snapshot and advances to OrderReady. On validation failure the flow stays
// in DetailsCollection and no order is constructed.
func (f *Flow) Submit(d Details) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateDetailsCollection {
		return nil, &TransitionError{State: f.state, Event: "submit"}
	}

	name := strings.TrimSpace(d.FullName)
	if name == "" {
		return nil, ErrMissingName
	}
	address := strings.TrimSpace(d.Address)
	if address == "" {
		return nil, ErrMissingAddress
	}
	phone, err := NormalizePhone(d.Phone)
	if err != nil {
		return nil, err
	}

	f.order = buildOrder(f.cfg.Now(), f.cart.Items(), f.cfg.DeliveryFee, Customer{
		FullName: name,
		Phone:    phone,
		Address:  address,
	})
	f.state = StateOrderReady
	return f.order, nil
}

// Order returns the in-progress order, or nil outside OrderReady.
func (f *Flow) Order() *Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Message renders the current order as the shareable text block. Empty
// outside OrderReady.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return ""
	}
	return FormatMessage(f.order, f.cfg.StoreName, f.cfg.ContactLine)
}

// DeepLink returns the messaging deep link for the current order. Empty
// outside OrderReady.
func (f *Flow) DeepLink() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return ""
	}
	return DeepLink(f.cfg.WhatsAppNumber, FormatMessage(f.order, f.cfg.StoreName, f.cfg.ContactLine))
}

// ConfirmSent completes the checkout after the user activated the deep link
// or copied the message: the cart is cleared and the flow returns to Idle.
// The completed order is returned for the confirmation notice.
func (f *Flow) ConfirmSent(ctx context.Context) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateOrderReady {
		return nil, &TransitionError{State: f.state, Event: "confirm_sent"}
	}

	done := f.order
	if err := f.cart.Clear(ctx); err != nil {
		return nil, err
	}
	f.order = nil
	f.state = StateIdle
	return done, nil
}

// Cancel abandons the checkout from any state before Sent. The in-progress
// order is discarded; the cart is cleared only when cancelling from
// OrderReady. The discarded order, if any, is returned for the cancellation
// notice.
func (f *Flow) Cancel(ctx context.Context) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := f.order
	if f.state == StateOrderReady {
		if err := f.cart.Clear(ctx); err != nil {
			return nil, err
		}
	}
	f.order = nil
	f.state = StateIdle
	return dropped, nil
}
