// Package handler wires HTTP requests into the storefront: page rendering on
// GET, typed action dispatch on POST.
package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/vitronics/storefront/internal/domain/catalog"
	"github.com/vitronics/storefront/internal/domain/checkout"
	"github.com/vitronics/storefront/internal/notify"
	"github.com/vitronics/storefront/internal/session"
	"github.com/vitronics/storefront/internal/view"
)

// checkoutErrParam carries an inline validation message across the
// post-redirect-get cycle.
const checkoutErrParam = "checkout_error"

const emptyCartMessage = "Your cart is empty. Please add items before checkout."

// actionFunc handles one dispatched UI action.
type actionFunc func(ctx context.Context, s *session.Session, form url.Values) error

// Handler serves the storefront page and dispatches UI actions.
type Handler struct {
	lg        *zap.Logger
	catalog   *catalog.Loader
	sessions  *session.Manager
	storeName string

	actions map[view.Action]actionFunc
}

// New constructs a Handler and its action dispatch table.
func New(lg *zap.Logger, loader *catalog.Loader, sessions *session.Manager, storeName string) *Handler {
	h := &Handler{
		lg:        lg,
		catalog:   loader,
		sessions:  sessions,
		storeName: storeName,
	}
	h.actions = map[view.Action]actionFunc{
		view.ActionAddToCart:     h.addToCart,
		view.ActionIncrement:     h.increment,
		view.ActionDecrement:     h.decrement,
		view.ActionSetQuantity:   h.setQuantity,
		view.ActionRemoveItem:    h.removeItem,
		view.ActionBeginCheckout: h.beginCheckout,
		view.ActionSubmitDetails: h.submitDetails,
		view.ActionConfirmSent:   h.confirmSent,
		view.ActionCancel:        h.cancelCheckout,
		view.ActionReloadCatalog: h.reloadCatalog,
	}
	return h
}

// Register mounts the storefront routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.page)
	mux.HandleFunc("POST /actions", h.dispatch)
	mux.HandleFunc("GET /static/store.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write([]byte(view.StaticCSS))
	})
}

// page renders the storefront for the current session.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.sessions.Resolve(ctx, w, r)

	panel := view.NewCheckoutPanel(
		s.Checkout.State(),
		s.Checkout.Order(),
		s.Checkout.Message(),
		s.Checkout.DeepLink(),
		r.URL.Query().Get(checkoutErrParam),
	)
	p := view.BuildPage(
		h.storeName,
		h.catalog.Loaded(),
		h.catalog.Products(),
		h.catalog.Deals(),
		s.Cart.Items(),
		s.Cart.Totals(),
		panel,
		s.Notices.Active(),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, p); err != nil {
		h.lg.Error("render page", zap.Error(err))
	}
}

// dispatch routes a posted UI action through the typed action table and
// redirects back to the page.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.sessions.Resolve(ctx, w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	action, ok := view.ParseAction(r.PostFormValue("action"))
	if !ok {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	location := "/"
	if err := h.actions[action](ctx, s, r.PostForm); err != nil {
		location = h.recover(s, action, err)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// recover maps an action error onto user feedback and the redirect target.
// Nothing here is fatal: validation problems surface inline or as a toast,
// stale events are logged and dropped.
func (h *Handler) recover(s *session.Session, action view.Action, err error) string {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		s.Notices.Push(notify.KindError, emptyCartMessage)
	case errors.Is(err, checkout.ErrInvalidPhone):
		return "/?" + checkoutErrParam + "=" + url.QueryEscape(
			"Please enter a valid Kenyan WhatsApp number (e.g., 07XXXXXXXX or 2547XXXXXXXX)")
	case errors.Is(err, checkout.ErrMissingName), errors.Is(err, checkout.ErrMissingAddress):
		return "/?" + checkoutErrParam + "=" + url.QueryEscape(err.Error())
	default:
		var trErr *checkout.TransitionError
		if errors.As(err, &trErr) {
			// Stale form post (double click, back button). Drop it.
			h.lg.Debug("stale checkout event", zap.String("action", string(action)), zap.Error(err))
			return "/"
		}
		h.lg.Error("action failed", zap.String("action", string(action)), zap.Error(err))
		s.Notices.Push(notify.KindError, "Something went wrong. Please try again.")
	}
	return "/"
}

// --- Action handlers ---

func (h *Handler) addToCart(ctx context.Context, s *session.Session, form url.Values) error {
	id, ok := formID(form)
	if !ok {
		return nil
	}
	item, added, err := s.Cart.Add(ctx, id)
	if err != nil {
		return err
	}
	if added {
		s.Notices.Push(notify.KindSuccess, item.Name+" added to cart")
	}
	return nil
}

func (h *Handler) increment(ctx context.Context, s *session.Session, form url.Values) error {
	id, ok := formID(form)
	if !ok {
		return nil
	}
	return s.Cart.Increment(ctx, id)
}

func (h *Handler) decrement(ctx context.Context, s *session.Session, form url.Values) error {
	id, ok := formID(form)
	if !ok {
		return nil
	}
	return s.Cart.Decrement(ctx, id)
}

func (h *Handler) setQuantity(ctx context.Context, s *session.Session, form url.Values) error {
	id, ok := formID(form)
	if !ok {
		return nil
	}
	// Non-numeric input coerces to 1; the store clamps anything below 1.
	qty, err := strconv.Atoi(form.Get("quantity"))
	if err != nil {
		qty = 1
	}
	return s.Cart.SetQuantity(ctx, id, qty)
}

func (h *Handler) removeItem(ctx context.Context, s *session.Session, form url.Values) error {
	id, ok := formID(form)
	if !ok {
		return nil
	}
	return s.Cart.Remove(ctx, id)
}

func (h *Handler) beginCheckout(_ context.Context, s *session.Session, _ url.Values) error {
	return s.Checkout.Begin()
}

func (h *Handler) submitDetails(_ context.Context, s *session.Session, form url.Values) error {
	_, err := s.Checkout.Submit(checkout.Details{
		FullName: form.Get("full_name"),
		Phone:    form.Get("phone"),
		Address:  form.Get("address"),
	})
	return err
}

func (h *Handler) confirmSent(ctx context.Context, s *session.Session, _ url.Values) error {
	o, err := s.Checkout.ConfirmSent(ctx)
	if err != nil {
		return err
	}
	s.Notices.Push(notify.KindSuccess, "Order #"+o.ID+" placed — thank you!")
	return nil
}

func (h *Handler) cancelCheckout(ctx context.Context, s *session.Session, _ url.Values) error {
	dropped, err := s.Checkout.Cancel(ctx)
	if err != nil {
		return err
	}
	if dropped != nil {
		s.Notices.Push(notify.KindInfo, "Your Order #"+dropped.ID+" has been cancelled!")
	}
	return nil
}

func (h *Handler) reloadCatalog(ctx context.Context, s *session.Session, _ url.Values) error {
	if err := h.catalog.Load(ctx); err != nil {
		h.lg.Warn("catalog reload failed", zap.Error(err))
		s.Notices.Push(notify.KindError, "Failed to load products")
	}
	return nil
}

// formID parses the item id from the form, reporting ok=false on garbage.
func formID(form url.Values) (int64, bool) {
	id, err := strconv.ParseInt(form.Get("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
