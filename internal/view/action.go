package view

// Action is the typed tag carried by every interactive element. The handler
// dispatches on Action values instead of matching on element class strings.
type Action string

const (
	ActionAddToCart     Action = "add-to-cart"
	ActionIncrement     Action = "increment"
	ActionDecrement     Action = "decrement"
	ActionSetQuantity   Action = "set-quantity"
	ActionRemoveItem    Action = "remove-item"
	ActionBeginCheckout Action = "begin-checkout"
	ActionSubmitDetails Action = "submit-details"
	ActionConfirmSent   Action = "confirm-sent"
	ActionCancel        Action = "cancel-checkout"
	ActionReloadCatalog Action = "reload-catalog"
)

var actions = map[Action]struct{}{
	ActionAddToCart:     {},
	ActionIncrement:     {},
	ActionDecrement:     {},
	ActionSetQuantity:   {},
	ActionRemoveItem:    {},
	ActionBeginCheckout: {},
	ActionSubmitDetails: {},
	ActionConfirmSent:   {},
	ActionCancel:        {},
	ActionReloadCatalog: {},
}

// ParseAction validates a raw form value against the known action set.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	_, ok := actions[a]
	return a, ok
}
