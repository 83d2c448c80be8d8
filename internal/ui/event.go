package ui

// Event types dispatched by the page.
const (
	EventSubmit = "submit"
	EventClick  = "click"
)

// Event is a UI event delivered to listeners on the loop goroutine.
type Event struct {
	Type   string
	Target string

	defaultPrevented bool
}

// NewEvent creates an event of the given type aimed at target.
func NewEvent(eventType, target string) *Event {
	return &Event{Type: eventType, Target: target}
}

// PreventDefault suppresses the element's built-in action for this event.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Listener handles a dispatched event.
type Listener func(*Event)
