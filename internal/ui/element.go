package ui

// Element is anything addressable by id on a Document.
type Element interface {
	ID() string
}

// EventTarget accepts listeners for named event types.
type EventTarget interface {
	Element
	AddEventListener(eventType string, listener Listener)
}

// Control is an element with an enabled/disabled flag.
type Control interface {
	Element
	SetDisabled(disabled bool)
	Disabled() bool
}

// ValueSource is an input whose current value can be read.
type ValueSource interface {
	Element
	Value() string
}

// Visibility is an element that can be shown and hidden.
type Visibility interface {
	Element
	Show()
	Hide()
	Visible() bool
}

// TextSink is an element whose text content can be replaced.
type TextSink interface {
	Element
	SetText(text string)
	Text() string
}

// Location navigates the document, as assigning window.location does.
type Location interface {
	Assign(url string)
}

// Document resolves elements by id and exposes the current location.
type Document interface {
	ElementByID(id string) (Element, bool)
	Location() Location
}
