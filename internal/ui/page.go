package ui

import (
	"fmt"
	"sync"
)

// Page is an in-memory Document. Its elements are not synchronised; touch
// them only from tasks running on the page's Loop.
type Page struct {
	elements map[string]Element
	location Location
}

// NewPage creates a page navigating through location. A nil location records
// assignments in a History.
func NewPage(location Location) *Page {
	if location == nil {
		location = &History{}
	}
	return &Page{
		elements: make(map[string]Element),
		location: location,
	}
}

// Register adds elements to the page. Registering a duplicate id panics.
func (p *Page) Register(elements ...Element) *Page {
	for _, el := range elements {
		id := el.ID()
		if _, exists := p.elements[id]; exists {
			panic(fmt.Sprintf("ui: duplicate element id %q", id))
		}
		p.elements[id] = el
	}
	return p
}

// ElementByID implements Document.
func (p *Page) ElementByID(id string) (Element, bool) {
	el, ok := p.elements[id]
	return el, ok
}

// Location implements Document.
func (p *Page) Location() Location {
	return p.location
}

// Dispatch fires eventType on the element with the given id and returns the
// event, or nil when no such target exists or a disabled control ignored it.
func (p *Page) Dispatch(id, eventType string) *Event {
	el, ok := p.elements[id]
	if !ok {
		return nil
	}
	target, ok := el.(dispatcher)
	if !ok {
		return nil
	}
	return target.dispatch(eventType)
}

type dispatcher interface {
	dispatch(eventType string) *Event
}

type listeners struct {
	id string
	on map[string][]Listener
}

func (l *listeners) ID() string {
	return l.id
}

func (l *listeners) AddEventListener(eventType string, listener Listener) {
	if listener == nil {
		return
	}
	if l.on == nil {
		l.on = make(map[string][]Listener)
	}
	l.on[eventType] = append(l.on[eventType], listener)
}

func (l *listeners) dispatch(eventType string) *Event {
	ev := NewEvent(eventType, l.id)
	for _, listener := range l.on[eventType] {
		listener(ev)
	}
	return ev
}

// Form is a submit event target. Submissions counts submits whose default
// action was not prevented, i.e. those a browser would have sent itself.
type Form struct {
	listeners
	Submissions int
}

// NewForm creates a form element.
func NewForm(id string) *Form {
	return &Form{listeners: listeners{id: id}}
}

// Submit dispatches a submit event.
func (f *Form) Submit() *Event {
	ev := f.listeners.dispatch(EventSubmit)
	if !ev.DefaultPrevented() {
		f.Submissions++
	}
	return ev
}

func (f *Form) dispatch(eventType string) *Event {
	if eventType == EventSubmit {
		return f.Submit()
	}
	return f.listeners.dispatch(eventType)
}

// Button is a clickable control. A button created with a form submits it when
// clicked; a disabled button ignores clicks.
type Button struct {
	listeners
	form     *Form
	disabled bool
}

// NewButton creates a plain button.
func NewButton(id string) *Button {
	return &Button{listeners: listeners{id: id}}
}

// NewSubmitButton creates a button that submits form on click.
func NewSubmitButton(id string, form *Form) *Button {
	return &Button{listeners: listeners{id: id}, form: form}
}

// SetDisabled implements Control.
func (b *Button) SetDisabled(disabled bool) {
	b.disabled = disabled
}

// Disabled implements Control.
func (b *Button) Disabled() bool {
	return b.disabled
}

// Click activates the button and reports whether the click was accepted.
func (b *Button) Click() bool {
	if b.disabled {
		return false
	}
	b.click()
	return true
}

func (b *Button) click() *Event {
	ev := b.listeners.dispatch(EventClick)
	if b.form != nil && !ev.DefaultPrevented() {
		b.form.Submit()
	}
	return ev
}

func (b *Button) dispatch(eventType string) *Event {
	if eventType != EventClick {
		return b.listeners.dispatch(eventType)
	}
	if b.disabled {
		return nil
	}
	return b.click()
}

// Input is a text field.
type Input struct {
	id    string
	value string
}

// NewInput creates a text field with an initial value.
func NewInput(id, value string) *Input {
	return &Input{id: id, value: value}
}

// ID implements Element.
func (i *Input) ID() string {
	return i.id
}

// Value implements ValueSource.
func (i *Input) Value() string {
	return i.value
}

// SetValue replaces the field content.
func (i *Input) SetValue(value string) {
	i.value = value
}

// Modal is an overlay that starts hidden.
type Modal struct {
	id      string
	visible bool
}

// NewModal creates a hidden modal.
func NewModal(id string) *Modal {
	return &Modal{id: id}
}

// ID implements Element.
func (m *Modal) ID() string {
	return m.id
}

// Show implements Visibility.
func (m *Modal) Show() {
	m.visible = true
}

// Hide implements Visibility.
func (m *Modal) Hide() {
	m.visible = false
}

// Visible implements Visibility.
func (m *Modal) Visible() bool {
	return m.visible
}

// Text is a region holding plain text.
type Text struct {
	id   string
	text string
}

// NewText creates an empty text region.
func NewText(id string) *Text {
	return &Text{id: id}
}

// ID implements Element.
func (t *Text) ID() string {
	return t.id
}

// SetText implements TextSink.
func (t *Text) SetText(text string) {
	t.text = text
}

// Text implements TextSink.
func (t *Text) Text() string {
	return t.text
}

// History is a Location that records every assignment.
type History struct {
	mu      sync.Mutex
	entries []string
}

// Assign implements Location.
func (h *History) Assign(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, url)
}

// Entries returns a copy of the assigned URLs in order.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
