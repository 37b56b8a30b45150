// Package hook publishes the form hook points other modules can attach to.
package hook

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"sync"

	"github.com/formicula/backend/internal/model"
)

// Type is a UI hook type.
type Type string

const (
	DisplayView    Type = "display_view"
	FormEdit       Type = "form_edit"
	ValidateEdit   Type = "validate_edit"
	ProcessEdit    Type = "process_edit"
	ValidateDelete Type = "validate_delete"
	ProcessDelete  Type = "process_delete"
)

// CategoryUIHooks is the hook category of the form subscriber.
const CategoryUIHooks = "ui_hooks"

// ErrUnknownEvent is returned when attaching to an event nobody subscribed.
var ErrUnknownEvent = errors.New("hook: unknown event")

// Subscriber describes a set of hook events published by a module.
type Subscriber interface {
	Owner() string
	Category() string
	Title() string
	Events() map[Type]string
}

// FormUIHooksSubscriber publishes the visitor form hooks.
type FormUIHooksSubscriber struct{}

var _ Subscriber = FormUIHooksSubscriber{}

func (FormUIHooksSubscriber) Owner() string    { return "Formicula" }
func (FormUIHooksSubscriber) Category() string { return CategoryUIHooks }
func (FormUIHooksSubscriber) Title() string    { return "Form ui hooks subscriber" }

// Events maps the subscribed hook types to event names. Only form_edit and
// validate_edit are published.
func (FormUIHooksSubscriber) Events() map[Type]string {
	return map[Type]string{
		FormEdit:     EventName(FormEdit),
		ValidateEdit: EventName(ValidateEdit),
	}
}

// EventName returns the event name of a form hook type.
func EventName(t Type) string {
	return "formicula.ui_hooks.forms." + string(t)
}

// DisplayHook is passed to display handlers.
type DisplayHook struct {
	Event string
	Form  int
}

// DisplayHandler returns markup injected into the form.
type DisplayHandler func(ctx context.Context, h DisplayHook) (template.HTML, error)

// ValidationHook collects field errors from validation handlers.
type ValidationHook struct {
	Event  string
	Form   int
	Values url.Values
	errs   []model.FieldError
}

// AddError records a validation problem.
func (h *ValidationHook) AddError(field, message string) {
	h.errs = append(h.errs, model.FieldError{Field: field, Message: message})
}

// Err returns the collected problems as a *model.ValidationError or nil.
func (h *ValidationHook) Err() error {
	if len(h.errs) == 0 {
		return nil
	}
	return &model.ValidationError{Errors: h.errs}
}

// ValidationHandler inspects the submitted values.
type ValidationHandler func(ctx context.Context, h *ValidationHook) error

// Bus dispatches hook events to attached handlers.
type Bus struct {
	mu         sync.RWMutex
	events     map[string]bool
	displays   map[string][]DisplayHandler
	validators map[string][]ValidationHandler
}

// NewBus creates a bus publishing the events of subs.
func NewBus(subs ...Subscriber) *Bus {
	b := &Bus{
		events:     make(map[string]bool),
		displays:   make(map[string][]DisplayHandler),
		validators: make(map[string][]ValidationHandler),
	}
	for _, s := range subs {
		for _, name := range s.Events() {
			b.events[name] = true
		}
	}
	return b
}

// Events returns the published event names, sorted.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.events))
	for name := range b.events {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OnDisplay attaches h to event.
func (b *Bus) OnDisplay(event string, h DisplayHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.events[event] {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	b.displays[event] = append(b.displays[event], h)
	return nil
}

// OnValidate attaches h to event.
func (b *Bus) OnValidate(event string, h ValidationHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.events[event] {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	b.validators[event] = append(b.validators[event], h)
	return nil
}

// Display runs the display handlers of hook.Event and returns their markup
// in attach order.
func (b *Bus) Display(ctx context.Context, hook DisplayHook) ([]template.HTML, error) {
	b.mu.RLock()
	handlers := append([]DisplayHandler(nil), b.displays[hook.Event]...)
	b.mu.RUnlock()

	var out []template.HTML
	for _, h := range handlers {
		html, err := h(ctx, hook)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

// Validate runs the validation handlers of hook.Event. Handler errors abort;
// field problems are reported through hook.Err.
func (b *Bus) Validate(ctx context.Context, hook *ValidationHook) error {
	b.mu.RLock()
	handlers := append([]ValidationHandler(nil), b.validators[hook.Event]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, hook); err != nil {
			return err
		}
	}
	return nil
}
