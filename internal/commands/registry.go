// Package commands is an explicit action table: each action id maps to a
// handler and an availability check.
package commands

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by Execute.
var (
	ErrUnknown     = errors.New("unknown command")
	ErrUnavailable = errors.New("command not available")
)

// Action describes one command. Handler results are passed back to the caller
// of Execute; actions with no result return the zero value.
type Action[T any] struct {
	ID          string
	Label       string
	Description string
	Section     string
	Shortcut    string // key shown next to the label, e.g. "g"
	Icon        string // Nerd Font glyph
	Handler     func() (T, error)
	Available   func() bool
	Checked     func() bool // toggles only
}

// IsAvailable reports whether the action can run now.
func (a Action[T]) IsAvailable() bool {
	return a.Handler != nil && (a.Available == nil || a.Available())
}

// IsChecked reports the state of a toggle action.
func (a Action[T]) IsChecked() bool {
	return a.Checked != nil && a.Checked()
}

// Registry stores actions in registration order.
type Registry[T any] struct {
	actions []Action[T]
	byID    map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{byID: make(map[string]int)}
}

// Register adds actions. Registering an existing id replaces it in place.
func (r *Registry[T]) Register(actions ...Action[T]) {
	for _, action := range actions {
		if idx, ok := r.byID[action.ID]; ok && action.ID != "" {
			r.actions[idx] = action
			continue
		}
		r.actions = append(r.actions, action)
		if action.ID != "" {
			r.byID[action.ID] = len(r.actions) - 1
		}
	}
}

// Actions returns the registered actions in order.
func (r *Registry[T]) Actions() []Action[T] {
	return append([]Action[T](nil), r.actions...)
}

// Get returns the action with id.
func (r *Registry[T]) Get(id string) (Action[T], bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Action[T]{}, false
	}
	return r.actions[idx], true
}

// CanExecute reports whether id exists and is available.
func (r *Registry[T]) CanExecute(id string) bool {
	action, ok := r.Get(id)
	return ok && action.IsAvailable()
}

// Execute runs the handler for id.
func (r *Registry[T]) Execute(id string) (T, error) {
	var zero T
	action, ok := r.Get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	if !action.IsAvailable() {
		return zero, fmt.Errorf("%w: %s", ErrUnavailable, id)
	}
	return action.Handler()
}

// ByShortcut returns the action bound to key.
func (r *Registry[T]) ByShortcut(key string) (Action[T], bool) {
	for _, action := range r.actions {
		if action.Shortcut != "" && action.Shortcut == key {
			return action, true
		}
	}
	return Action[T]{}, false
}

// Search returns the actions whose label or description contains every
// whitespace separated term of query, case-insensitively.
func (r *Registry[T]) Search(query string) []Action[T] {
	terms := strings.Fields(strings.ToLower(query))
	var out []Action[T]
	for _, action := range r.actions {
		text := strings.ToLower(action.Label + " " + action.Description + " " + action.ID)
		match := true
		for _, term := range terms {
			if !strings.Contains(text, term) {
				match = false
				break
			}
		}
		if match {
			out = append(out, action)
		}
	}
	return out
}
