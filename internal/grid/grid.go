package grid

import (
	"context"
	"fmt"
)

// RenderedRow is one row currently present in the grid's rendered window.
// Cell reads can fail independently of enumeration; a failed read skips
// the row, it never aborts a scan.
type RenderedRow interface {
	// Ordinal returns the stable rendering position, false when the row
	// carries no usable ordinal (decorative or partially rendered rows).
	Ordinal() (int, bool)
	// Cells returns the display strings of the row in rendering order.
	Cells(ctx context.Context) ([]string, error)
	// StyleTokens returns the row's styling class tokens.
	StyleTokens() []string
}

// Accessor is the capability set the core drives a virtualized data grid
// through. No more than a bounded window of rows is ever visible; rows
// repeat across scroll positions.
type Accessor interface {
	// WaitReady blocks until the grid and its filter input are usable.
	WaitReady(ctx context.Context) error
	// SetFilter replaces the grid's filter/search term and waits for the
	// grid to settle.
	SetFilter(ctx context.Context, text string) error
	// Rows enumerates the currently rendered window.
	Rows(ctx context.Context) ([]RenderedRow, error)
	// Scroll moves the viewport down by amount pixels.
	Scroll(ctx context.Context, amount int) error
	Close() error
}

// Factory builds a ready-to-drive Accessor.
type Factory func(ctx context.Context) (Accessor, error)

// Registry keeps a mapping from accessor strategy names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces an accessor factory.
func (r *Registry) Register(name string, f Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = f
}

// Resolve returns a factory by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Factory, error) {
	if f, ok := r.factories[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("grid accessor %s is not registered", name)
}
