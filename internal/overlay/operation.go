package overlay

import (
	"context"

	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// Operation is one search travelling through a Database.
type Operation struct {
	// Request is the search to run. Hooks may adjust it before the
	// backend executes it.
	Request *backend.SearchRequest

	// BindDN is the identity the search runs as.
	BindDN string

	// Root grants unrestricted visibility.
	Root bool

	// RequestID correlates log lines for the operation.
	RequestID string

	observers []Observer
}

// Observer sees every reply of an operation before response hooks run.
// It may replace the reply's entry, typically via Reply.EnsureModifiable.
type Observer interface {
	Observe(ctx context.Context, op *Operation, rep *Reply) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, op *Operation, rep *Reply) error

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, op *Operation, rep *Reply) error {
	return f(ctx, op, rep)
}

// PushObserver installs o ahead of every observer already registered.
func (op *Operation) PushObserver(o Observer) {
	op.observers = append([]Observer{o}, op.observers...)
}

// Observers returns the operation's observers in call order.
func (op *Operation) Observers() []Observer {
	return op.observers
}

// Overlay is a named module stacked on a Database. It takes part in
// searches by implementing SearchHook, ResponseHook or both.
type Overlay interface {
	Name() string
}

// SearchHook runs before the backend executes the search.
type SearchHook interface {
	Search(ctx context.Context, op *Operation) error
}

// ResponseHook runs for every reply after the operation's observers.
type ResponseHook interface {
	Response(ctx context.Context, op *Operation, rep *Reply) error
}
