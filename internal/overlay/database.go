package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Database errors.
var (
	// ErrInvalidOperation is returned for an operation without a request.
	ErrInvalidOperation = errors.New("overlay: operation has no search request")
	// ErrDuplicateOverlay is returned when an overlay name is stacked twice.
	ErrDuplicateOverlay = errors.New("overlay: overlay already stacked")
)

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		tracer = otel.Tracer("github.com/KilimcininKorOglu/automember/internal/overlay")
	})
	return tracer
}

// AccessChecker decides whether a non-root operation may see an entry.
type AccessChecker interface {
	CanRead(bindDN, targetDN string) bool
}

// Sink receives every reply that survived the pipeline, ending with the
// ReplyDone reply.
type Sink func(rep *Reply) error

// Database is one naming context: a backend with an ordered stack of
// overlays in front of it.
type Database struct {
	suffix  string
	backend *backend.Backend
	access  AccessChecker
	logger  logging.Logger

	mu       sync.RWMutex
	overlays []Overlay
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the database logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithAccessChecker filters entries returned to non-root operations.
func WithAccessChecker(a AccessChecker) Option {
	return func(d *Database) {
		d.access = a
	}
}

// NewDatabase creates a Database serving suffix from be.
func NewDatabase(suffix string, be *backend.Backend, opts ...Option) *Database {
	d := &Database{
		suffix:  suffix,
		backend: be,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithFields("component", "database", "suffix", suffix)
	return d
}

// Suffix returns the database's naming context.
func (d *Database) Suffix() string {
	return d.suffix
}

// Backend returns the backend behind the overlay stack.
func (d *Database) Backend() *backend.Backend {
	return d.backend
}

// Schema returns the backend's schema.
func (d *Database) Schema() *schema.Schema {
	return d.backend.Schema()
}

// Use stacks o on top of the overlays already in use. Hooks run in the
// order overlays were stacked.
func (d *Database) Use(o Overlay) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.overlays {
		if existing.Name() == o.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateOverlay, o.Name())
		}
	}
	d.overlays = append(d.overlays, o)
	return nil
}

// Overlays returns the stacked overlays.
func (d *Database) Overlays() []Overlay {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Overlay(nil), d.overlays...)
}

// Search runs op through the overlay stack. Search hooks run first, then the
// backend emits entries in store order. Each entry passes the operation's
// observers and every response hook whole, is projected onto the requested
// attributes, reaches sink, and is released after sink returns. A final
// ReplyDone carries the search outcome.
func (d *Database) Search(ctx context.Context, op *Operation, sink Sink) error {
	if op == nil || op.Request == nil {
		return ErrInvalidOperation
	}

	ctx, span := getTracer().Start(ctx, "overlay.Database.Search",
		trace.WithAttributes(
			attribute.String("ldap.base", op.Request.BaseDN),
			attribute.String("ldap.scope", op.Request.Scope.String()),
			attribute.Bool("ldap.root", op.Root),
		),
	)
	defer span.End()

	logger := d.logger
	if op.RequestID != "" {
		logger = logger.WithRequestID(op.RequestID)
	}

	stack := d.Overlays()
	for _, o := range stack {
		hook, ok := o.(SearchHook)
		if !ok {
			continue
		}
		if err := hook.Search(ctx, op); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search hook failed")
			return fmt.Errorf("overlay %s: %w", o.Name(), err)
		}
	}

	selector := backend.NewAttributeSelector(d.Schema(), op.Request.Attributes)
	fetch := *op.Request
	fetch.Attributes = []string{backend.AllUserAttributes, backend.AllOperationalAttributes}

	sent := 0
	err := d.backend.Search(ctx, &fetch, func(e *backend.Entry, shared bool) error {
		if !op.Root && d.access != nil && !d.access.CanRead(op.BindDN, e.DN) {
			return nil
		}
		sent++
		return d.dispatch(ctx, op, stack, selector, NewEntryReply(e, shared), sink)
	})

	done := &Reply{Type: ReplyDone, Err: err}
	if derr := d.dispatch(ctx, op, stack, selector, done, sink); derr != nil && err == nil {
		err = derr
	}

	span.SetAttributes(attribute.Int("ldap.entries", sent))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		logger.Debug("search finished with error", "base", op.Request.BaseDN, "entries", sent, "error", err.Error())
		return err
	}

	logger.Debug("search finished", "base", op.Request.BaseDN, "entries", sent)
	return nil
}

func (d *Database) dispatch(ctx context.Context, op *Operation, stack []Overlay, sel *backend.AttributeSelector, rep *Reply, sink Sink) error {
	defer rep.Release()

	for _, o := range op.observers {
		if err := o.Observe(ctx, op, rep); err != nil {
			return err
		}
	}
	for _, o := range stack {
		hook, ok := o.(ResponseHook)
		if !ok {
			continue
		}
		if err := hook.Response(ctx, op, rep); err != nil {
			return fmt.Errorf("overlay %s: %w", o.Name(), err)
		}
	}
	if sink == nil {
		return nil
	}
	rep.project(sel)
	return sink(rep)
}

// EntryGet reads one entry straight from the backend, bypassing overlays
// and the entry cache.
func (d *Database) EntryGet(ctx context.Context, dn string, oc *schema.ObjectClass, at *schema.AttributeType) (*backend.Entry, error) {
	return d.backend.EntryGet(ctx, dn, oc, at)
}

// SearchDNs runs req straight against the backend with unrestricted
// visibility and returns the DNs of matching entries in discovery order.
func (d *Database) SearchDNs(ctx context.Context, req *backend.SearchRequest) ([]string, error) {
	var dns []string
	err := d.backend.Search(ctx, req, func(e *backend.Entry, _ bool) error {
		dns = append(dns, e.DN)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dns, nil
}
