package automember

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// Name is the overlay name used when stacking it on a database.
const Name = "automember"

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		tracer = otel.Tracer("github.com/KilimcininKorOglu/automember/internal/automember")
	})
	return tracer
}

// PointReader fetches a single entry, bypassing caches.
type PointReader interface {
	// EntryGet returns the entry named dn if it is of class oc, with only
	// the values of at. It returns backend.ErrEntryNotFound otherwise.
	EntryGet(ctx context.Context, dn string, oc *schema.ObjectClass, at *schema.AttributeType) (*backend.Entry, error)
}

// SubtreeSearcher runs internal searches with unrestricted visibility.
type SubtreeSearcher interface {
	// SearchDNs returns the DNs of the entries matching req in discovery
	// order.
	SearchDNs(ctx context.Context, req *backend.SearchRequest) ([]string, error)
}

// Host is the database the overlay is stacked on.
type Host interface {
	PointReader
	SubtreeSearcher
	Suffix() string
	Schema() *schema.Schema
}

// Overlay synthesizes member values on groups and memberOf values on
// accounts as search results pass through a database.
type Overlay struct {
	host       Host
	schema     *schema.Schema
	classifier *Classifier
	logger     logging.Logger
	metrics    *Metrics
	tracer     trace.Tracer

	snapshot atomic.Pointer[Snapshot]

	// configMu serializes read-modify-write of the snapshot.
	configMu sync.Mutex
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithLogger sets the overlay logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Overlay) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records synthesis outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Overlay) {
		o.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Overlay) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New creates an unconfigured overlay for host. It stays inert until a
// member object class is configured.
func New(host Host, opts ...Option) *Overlay {
	o := &Overlay{
		host:   host,
		schema: host.Schema(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracer == nil {
		o.tracer = getTracer()
	}
	o.logger = o.logger.WithFields("component", Name)
	o.classifier = NewClassifier(o.schema)

	snap, err := resolve(o.schema, Config{})
	if err != nil {
		// Default attributes are missing from the schema; Initialize was
		// not run. Configure reports the same error.
		o.logger.Warn("default attributes unresolved", "error", err.Error())
	} else {
		o.snapshot.Store(snap)
	}
	return o
}

// Name returns the overlay name.
func (o *Overlay) Name() string {
	return Name
}

// Snapshot returns the active configuration, or nil if none resolved.
func (o *Overlay) Snapshot() *Snapshot {
	return o.snapshot.Load()
}

// Configure applies one directive line, e.g.
// `automember-synth-template "uid={},ou=People,dc=example,dc=com"`.
// Blank lines and lines starting with # are ignored.
func (o *Overlay) Configure(line string) error {
	name, args, err := SplitDirective(line)
	if err != nil {
		return err
	}
	if name == "" || name[0] == '#' {
		return nil
	}
	return o.SetDirective(name, args...)
}

// SetDirective applies one directive. On error the active configuration is
// left untouched.
func (o *Overlay) SetDirective(name string, args ...string) error {
	o.configMu.Lock()
	defer o.configMu.Unlock()

	var cfg Config
	if cur := o.snapshot.Load(); cur != nil {
		cfg = cur.config
	}
	cfg, err := setDirective(cfg, name, args)
	if err != nil {
		return err
	}
	return o.install(cfg)
}

// Apply replaces the whole configuration atomically.
func (o *Overlay) Apply(cfg Config) error {
	o.configMu.Lock()
	defer o.configMu.Unlock()
	return o.install(cfg)
}

func (o *Overlay) install(cfg Config) error {
	snap, err := resolve(o.schema, cfg)
	if err != nil {
		return err
	}
	if snap.Reverse.Enabled() && !snap.Forward.Enabled() {
		o.logger.Warn("memberOf synthesis needs a member object class; reverse synthesis disabled until one is set",
			"memberOfObjectClass", snap.Reverse.Class.String())
	}
	o.snapshot.Store(snap)
	o.logger.Debug("configuration installed", "directives", len(o.Directives()))
	return nil
}

// Directives renders the active configuration as directive lines. Settings
// at their default are omitted.
func (o *Overlay) Directives() []string {
	snap := o.snapshot.Load()
	if snap == nil {
		return nil
	}
	cfg := snap.config

	var lines []string
	add := func(directive, value, def string) {
		if value != "" && value != def {
			lines = append(lines, directive+" "+quoteArg(value))
		}
	}
	add(DirectiveMemberObjectClass, cfg.MemberObjectClass, "")
	add(DirectiveSynthTemplate, cfg.SynthTemplate, DefaultTemplate)
	add(DirectiveMemberOfObjectClass, cfg.MemberOfObjectClass, "")
	add(DirectiveSourceAttribute, cfg.SourceAttribute, DefaultSourceAttribute)
	add(DirectiveMemberAttribute, cfg.MemberAttribute, DefaultMemberAttribute)
	add(DirectiveMemberOfAttribute, cfg.MemberOfAttribute, DefaultMemberOfAttribute)
	add(DirectiveUIDAttribute, cfg.UIDAttribute, DefaultUIDAttribute)
	add(DirectiveMode, cfg.Mode.String(), ModeResponse.String())
	return lines
}

// Search installs a forcing observer ahead of the operation's other
// observers when search mode is active.
func (o *Overlay) Search(_ context.Context, op *overlay.Operation) error {
	snap := o.snapshot.Load()
	if !snap.configured() || !snap.Mode.search() {
		return nil
	}
	op.PushObserver(overlay.ObserverFunc(func(ctx context.Context, op *overlay.Operation, rep *overlay.Reply) error {
		o.synthesize(ctx, snap, op, rep, true)
		return nil
	}))
	return nil
}

// Response synthesizes requested attributes when response mode is active.
func (o *Overlay) Response(ctx context.Context, op *overlay.Operation, rep *overlay.Reply) error {
	snap := o.snapshot.Load()
	if !snap.configured() || !snap.Mode.response() {
		return nil
	}
	o.synthesize(ctx, snap, op, rep, false)
	return nil
}

// synthesize routes an entry reply to forward or reverse synthesis by
// object class. Forward takes precedence.
func (o *Overlay) synthesize(ctx context.Context, snap *Snapshot, op *overlay.Operation, rep *overlay.Reply, force bool) {
	if rep.Type != overlay.ReplyEntry || rep.Entry == nil {
		return
	}

	logger := o.logger
	if op.RequestID != "" {
		logger = logger.WithRequestID(op.RequestID)
	}

	switch {
	case rep.Entry.IsA(o.schema, snap.Forward.Class):
		start := time.Now()
		o.synthesizeMember(ctx, logger, snap, op, rep, force)
		o.metrics.recordDuration(snap.Member.String(), time.Since(start).Seconds())
	case snap.Reverse.Enabled() && rep.Entry.IsA(o.schema, snap.Reverse.Class):
		start := time.Now()
		o.synthesizeMemberOf(ctx, logger, snap, op, rep, force)
		o.metrics.recordDuration(snap.MemberOf.String(), time.Since(start).Seconds())
	}
}

// requestedAttributes returns the operation's requested attribute list.
func requestedAttributes(op *overlay.Operation) []string {
	if op == nil || op.Request == nil {
		return nil
	}
	return op.Request.Attributes
}

func (o *Overlay) String() string {
	return fmt.Sprintf("%s(%s)", Name, o.host.Suffix())
}
