package automember

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
)

// synthesizeMember expands the group's source values through the template
// and attaches them as member values. Values that fail to expand are
// skipped; whatever expanded is attached.
func (o *Overlay) synthesizeMember(ctx context.Context, logger logging.Logger, snap *Snapshot, op *overlay.Operation, rep *overlay.Reply, force bool) {
	e := rep.Entry
	attr := snap.Member.String()

	if e.Has(snap.Member) {
		return
	}
	requested := o.classifier.Requested(requestedAttributes(op), snap.Member, snap.Source)
	if !force && !requested[0] {
		return
	}

	var values []string
	if requested[1] {
		values = e.Values(snap.Source)
	} else {
		fetched, err := o.readSource(ctx, e.DN, snap)
		if err != nil {
			if errors.Is(err, backend.ErrEntryNotFound) {
				logger.Debug("group vanished before source read", "dn", e.DN)
			} else {
				logger.Error("source read failed", "dn", e.DN, "attribute", snap.Source.String(), "error", err.Error())
			}
			o.metrics.recordSkipped(attr, reasonReadFailed)
			return
		}
		values = fetched.Values(snap.Source)
	}

	if len(values) == 0 {
		logger.Debug("nothing to synthesize", "dn", e.DN, "attribute", snap.Source.String())
		o.metrics.recordSkipped(attr, reasonNoSource)
		return
	}

	produced := make([]string, 0, len(values))
	for _, v := range values {
		out, err := snap.Template.Expand(v)
		if err != nil {
			logger.Error("template expansion failed", "dn", e.DN, "value", v, "error", err.Error())
			continue
		}
		produced = append(produced, out)
	}

	if len(produced) == 0 {
		logger.Warn("no values synthesized", "dn", e.DN, "values", len(values))
		o.metrics.recordSkipped(attr, reasonExpandFailed)
		return
	}
	if len(produced) < len(values) {
		logger.Warn("synthesized fewer values than source", "dn", e.DN, "values", len(values), "produced", len(produced))
	}

	rep.EnsureModifiable().MergeAttribute(snap.Member.Key(), produced...)
	o.metrics.recordSynthesized(attr)
	logger.Debug("member synthesized", "dn", e.DN, "produced", len(produced))
}

// readSource point-reads the group's source attribute when the caller did
// not request it, so the fetched values never reach the response.
func (o *Overlay) readSource(ctx context.Context, dn string, snap *Snapshot) (*backend.Entry, error) {
	ctx, span := o.tracer.Start(ctx, "automember.readSource",
		trace.WithAttributes(
			attribute.String("ldap.dn", dn),
			attribute.String("ldap.attribute", snap.Source.String()),
		),
	)
	defer span.End()

	e, err := o.host.EntryGet(ctx, dn, snap.Forward.Class, snap.Source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "point read failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("ldap.values", len(e.Values(snap.Source))))
	return e, nil
}
