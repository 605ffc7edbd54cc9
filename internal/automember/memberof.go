package automember

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/filter"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
)

// synthesizeMemberOf attaches the DNs of every group whose source attribute
// holds the entry's uid.
func (o *Overlay) synthesizeMemberOf(ctx context.Context, logger logging.Logger, snap *Snapshot, op *overlay.Operation, rep *overlay.Reply, force bool) {
	e := rep.Entry
	attr := snap.MemberOf.String()

	if e.Has(snap.MemberOf) {
		return
	}
	requested := o.classifier.Requested(requestedAttributes(op), snap.MemberOf, snap.UID)
	if !force && !requested[0] {
		return
	}

	uids := e.Values(snap.UID)
	if len(uids) == 0 && !requested[1] {
		fetched, err := o.host.EntryGet(ctx, e.DN, snap.Reverse.Class, snap.UID)
		if err != nil && !errors.Is(err, backend.ErrEntryNotFound) {
			logger.Error("uid read failed", "dn", e.DN, "error", err.Error())
			o.metrics.recordSkipped(attr, reasonReadFailed)
			return
		}
		if fetched != nil {
			uids = fetched.Values(snap.UID)
		}
	}

	switch {
	case len(uids) == 0:
		logger.Info("entry has no uid, memberOf not synthesized", "dn", e.DN, "attribute", snap.UID.String())
		o.metrics.recordSkipped(attr, reasonNoUID)
		return
	case len(uids) > 1:
		logger.Warn("entry has more than one uid, memberOf not synthesized", "dn", e.DN, "values", len(uids))
		o.metrics.recordSkipped(attr, reasonMultipleUID)
		return
	}

	groups, err := o.findGroups(ctx, snap, uids[0])
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		logger.Error("group lookup failed", "dn", e.DN, "uid", uids[0], "error", err.Error())
		o.metrics.recordSkipped(attr, reasonQueryFailed)
		return
	}
	o.metrics.recordSubquery(len(groups))

	if len(groups) == 0 {
		logger.Debug("entry belongs to no group", "dn", e.DN, "uid", uids[0])
		o.metrics.recordSkipped(attr, reasonNoMatches)
		return
	}

	rep.EnsureModifiable().MergeAttribute(snap.MemberOf.Key(), groups...)
	o.metrics.recordSynthesized(attr)
	logger.Debug("memberOf synthesized", "dn", e.DN, "groups", len(groups))
}

// MemberFilter returns the filter matching groups of class forward whose
// source attribute holds uid.
func MemberFilter(snap *Snapshot, uid string) string {
	return fmt.Sprintf("(&(objectClass=%s)(%s=%s))",
		snap.Forward.Class.String(), snap.Source.String(), filter.EscapeValue(uid))
}

// findGroups searches the whole database for groups listing uid. The
// search returns DNs only and bypasses the entry cache.
func (o *Overlay) findGroups(ctx context.Context, snap *Snapshot, uid string) ([]string, error) {
	text := MemberFilter(snap, uid)
	ctx, span := o.tracer.Start(ctx, "automember.findGroups",
		trace.WithAttributes(
			attribute.String("ldap.base", o.host.Suffix()),
			attribute.String("ldap.filter", text),
		),
	)
	defer span.End()

	f, err := filter.Parse(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "filter rejected")
		return nil, err
	}

	dns, err := o.host.SearchDNs(ctx, &backend.SearchRequest{
		BaseDN:     o.host.Suffix(),
		Scope:      backend.ScopeSubtree,
		Filter:     f,
		Attributes: []string{backend.NoAttributes},
		NoCache:    true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subtree search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("ldap.entries", len(dns)))
	return dns, nil
}
