// Package automember is a search overlay that derives group membership
// attributes at read time.
//
// Groups of the configured member object class (posixGroup by default
// configurations) store short member identifiers in memberUid. On the way
// out each identifier is expanded through a template into a member DN:
//
//	automember-member-objectclass posixGroup
//	automember-synth-template "uid={},ou=People,dc=example,dc=com"
//
// Entries of the memberOf object class get a memberOf attribute listing
// every group whose memberUid holds their uid:
//
//	automember-memberof-objectclass posixAccount
//
// Nothing is stored. Entries owned by the store are copied before the first
// attribute is attached (overlay.Reply.EnsureModifiable). In response mode
// attributes are only synthesized when the search asks for them; in search
// mode an observer ahead of the backend always synthesizes them. Failures
// are logged and leave the entry without the derived attribute; they never
// fail the search.
//
// Initialize must have registered memberOf in the schema before an overlay
// is created.
package automember
