// Package ldif reads and writes directory entries in the LDAP Data
// Interchange Format (RFC 2849).
//
// Only content records are supported: a "dn:" line followed by attribute
// lines, records separated by blank lines. Values that are not safe as
// plain text are written base64 encoded ("attr:: ...") and long lines are
// folded at 76 columns.
//
// # Reading
//
//	entries, err := ldif.Parse(f)
//
// # Writing
//
//	err := ldif.Write(os.Stdout, entries...)
//
// # Importing
//
// Import adds each parsed entry through a backend, so schema checks and
// operational attributes apply:
//
//	n, err := ldif.Import(ctx, be, f, "cn=admin,dc=example,dc=com")
package ldif
