package ldif

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// LDIF errors.
var (
	ErrInvalidLDIF   = errors.New("ldif: invalid format")
	ErrMissingDN     = errors.New("ldif: missing DN")
	ErrInvalidBase64 = errors.New("ldif: invalid base64 encoding")
	ErrUnsupported   = errors.New("ldif: unsupported record")
	ErrNilReader     = errors.New("ldif: nil reader")
	ErrImportFailed  = errors.New("ldif: import failed")
)

// foldWidth is the maximum line length written before folding.
const foldWidth = 76

// Parse reads every content record from r. Attribute names are stored
// lower-cased and values keep their order of appearance.
func Parse(r io.Reader) ([]*backend.Entry, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		entries []*backend.Entry
		entry   *backend.Entry
		pending string
		lineNo  int
		started bool
	)

	flushLine := func() error {
		if pending == "" {
			return nil
		}
		line := pending
		pending = ""

		attr, value, err := splitLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch {
		case attr == "version" && entry == nil && !started:
			started = true
			return nil
		case attr == "dn":
			if entry != nil {
				return fmt.Errorf("line %d: %w: dn inside record %q", lineNo, ErrInvalidLDIF, entry.DN)
			}
			if value == "" {
				return fmt.Errorf("line %d: %w", lineNo, ErrMissingDN)
			}
			entry = backend.NewEntry(value)
		case entry == nil:
			return fmt.Errorf("line %d: %w", lineNo, ErrMissingDN)
		case attr == "changetype" || attr == "control":
			return fmt.Errorf("line %d: %w: %s", lineNo, ErrUnsupported, attr)
		default:
			entry.AddAttributeValue(attr, value)
		}
		started = true
		return nil
	}

	endRecord := func() {
		if entry != nil {
			entries = append(entries, entry)
			entry = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.HasPrefix(line, " ") {
			if pending == "" {
				return nil, fmt.Errorf("line %d: %w: continuation without a line", lineNo, ErrInvalidLDIF)
			}
			pending += line[1:]
			continue
		}
		if err := flushLine(); err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(line, "#"):
		case line == "":
			endRecord()
		default:
			pending = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLDIF, err)
	}
	if err := flushLine(); err != nil {
		return nil, err
	}
	endRecord()

	return entries, nil
}

// splitLine splits "attr: value", "attr:: base64" and "attr:< url" lines.
// URL values are rejected.
func splitLine(line string) (string, string, error) {
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", fmt.Errorf("%w: missing colon in %q", ErrInvalidLDIF, line)
	}
	attr := strings.ToLower(strings.TrimSpace(line[:colon]))
	if idx := strings.IndexByte(attr, ';'); idx >= 0 && attr[:idx] == "dn" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLDIF, line)
	}
	rest := line[colon+1:]

	switch {
	case strings.HasPrefix(rest, ":"):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest[1:]))
		if err != nil {
			return "", "", fmt.Errorf("%w: %s: %v", ErrInvalidBase64, attr, err)
		}
		return attr, string(decoded), nil
	case strings.HasPrefix(rest, "<"):
		return "", "", fmt.Errorf("%w: URL value for %s", ErrUnsupported, attr)
	default:
		return attr, strings.TrimLeft(rest, " "), nil
	}
}

// Write writes entries as LDIF content records. objectClass comes first,
// the remaining attributes follow in name order.
func Write(w io.Writer, entries ...*backend.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if e == nil {
			continue
		}
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e *backend.Entry) error {
	if err := writeValue(w, "dn", e.DN); err != nil {
		return err
	}
	for _, name := range sortedNames(e) {
		for _, v := range e.Attributes[name] {
			if err := writeValue(w, name, v); err != nil {
				return err
			}
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func writeValue(w *bufio.Writer, attr, value string) error {
	line := attr + ": " + value
	if needsBase64Encoding(value) {
		line = attr + ":: " + base64.StdEncoding.EncodeToString([]byte(value))
	}
	_, err := w.WriteString(fold(line))
	return err
}

// fold breaks line into foldWidth chunks, each continuation starting with a
// single space.
func fold(line string) string {
	if len(line) <= foldWidth {
		return line + "\n"
	}
	var b strings.Builder
	b.WriteString(line[:foldWidth])
	b.WriteByte('\n')
	for rest := line[foldWidth:]; rest != ""; {
		n := min(len(rest), foldWidth-1)
		b.WriteByte(' ')
		b.WriteString(rest[:n])
		b.WriteByte('\n')
		rest = rest[n:]
	}
	return b.String()
}

func sortedNames(e *backend.Entry) []string {
	names := e.AttributeNames()
	sort.Slice(names, func(i, j int) bool {
		if oi, oj := names[i] == "objectclass", names[j] == "objectclass"; oi != oj {
			return oi
		}
		return names[i] < names[j]
	})
	return names
}

// needsBase64Encoding reports whether value cannot be written as a
// SAFE-STRING: it starts with a space, colon or less-than sign, ends with a
// space, or contains a byte outside printable ASCII.
func needsBase64Encoding(value string) bool {
	if value == "" {
		return false
	}
	switch value[0] {
	case ' ', ':', '<':
		return true
	}
	if value[len(value)-1] == ' ' {
		return true
	}
	for i := 0; i < len(value); i++ {
		if b := value[i]; b < 0x20 || b > 0x7E {
			return true
		}
	}
	return false
}

// Adder adds an entry on behalf of bindDN.
type Adder interface {
	Add(ctx context.Context, e *backend.Entry, bindDN string) error
}

// Import parses r and adds each entry through a in file order, returning
// the number of entries added. It stops at the first failing entry.
func Import(ctx context.Context, a Adder, r io.Reader, bindDN string) (int, error) {
	entries, err := Parse(r)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := a.Add(ctx, e, bindDN); err != nil {
			return i, fmt.Errorf("%w: %s: %w", ErrImportFailed, e.DN, err)
		}
	}
	return len(entries), nil
}

// Export writes every entry of store under baseDN, parents before children.
func Export(ctx context.Context, store backend.Store, baseDN string, w io.Writer) (int, error) {
	var entries []*backend.Entry
	err := store.Iterate(ctx, backend.NormalizeDN(baseDN), backend.ScopeSubtree, backend.ReadOptions{NoCache: true},
		func(e *backend.Entry) error {
			entries = append(entries, e)
			return nil
		})
	if err != nil {
		return 0, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return depth(entries[i].DN) < depth(entries[j].DN)
	})
	return len(entries), Write(w, entries...)
}

func depth(dn string) int {
	n := 0
	for parent := backend.NormalizeDN(dn); parent != ""; parent = backend.ParentDN(parent) {
		n++
	}
	return n
}
