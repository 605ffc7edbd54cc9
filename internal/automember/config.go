package automember

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KilimcininKorOglu/automember/internal/schema"
	"github.com/KilimcininKorOglu/automember/internal/template"
)

// Configuration errors.
var (
	// ErrDirectiveArity is returned when a directive has the wrong number
	// of arguments.
	ErrDirectiveArity = errors.New("automember: wrong number of arguments")
	// ErrUnknownObjectClass is returned for an object class the schema
	// does not define.
	ErrUnknownObjectClass = errors.New("automember: unknown object class")
	// ErrUnknownAttribute is returned for an attribute type the schema
	// does not define.
	ErrUnknownAttribute = errors.New("automember: unknown attribute type")
	// ErrUnknownDirective is returned for a directive this overlay does
	// not handle.
	ErrUnknownDirective = errors.New("automember: unknown directive")
	// ErrUnknownMode is returned for an invocation mode other than
	// response, search or both.
	ErrUnknownMode = errors.New("automember: unknown mode")
)

// Directive names.
const (
	DirectiveMemberObjectClass   = "automember-member-objectclass"
	DirectiveSynthTemplate       = "automember-synth-template"
	DirectiveMemberOfObjectClass = "automember-memberof-objectclass"
	DirectiveSourceAttribute     = "automember-source-attribute"
	DirectiveMemberAttribute     = "automember-member-attribute"
	DirectiveMemberOfAttribute   = "automember-memberof-attribute"
	DirectiveUIDAttribute        = "automember-uid-attribute"
	DirectiveMode                = "automember-mode"
)

// Attribute defaults.
const (
	DefaultTemplate          = template.Placeholder
	DefaultSourceAttribute   = "memberUid"
	DefaultMemberAttribute   = "member"
	DefaultMemberOfAttribute = "memberOf"
	DefaultUIDAttribute      = "uid"
)

// Mode selects where the overlay hooks into a search.
type Mode int

const (
	// ModeResponse synthesizes in the response hook, only for requested
	// attributes.
	ModeResponse Mode = iota
	// ModeSearch installs an observer ahead of the backend and always
	// synthesizes.
	ModeSearch
	// ModeBoth enables both hooks.
	ModeBoth
)

// String returns the directive spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeResponse:
		return "response"
	case ModeSearch:
		return "search"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode parses "response", "search" or "both". Empty selects
// ModeResponse.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "response":
		return ModeResponse, nil
	case "search":
		return ModeSearch, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeResponse, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) response() bool { return m == ModeResponse || m == ModeBoth }
func (m Mode) search() bool   { return m == ModeSearch || m == ModeBoth }

// Config is the operator-facing configuration, by name. Empty fields take
// their defaults; empty object classes leave the matching gate disabled.
type Config struct {
	MemberObjectClass   string
	SynthTemplate       string
	MemberOfObjectClass string
	SourceAttribute     string
	MemberAttribute     string
	MemberOfAttribute   string
	UIDAttribute        string
	Mode                Mode
}

// Gate enables one synthesis behavior for entries of Class or a subclass.
type Gate struct {
	Class *schema.ObjectClass
}

// Enabled reports whether the gate has a class.
func (g Gate) Enabled() bool {
	return g.Class != nil
}

// Snapshot is a resolved, immutable configuration. Handles are resolved
// once against the schema and compared by identity afterwards.
type Snapshot struct {
	Forward  Gate
	Reverse  Gate
	Template *template.Template
	Source   *schema.AttributeType
	Member   *schema.AttributeType
	MemberOf *schema.AttributeType
	UID      *schema.AttributeType
	Mode     Mode

	config Config
}

// Config returns the configuration the snapshot was resolved from.
func (s *Snapshot) Config() Config {
	return s.config
}

// configured reports whether forward synthesis, and with it the overlay,
// is active.
func (s *Snapshot) configured() bool {
	return s != nil && s.Forward.Enabled() && s.Template != nil
}

// resolve validates cfg against sch and builds its snapshot.
func resolve(sch *schema.Schema, cfg Config) (*Snapshot, error) {
	snap := &Snapshot{Mode: cfg.Mode, config: cfg}

	if cfg.Mode < ModeResponse || cfg.Mode > ModeBoth {
		return nil, fmt.Errorf("%s: %w: %d", DirectiveMode, ErrUnknownMode, cfg.Mode)
	}

	var err error
	if snap.Forward.Class, err = objectClass(sch, DirectiveMemberObjectClass, cfg.MemberObjectClass); err != nil {
		return nil, err
	}
	if snap.Reverse.Class, err = objectClass(sch, DirectiveMemberOfObjectClass, cfg.MemberOfObjectClass); err != nil {
		return nil, err
	}

	tmpl := cfg.SynthTemplate
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	snap.Template = template.Parse(tmpl)

	for _, a := range []struct {
		directive string
		name      string
		def       string
		dst       **schema.AttributeType
	}{
		{DirectiveSourceAttribute, cfg.SourceAttribute, DefaultSourceAttribute, &snap.Source},
		{DirectiveMemberAttribute, cfg.MemberAttribute, DefaultMemberAttribute, &snap.Member},
		{DirectiveMemberOfAttribute, cfg.MemberOfAttribute, DefaultMemberOfAttribute, &snap.MemberOf},
		{DirectiveUIDAttribute, cfg.UIDAttribute, DefaultUIDAttribute, &snap.UID},
	} {
		name := a.name
		if name == "" {
			name = a.def
		}
		at := sch.GetAttributeType(name)
		if at == nil {
			return nil, fmt.Errorf("%s: %w: %q", a.directive, ErrUnknownAttribute, name)
		}
		*a.dst = at
	}

	return snap, nil
}

func objectClass(sch *schema.Schema, directive, name string) (*schema.ObjectClass, error) {
	if name == "" {
		return nil, nil
	}
	oc := sch.GetObjectClass(name)
	if oc == nil {
		return nil, fmt.Errorf("%s: %w: %q", directive, ErrUnknownObjectClass, name)
	}
	return oc, nil
}

// WithDirective returns c with one directive line applied. Blank lines and
// comments leave c unchanged.
func (c Config) WithDirective(line string) (Config, error) {
	name, args, err := SplitDirective(line)
	if err != nil {
		return c, err
	}
	if name == "" || name[0] == '#' {
		return c, nil
	}
	return setDirective(c, name, args)
}

// Check resolves cfg against sch without installing it.
func Check(sch *schema.Schema, cfg Config) error {
	_, err := resolve(sch, cfg)
	return err
}

// setDirective returns cfg with one directive applied.
func setDirective(cfg Config, name string, args []string) (Config, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	if len(args) != 1 {
		switch name {
		case DirectiveMemberObjectClass, DirectiveSynthTemplate, DirectiveMemberOfObjectClass,
			DirectiveSourceAttribute, DirectiveMemberAttribute, DirectiveMemberOfAttribute,
			DirectiveUIDAttribute, DirectiveMode:
			return cfg, fmt.Errorf("%s: %w: want 1, got %d", name, ErrDirectiveArity, len(args))
		}
	}

	switch name {
	case DirectiveMemberObjectClass:
		cfg.MemberObjectClass = args[0]
	case DirectiveSynthTemplate:
		cfg.SynthTemplate = args[0]
	case DirectiveMemberOfObjectClass:
		cfg.MemberOfObjectClass = args[0]
	case DirectiveSourceAttribute:
		cfg.SourceAttribute = args[0]
	case DirectiveMemberAttribute:
		cfg.MemberAttribute = args[0]
	case DirectiveMemberOfAttribute:
		cfg.MemberOfAttribute = args[0]
	case DirectiveUIDAttribute:
		cfg.UIDAttribute = args[0]
	case DirectiveMode:
		mode, err := ParseMode(args[0])
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		cfg.Mode = mode
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownDirective, name)
	}
	return cfg, nil
}

// SplitDirective splits a configuration line into a directive name and its
// arguments. Arguments may be double-quoted to embed spaces; a backslash
// escapes the next character inside quotes.
func SplitDirective(line string) (string, []string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, escaped, have := false, false, false

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			have = true
		case !inQuote && (r == ' ' || r == '\t'):
			if have {
				fields = append(fields, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQuote {
		return "", nil, fmt.Errorf("%w: unterminated quote", ErrDirectiveArity)
	}
	if have {
		fields = append(fields, cur.String())
	}
	if len(fields) == 0 {
		return "", nil, nil
	}
	return fields[0], fields[1:], nil
}

// quoteArg quotes s for a directive line when it needs it.
func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
