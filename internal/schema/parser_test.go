package schema

import "testing"

func TestParseObjectClass(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOID  string
		wantName string
		wantKind ObjectClassKind
		wantMust []string
		wantMay  []string
		wantSup  string
		wantErr  bool
	}{
		{
			name:     "simple object class",
			input:    "( 2.5.6.0 NAME 'top' ABSTRACT MUST objectClass )",
			wantOID:  "2.5.6.0",
			wantName: "top",
			wantKind: ObjectClassAbstract,
			wantMust: []string{"objectClass"},
			wantMay:  []string{},
		},
		{
			name:     "structural with superior",
			input:    "( 2.5.6.6 NAME 'person' SUP top STRUCTURAL MUST ( sn $ cn ) MAY ( userPassword $ telephoneNumber ) )",
			wantOID:  "2.5.6.6",
			wantName: "person",
			wantKind: ObjectClassStructural,
			wantMust: []string{"sn", "cn"},
			wantMay:  []string{"userPassword", "telephoneNumber"},
			wantSup:  "top",
		},
		{
			name:     "auxiliary class",
			input:    "( 1.3.6.1.4.1.1466.344 NAME 'dcObject' SUP top AUXILIARY MUST dc )",
			wantOID:  "1.3.6.1.4.1.1466.344",
			wantName: "dcObject",
			wantKind: ObjectClassAuxiliary,
			wantMust: []string{"dc"},
			wantMay:  []string{},
			wantSup:  "top",
		},
		{
			name:     "multiple names",
			input:    "( 2.5.6.1 NAME ( 'alias' 'aliasObject' ) SUP top STRUCTURAL MUST aliasedObjectName )",
			wantOID:  "2.5.6.1",
			wantName: "alias",
			wantKind: ObjectClassStructural,
			wantMust: []string{"aliasedObjectName"},
			wantMay:  []string{},
			wantSup:  "top",
		},
		{
			name:    "invalid - no parentheses",
			input:   "2.5.6.0 NAME 'top' ABSTRACT",
			wantErr: true,
		},
		{
			name:    "invalid - empty",
			input:   "()",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oc, err := parseObjectClass(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if oc.OID != tt.wantOID {
				t.Errorf("OID = %q, want %q", oc.OID, tt.wantOID)
			}
			if oc.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", oc.Name, tt.wantName)
			}
			if oc.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", oc.Kind, tt.wantKind)
			}
			if oc.Superior != tt.wantSup {
				t.Errorf("Superior = %q, want %q", oc.Superior, tt.wantSup)
			}
			if !stringSliceEqual(oc.Must, tt.wantMust) {
				t.Errorf("Must = %v, want %v", oc.Must, tt.wantMust)
			}
			if !stringSliceEqual(oc.May, tt.wantMay) {
				t.Errorf("May = %v, want %v", oc.May, tt.wantMay)
			}
		})
	}
}

func TestParseAttributeType(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		wantOID         string
		wantName        string
		wantSyntax      string
		wantSingleValue bool
		wantNoUserMod   bool
		wantUsage       AttributeUsage
		wantSuperior    string
		wantErr         bool
	}{
		{
			name:       "simple attribute",
			input:      "( 2.5.4.3 NAME 'cn' SYNTAX 1.3.6.1.4.1.1466.115.121.1.15 )",
			wantOID:    "2.5.4.3",
			wantName:   "cn",
			wantSyntax: SyntaxDirectoryString,
			wantUsage:  UserApplications,
		},
		{
			name:            "single value attribute",
			input:           "( 2.5.4.6 NAME 'c' SYNTAX 1.3.6.1.4.1.1466.115.121.1.15 SINGLE-VALUE )",
			wantOID:         "2.5.4.6",
			wantName:        "c",
			wantSyntax:      SyntaxDirectoryString,
			wantSingleValue: true,
			wantUsage:       UserApplications,
		},
		{
			name:            "operational attribute",
			input:           "( 2.5.18.1 NAME 'createTimestamp' SYNTAX 1.3.6.1.4.1.1466.115.121.1.24 SINGLE-VALUE NO-USER-MODIFICATION USAGE directoryOperation )",
			wantOID:         "2.5.18.1",
			wantName:        "createTimestamp",
			wantSyntax:      "1.3.6.1.4.1.1466.115.121.1.24",
			wantSingleValue: true,
			wantNoUserMod:   true,
			wantUsage:       DirectoryOperation,
		},
		{
			name:         "attribute with superior",
			input:        "( 2.5.4.3 NAME 'cn' SUP name )",
			wantOID:      "2.5.4.3",
			wantName:     "cn",
			wantSuperior: "name",
			wantUsage:    UserApplications,
		},
		{
			name:       "syntax with length constraint",
			input:      "( 2.5.4.3 NAME 'cn' SYNTAX 1.3.6.1.4.1.1466.115.121.1.15{256} )",
			wantOID:    "2.5.4.3",
			wantName:   "cn",
			wantSyntax: SyntaxDirectoryString,
			wantUsage:  UserApplications,
		},
		{
			name:    "invalid - no parentheses",
			input:   "2.5.4.3 NAME 'cn'",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := parseAttributeType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if at.OID != tt.wantOID {
				t.Errorf("OID = %q, want %q", at.OID, tt.wantOID)
			}
			if at.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", at.Name, tt.wantName)
			}
			if at.Syntax != tt.wantSyntax {
				t.Errorf("Syntax = %q, want %q", at.Syntax, tt.wantSyntax)
			}
			if at.SingleValue != tt.wantSingleValue {
				t.Errorf("SingleValue = %v, want %v", at.SingleValue, tt.wantSingleValue)
			}
			if at.NoUserMod != tt.wantNoUserMod {
				t.Errorf("NoUserMod = %v, want %v", at.NoUserMod, tt.wantNoUserMod)
			}
			if at.Usage != tt.wantUsage {
				t.Errorf("Usage = %v, want %v", at.Usage, tt.wantUsage)
			}
			if at.Superior != tt.wantSuperior {
				t.Errorf("Superior = %q, want %q", at.Superior, tt.wantSuperior)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "simple tokens",
			input: "NAME 'test' SYNTAX 1.2.3",
			want:  []string{"NAME", "'test'", "SYNTAX", "1.2.3"},
		},
		{
			name:  "parenthesized list",
			input: "MUST ( attr1 $ attr2 )",
			want:  []string{"MUST", " attr1 $ attr2 "},
		},
		{
			name:    "unterminated quote",
			input:   "NAME 'test",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Errorf("got %d tokens, want %d: %v vs %v", len(got), len(tt.want), got, tt.want)
				return
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"'cn'", []string{"cn"}},
		{"'cn' 'commonName'", []string{"cn", "commonName"}},
		{"cn", []string{"cn"}},
	}

	for _, tt := range tests {
		got := parseNames(tt.input)
		if !stringSliceEqual(got, tt.want) {
			t.Errorf("parseNames(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseAttributeList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"attr1", []string{"attr1"}},
		{"attr1 $ attr2", []string{"attr1", "attr2"}},
		{" attr1 $ attr2 $ attr3 ", []string{"attr1", "attr2", "attr3"}},
	}

	for _, tt := range tests {
		got := parseAttributeList(tt.input)
		if !stringSliceEqual(got, tt.want) {
			t.Errorf("parseAttributeList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"'test'", "test"},
		{"test", "test"},
		{"''", ""},
		{" 'test' ", "test"},
	}

	for _, tt := range tests {
		got := unquote(tt.input)
		if got != tt.want {
			t.Errorf("unquote(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseSyntaxOID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.3.6.1.4.1.1466.115.121.1.15", "1.3.6.1.4.1.1466.115.121.1.15"},
		{"1.3.6.1.4.1.1466.115.121.1.15{256}", "1.3.6.1.4.1.1466.115.121.1.15"},
		{"'1.3.6.1.4.1.1466.115.121.1.15{256}'", "1.3.6.1.4.1.1466.115.121.1.15"},
	}

	for _, tt := range tests {
		got := parseSyntaxOID(tt.input)
		if got != tt.want {
			t.Errorf("parseSyntaxOID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseUsage(t *testing.T) {
	tests := []struct {
		input string
		want  AttributeUsage
	}{
		{"userApplications", UserApplications},
		{"directoryOperation", DirectoryOperation},
		{"distributedOperation", DistributedOperation},
		{"dSAOperation", DSAOperation},
		{"unknown", UserApplications},
	}

	for _, tt := range tests {
		got := parseUsage(tt.input)
		if got != tt.want {
			t.Errorf("parseUsage(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// Helper functions

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringSliceContains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
