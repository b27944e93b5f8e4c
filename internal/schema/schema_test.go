package schema

import (
	"strings"
	"testing"
)

func TestEmbeddedRevisions(t *testing.T) {
	got := EmbeddedRevisions()
	if len(got) != 2 || got[0] != RevisionCurrent || got[1] != RevisionLegacy {
		t.Errorf("expected [current legacy], got %v", got)
	}
	for _, revision := range got {
		s, err := LoadEmbedded(revision)
		if err != nil {
			t.Fatalf("%s: %v", revision, err)
		}
		if s.Revision != revision {
			t.Errorf("expected revision %s, got %s", revision, s.Revision)
		}
		if s.Discriminator == "" {
			t.Errorf("%s: expected a discriminator", revision)
		}
	}
}

func TestLoadEmbedded_Unknown(t *testing.T) {
	_, err := LoadEmbedded("v9")
	if err == nil {
		t.Fatal("expected error for unknown revision")
	}
	if !strings.Contains(err.Error(), "available: current, legacy") {
		t.Errorf("expected available revisions in error, got %v", err)
	}
}

func TestParseSchema_Lint(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "no revision",
			doc:  "root: {type: string}",
			want: "no revision",
		},
		{
			name: "no root",
			doc:  "revision: x",
			want: "no root",
		},
		{
			name: "unknown ref",
			doc:  "revision: x\nroot: {ref: nowhere}",
			want: `unknown ref "nowhere"`,
		},
		{
			name: "unknown type",
			doc:  "revision: x\nroot: {type: date}",
			want: `unknown type "date"`,
		},
		{
			name: "enum without values",
			doc:  "revision: x\nroot: {type: enum}",
			want: "enum without values",
		},
		{
			name: "one_of with one variant",
			doc:  "revision: x\nroot: {type: one_of, variants: [{type: string}]}",
			want: "at least two variants",
		},
		{
			name: "array without items",
			doc:  "revision: x\nroot: {type: array}",
			want: "array without items",
		},
		{
			name: "duplicate field",
			doc:  "revision: x\nroot: {type: object, fields: [{name: a, type: string}, {name: a, type: number}]}",
			want: `duplicate field "a"`,
		},
		{
			name: "inverted bounds",
			doc:  "revision: x\nroot: {type: number, min: 10, max: 1}",
			want: "min 10 greater than max 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCheck_AdHocSchema(t *testing.T) {
	s, err := ParseSchema([]byte(`
revision: test
definitions:
  pct: {type: number, min: 0, max: 1}
root:
  type: object
  closed: true
  fields:
    - name: ratio
      ref: pct
    - name: tags
      type: array
      items: {type: string}
    - name: note
      type: string
      optional: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v := s.Check(map[string]any{"ratio": 0.5, "tags": []any{"a"}}); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}

	v := s.Check(map[string]any{"ratio": 2.0, "tags": []any{"a", true}, "extra": 1})
	paths := make([]string, len(v))
	for i := range v {
		paths[i] = v[i].Path
	}
	want := []string{"ratio", "tags[1]", "extra"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("expected paths %v, got %v", want, paths)
	}
}

func TestCheck_IntegerInputs(t *testing.T) {
	s, err := LoadEmbedded(RevisionCurrent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score := s.Definitions["score"]
	c := &checker{schema: s}
	c.check("score", score, 80)
	c.check("score", score, int64(120))
	if len(c.violations) != 1 || c.violations[0].Code != CodeRange {
		t.Errorf("expected one range violation, got %v", c.violations)
	}
}
