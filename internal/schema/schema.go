// Package schema validates and normalizes CDIM evaluation documents.
//
// Document shapes are described as data: each schema revision is an embedded YAML file
// interpreted by a generic structural checker. Adding a field or constraint is an edit to
// the YAML, not new branching code.
package schema

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// Type is the kind of value a schema node accepts.
type Type string

const (
	TypeObject Type = "object"
	TypeArray  Type = "array"
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeEnum   Type = "enum"
	TypeOneOf  Type = "one_of"
)

// Node describes the accepted shape of one value.
type Node struct {
	Type        Type     `yaml:"type,omitempty"`
	Ref         string   `yaml:"ref,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Fields      []Field  `yaml:"fields,omitempty"`
	Closed      bool     `yaml:"closed,omitempty"`
	Items       *Node    `yaml:"items,omitempty"`
	Min         *float64 `yaml:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty"`
	Values      []string `yaml:"values,omitempty"`
	Variants    []*Node  `yaml:"variants,omitempty"`
}

// Field is a named member of an object node.
type Field struct {
	Name     string `yaml:"name"`
	Optional bool   `yaml:"optional,omitempty"`
	Node     `yaml:",inline"`
}

// Schema is one revision of the evaluation document shape.
type Schema struct {
	Revision    string `yaml:"revision"`
	Description string `yaml:"description"`
	// Discriminator is the top-level key whose presence selects this revision.
	Discriminator string           `yaml:"discriminator"`
	Definitions   map[string]*Node `yaml:"definitions"`
	Root          *Node            `yaml:"root"`
}

// ParseSchema decodes a schema description and checks that it is well formed.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if s.Revision == "" {
		return nil, fmt.Errorf("schema has no revision")
	}
	if s.Root == nil {
		return nil, fmt.Errorf("schema %q has no root", s.Revision)
	}
	for name, def := range s.Definitions {
		if err := s.lint(def, "definitions."+name); err != nil {
			return nil, err
		}
	}
	if err := s.lint(s.Root, "root"); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadEmbedded reads a bundled schema revision by name.
func LoadEmbedded(revision string) (*Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + revision + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("schema revision %q not found (available: %s): %w",
			revision, strings.Join(EmbeddedRevisions(), ", "), err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", revision, err)
	}
	return s, nil
}

// EmbeddedRevisions returns the names of all bundled schema revisions, sorted.
func EmbeddedRevisions() []string {
	entries, _ := schemaFS.ReadDir("schemas")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// EmbeddedSource returns the raw YAML of a bundled schema revision.
func EmbeddedSource(revision string) ([]byte, error) {
	return schemaFS.ReadFile("schemas/" + revision + ".yaml")
}

// resolve follows ref chains to the concrete node.
func (s *Schema) resolve(n *Node) *Node {
	for hops := 0; n != nil && n.Ref != "" && hops < 32; hops++ {
		n = s.Definitions[n.Ref]
	}
	return n
}

func (s *Schema) lint(n *Node, at string) error {
	if n == nil {
		return fmt.Errorf("%s: empty node", at)
	}
	if n.Ref != "" {
		if _, ok := s.Definitions[n.Ref]; !ok {
			return fmt.Errorf("%s: unknown ref %q", at, n.Ref)
		}
		if s.resolve(n) == nil || s.resolve(n).Ref != "" {
			return fmt.Errorf("%s: ref %q does not resolve", at, n.Ref)
		}
		return nil
	}
	switch n.Type {
	case TypeObject:
		seen := make(map[string]bool, len(n.Fields))
		for i := range n.Fields {
			f := &n.Fields[i]
			if f.Name == "" {
				return fmt.Errorf("%s.fields[%d]: field has no name", at, i)
			}
			if seen[f.Name] {
				return fmt.Errorf("%s: duplicate field %q", at, f.Name)
			}
			seen[f.Name] = true
			if err := s.lint(&f.Node, at+"."+f.Name); err != nil {
				return err
			}
		}
	case TypeArray:
		if n.Items == nil {
			return fmt.Errorf("%s: array without items", at)
		}
		return s.lint(n.Items, at+"[]")
	case TypeEnum:
		if len(n.Values) == 0 {
			return fmt.Errorf("%s: enum without values", at)
		}
	case TypeOneOf:
		if len(n.Variants) < 2 {
			return fmt.Errorf("%s: one_of needs at least two variants", at)
		}
		for i, v := range n.Variants {
			if err := s.lint(v, fmt.Sprintf("%s|%d", at, i)); err != nil {
				return err
			}
		}
	case TypeString:
	case TypeNumber:
		if n.Min != nil && n.Max != nil && *n.Min > *n.Max {
			return fmt.Errorf("%s: min %v greater than max %v", at, *n.Min, *n.Max)
		}
	default:
		return fmt.Errorf("%s: unknown type %q", at, n.Type)
	}
	return nil
}
