package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// checker walks a generic JSON value against a schema, collecting violations.
type checker struct {
	schema     *Schema
	violations []Violation
}

// Check validates value against the schema and returns every violation found.
// An empty result means the value conforms.
func (s *Schema) Check(value any) []Violation {
	c := &checker{schema: s}
	c.check("", s.Root, value)
	return c.violations
}

func (c *checker) add(path string, code Code, reason string) {
	if path == "" {
		path = RootPath
	}
	c.violations = append(c.violations, Violation{Path: path, Code: code, Reason: reason})
}

func (c *checker) check(path string, n *Node, v any) {
	n = c.schema.resolve(n)
	switch n.Type {
	case TypeObject:
		c.checkObject(path, n, v)
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			c.add(path, CodeType, "expected array, got "+kindOf(v))
			return
		}
		for i, item := range items {
			c.check(path+"["+strconv.Itoa(i)+"]", n.Items, item)
		}
	case TypeString:
		if _, ok := v.(string); !ok {
			c.add(path, CodeType, "expected string, got "+kindOf(v))
		}
	case TypeNumber:
		c.checkNumber(path, n, v)
	case TypeEnum:
		s, ok := v.(string)
		if !ok {
			c.add(path, CodeType, "expected string, got "+kindOf(v))
			return
		}
		for _, allowed := range n.Values {
			if s == allowed {
				return
			}
		}
		c.add(path, CodeEnum, fmt.Sprintf("must be one of %s (got %q)", quoteAll(n.Values), s))
	case TypeOneOf:
		c.checkOneOf(path, n, v)
	}
}

func (c *checker) checkObject(path string, n *Node, v any) {
	m, ok := v.(map[string]any)
	if !ok {
		c.add(path, CodeType, "expected object, got "+kindOf(v))
		return
	}
	for i := range n.Fields {
		f := &n.Fields[i]
		fieldPath := join(path, f.Name)
		fv, present := m[f.Name]
		if !present {
			if !f.Optional {
				c.add(fieldPath, CodeMissing, "required field is missing")
			}
			continue
		}
		c.check(fieldPath, &f.Node, fv)
	}
	if !n.Closed {
		return
	}
	var unknown []string
	for key := range m {
		if !n.hasField(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		c.add(join(path, key), CodeUnexpected, "unexpected field (allowed: "+strings.Join(n.fieldNames(), ", ")+")")
	}
}

func (c *checker) checkNumber(path string, n *Node, v any) {
	f, ok := toFloat(v)
	if !ok {
		c.add(path, CodeType, "expected number, got "+kindOf(v))
		return
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		c.add(path, CodeNotFinite, "must be a finite number")
		return
	}
	low := n.Min != nil && f < *n.Min
	high := n.Max != nil && f > *n.Max
	if !low && !high {
		return
	}
	got := strconv.FormatFloat(f, 'g', -1, 64)
	switch {
	case n.Min != nil && n.Max != nil:
		c.add(path, CodeRange, fmt.Sprintf("must be between %s and %s (got %s)", fmtNum(*n.Min), fmtNum(*n.Max), got))
	case low:
		c.add(path, CodeRange, fmt.Sprintf("must be at least %s (got %s)", fmtNum(*n.Min), got))
	default:
		c.add(path, CodeRange, fmt.Sprintf("must be at most %s (got %s)", fmtNum(*n.Max), got))
	}
}

// checkOneOf picks the variants whose kind matches the value. A value that matches one
// variant fully passes; otherwise the first kind-compatible variant's violations are kept.
func (c *checker) checkOneOf(path string, n *Node, v any) {
	kind := kindOf(v)
	var candidates []*Node
	var expected []string
	for _, variant := range n.Variants {
		r := c.schema.resolve(variant)
		expected = append(expected, r.kind())
		if r.kind() == kind {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		c.add(path, CodeType, "expected "+strings.Join(expected, " or ")+", got "+kind)
		return
	}
	var first []Violation
	for i, candidate := range candidates {
		scratch := &checker{schema: c.schema}
		scratch.check(path, candidate, v)
		if len(scratch.violations) == 0 {
			return
		}
		if i == 0 {
			first = scratch.violations
		}
	}
	c.violations = append(c.violations, first...)
}

func (n *Node) hasField(name string) bool {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return true
		}
	}
	return false
}

func (n *Node) fieldNames() []string {
	names := make([]string, len(n.Fields))
	for i := range n.Fields {
		names[i] = n.Fields[i].Name
	}
	return names
}

// kind names the JSON kind a node accepts.
func (n *Node) kind() string {
	switch n.Type {
	case TypeEnum:
		return "string"
	default:
		return string(n.Type)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		// Well-formed literals beyond float64 parse to ±Inf with ErrRange.
		f, err := n.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
