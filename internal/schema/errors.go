package schema

import (
	"fmt"
	"strings"
)

// Code classifies a schema violation.
type Code string

const (
	CodeMissing    Code = "missing"
	CodeType       Code = "type"
	CodeEnum       Code = "enum"
	CodeRange      Code = "range"
	CodeNotFinite  Code = "not_finite"
	CodeUnexpected Code = "unexpected"
)

// RootPath names the document root in violation paths.
const RootPath = "$"

// Violation is one way a document departs from its schema.
type Violation struct {
	Path   string `json:"path" yaml:"path"`
	Code   Code   `json:"code" yaml:"code"`
	Reason string `json:"reason" yaml:"reason"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Reason
}

// ParseError reports input text that is not well-formed JSON.
type ParseError struct {
	// Offset is the byte offset of the syntax error, when the parser reports one.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return "invalid JSON: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Message is the user-facing explanation of a parse failure.
func (e *ParseError) Message() string {
	return "Invalid JSON file. Please ensure the file contains valid JSON data."
}

// ValidationError reports every violation found in a well-formed but non-conforming document.
type ValidationError struct {
	Revision   string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	const shown = 3
	var b strings.Builder
	fmt.Fprintf(&b, "evaluation document has %d schema violation(s)", len(e.Violations))
	for i, v := range e.Violations {
		if i == shown {
			fmt.Fprintf(&b, "; and %d more", len(e.Violations)-shown)
			break
		}
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(v.String())
	}
	return b.String()
}

// Message is the user-facing explanation of a shape failure.
func (e *ValidationError) Message() string {
	return "Invalid JSON structure. The file must contain a complete CDIM evaluation with a metadata block, " +
		"cdim sections (current, desired, impact, metrics), scorecard, and recommendations. " +
		"Please check the file format matches the expected schema."
}

// Has reports whether a violation was recorded at path.
func (e *ValidationError) Has(path string) bool {
	for _, v := range e.Violations {
		if v.Path == path {
			return true
		}
	}
	return false
}

// Paths returns the violation paths in report order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		paths[i] = v.Path
	}
	return paths
}
