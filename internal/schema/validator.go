package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cdim-evaluator/internal/models"
)

// Revision names.
const (
	RevisionCurrent = "current"
	RevisionLegacy  = "legacy"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Validator turns raw documents into typed evaluations. It holds only immutable
// schema descriptions and is safe for concurrent use.
type Validator struct {
	current *Schema
	legacy  *Schema
}

// New returns a validator over the bundled schema revisions.
func New() *Validator {
	return &Validator{
		current: mustLoad(RevisionCurrent),
		legacy:  mustLoad(RevisionLegacy),
	}
}

func mustLoad(revision string) *Schema {
	s, err := LoadEmbedded(revision)
	if err != nil {
		panic(fmt.Sprintf("schema: bundled revision %q is invalid: %v", revision, err))
	}
	return s
}

// Schema returns the description of a revision, or nil if it is not known.
func (v *Validator) Schema(revision string) *Schema {
	switch revision {
	case RevisionCurrent:
		return v.current
	case RevisionLegacy:
		return v.legacy
	}
	return nil
}

// Revisions lists the revisions this validator accepts, canonical first.
func (v *Validator) Revisions() []string {
	return []string{RevisionCurrent, RevisionLegacy}
}

// Parse decodes JSON text into a generic value. A leading byte-order mark is ignored.
// Numbers are kept as json.Number so out-of-range values reach the schema check with
// their path instead of failing here. Failures are returned as *ParseError.
func Parse(data []byte) (any, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		perr := &ParseError{Err: err}
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			perr.Offset = syntax.Offset
		}
		return nil, perr
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{
			Offset: dec.InputOffset(),
			Err:    errors.New("invalid data after top-level value"),
		}
	}
	return value, nil
}

// Revision reports which schema revision governs value. A document carrying the
// legacy metadata block and no meta block is legacy; everything else is checked
// as the current revision.
func (v *Validator) Revision(value any) string {
	m, ok := value.(map[string]any)
	if !ok {
		return RevisionCurrent
	}
	if _, hasMeta := m[v.current.Discriminator]; hasMeta {
		return RevisionCurrent
	}
	if _, hasLegacy := m[v.legacy.Discriminator]; hasLegacy {
		return RevisionLegacy
	}
	return RevisionCurrent
}

// Validate checks a parsed value and returns the typed evaluation. Every violation is
// collected in one pass and returned together as *ValidationError. Legacy documents are
// normalized to the current shape.
func (v *Validator) Validate(value any) (*models.Evaluation, error) {
	revision := v.Revision(value)
	s := v.Schema(revision)
	if violations := s.Check(value); len(violations) > 0 {
		return nil, &ValidationError{Revision: revision, Violations: violations}
	}

	// The value conforms, so re-encoding it into the typed form cannot lose data.
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("re-encode document: %w", err)
	}
	if revision == RevisionLegacy {
		var doc legacyDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode legacy document: %w", err)
		}
		return doc.normalize(), nil
	}
	var eval models.Evaluation
	if err := json.Unmarshal(data, &eval); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	fillNilSlices(&eval)
	return &eval, nil
}

// Load parses and validates raw JSON text.
func (v *Validator) Load(data []byte) (*models.Evaluation, error) {
	value, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return v.Validate(value)
}

func fillNilSlices(e *models.Evaluation) {
	for _, s := range []*models.Section{&e.CDIM.Current, &e.CDIM.Desired, &e.CDIM.Impact, &e.CDIM.Metrics.Section} {
		s.Confirmed = nonNil(s.Confirmed)
		s.GapsNextCall = nonNil(s.GapsNextCall)
	}
	e.CDIM.Metrics.QuantifiedMetrics = nonNil(e.CDIM.Metrics.QuantifiedMetrics)
	if e.Recommendations.FollowUps == nil {
		e.Recommendations.FollowUps = []models.FollowUp{}
	}
	if e.Recommendations.ProofPlan == nil {
		e.Recommendations.ProofPlan = []models.ProofPlanItem{}
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
