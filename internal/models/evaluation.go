// Package models defines the CDIM evaluation document and the events derived from it.
package models

import (
	"encoding/json"
	"fmt"
)

// Evaluation is a validated CDIM evaluation document.
// Values are built once by the schema validator and never mutated afterwards.
type Evaluation struct {
	Meta             Meta            `json:"meta"`
	ExecutiveSummary string          `json:"executive_summary"`
	CDIM             CDIM            `json:"cdim"`
	GapsAndRisks     string          `json:"gaps_and_risks"`
	ImpactStatement  ImpactStatement `json:"impact_statement"`
	Recommendations  Recommendations `json:"recommendations"`
	Scorecard        Scorecard       `json:"scorecard"`
}

// Meta describes how and for whom the evaluation was produced.
type Meta struct {
	Framework   string  `json:"framework"`
	Audience    string  `json:"audience"`
	GeneratedAt string  `json:"generated_at,omitempty"`
	Weights     Weights `json:"weights"`
}

// Weights are the display weights of the four scorecard dimensions.
type Weights struct {
	Coverage       float64 `json:"coverage"`
	Depth          float64 `json:"depth"`
	Quantification float64 `json:"quantification"`
	ImpactLinkage  float64 `json:"impact_linkage"`
}

// CDIM holds the four framework quadrants.
type CDIM struct {
	Current Section        `json:"current"`
	Desired Section        `json:"desired"`
	Impact  Section        `json:"impact"`
	Metrics MetricsSection `json:"metrics"`
}

// Section is one CDIM quadrant. Item order is display order.
type Section struct {
	Confirmed    []string `json:"confirmed"`
	GapsNextCall []string `json:"gaps_next_call"`
}

// MetricsSection is the Metrics quadrant, which also carries numeric claims as display strings.
type MetricsSection struct {
	Section
	QuantifiedMetrics []string `json:"quantified_metrics"`
}

// ImpactStatement is either plain text or a {sentence, tbd_note} object.
// Structured records which form was read so the value marshals back the same way.
type ImpactStatement struct {
	Sentence   string
	TBDNote    string
	Structured bool
}

type structuredImpact struct {
	Sentence string `json:"sentence"`
	TBDNote  string `json:"tbd_note,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s ImpactStatement) MarshalJSON() ([]byte, error) {
	if !s.Structured {
		return json.Marshal(s.Sentence)
	}
	return json.Marshal(structuredImpact{Sentence: s.Sentence, TBDNote: s.TBDNote})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ImpactStatement) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = ImpactStatement{Sentence: text}
		return nil
	}
	var obj structuredImpact
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("impact_statement: expected string or object: %w", err)
	}
	*s = ImpactStatement{Sentence: obj.Sentence, TBDNote: obj.TBDNote, Structured: true}
	return nil
}

// Recommendations are the proposed next steps.
type Recommendations struct {
	FollowUps []FollowUp      `json:"follow_ups"`
	ProofPlan []ProofPlanItem `json:"proof_plan"`
}

// Priority ranks a follow-up question.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the accepted priority values, highest first.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) String() string {
	return string(p)
}

// Valid reports whether p is one of Priorities. Case variants are not valid.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// FollowUp is an open question for the next call.
type FollowUp struct {
	Category string   `json:"category"`
	Question string   `json:"question"`
	Priority Priority `json:"priority"`
}

// ProofPlanItem is a scheduled action with an owner.
type ProofPlanItem struct {
	Action   string `json:"action"`
	Timeline string `json:"timeline"`
	Owner    string `json:"owner"`
}

// Scorecard holds the five 0-100 scores.
type Scorecard struct {
	Overall        float64  `json:"overall_score"`
	Coverage       float64  `json:"coverage_score"`
	Depth          float64  `json:"depth_score"`
	Quantification float64  `json:"quantification_score"`
	ImpactLinkage  float64  `json:"impact_linkage_score"`
	Weights        *Weights `json:"weights,omitempty"`
}

// EffectiveWeights returns the scorecard weights, falling back to the meta weights.
func (e *Evaluation) EffectiveWeights() Weights {
	if e.Scorecard.Weights != nil {
		return *e.Scorecard.Weights
	}
	return e.Meta.Weights
}
