package schema

import "cdim-evaluator/internal/models"

// legacyDocument is the earlier document revision, decoded only after it has passed
// the legacy schema.
type legacyDocument struct {
	Metadata struct {
		Version     string `json:"version"`
		GeneratedAt string `json:"generated_at"`
	} `json:"metadata"`
	ExecutiveSummary string `json:"executive_summary"`
	CDIM             struct {
		Current legacySection `json:"current"`
		Desired legacySection `json:"desired"`
		Impact  legacySection `json:"impact"`
		Metrics struct {
			legacySection
			QuantifiedMetrics []string `json:"quantified_metrics"`
		} `json:"metrics"`
	} `json:"cdim"`
	GapsAndRisks    string `json:"gaps_and_risks"`
	ImpactStatement struct {
		Sentence string `json:"sentence"`
		TBDNote  string `json:"tbd_note"`
	} `json:"impact_statement"`
	Recommendations models.Recommendations `json:"recommendations"`
	Scorecard       models.Scorecard       `json:"scorecard"`
}

type legacySection struct {
	ConfirmedItems []string `json:"confirmed_items"`
	Gaps           []string `json:"gaps"`
	NextQuestions  []string `json:"next_questions"`
}

// section folds gaps and next questions into the single gaps_next_call list, gaps first.
func (s legacySection) section() models.Section {
	merged := make([]string, 0, len(s.Gaps)+len(s.NextQuestions))
	merged = append(merged, s.Gaps...)
	merged = append(merged, s.NextQuestions...)
	return models.Section{Confirmed: nonNil(s.ConfirmedItems), GapsNextCall: merged}
}

// normalize maps a legacy document onto the current shape. The legacy revision has no
// audience; its version becomes the framework label and its scorecard weights are
// carried into meta as well.
func (d *legacyDocument) normalize() *models.Evaluation {
	weights := models.Weights{}
	if d.Scorecard.Weights != nil {
		weights = *d.Scorecard.Weights
	}
	eval := &models.Evaluation{
		Meta: models.Meta{
			Framework:   d.Metadata.Version,
			GeneratedAt: d.Metadata.GeneratedAt,
			Weights:     weights,
		},
		ExecutiveSummary: d.ExecutiveSummary,
		CDIM: models.CDIM{
			Current: d.CDIM.Current.section(),
			Desired: d.CDIM.Desired.section(),
			Impact:  d.CDIM.Impact.section(),
			Metrics: models.MetricsSection{
				Section:           d.CDIM.Metrics.section(),
				QuantifiedMetrics: d.CDIM.Metrics.QuantifiedMetrics,
			},
		},
		GapsAndRisks: d.GapsAndRisks,
		ImpactStatement: models.ImpactStatement{
			Sentence:   d.ImpactStatement.Sentence,
			TBDNote:    d.ImpactStatement.TBDNote,
			Structured: true,
		},
		Recommendations: d.Recommendations,
		Scorecard:       d.Scorecard,
	}
	fillNilSlices(eval)
	return eval
}
