// Package presenter derives the display model of a CDIM evaluation page.
//
// Build is a pure function of the evaluation and the per-document view flags; it never
// modifies either. Templates render the returned Page without further logic.
package presenter

import (
	"html/template"
	"strings"

	"cdim-evaluator/internal/models"
)

// Card identifies one of the four CDIM flip cards.
type Card string

const (
	CardCurrent Card = "current"
	CardDesired Card = "desired"
	CardImpact  Card = "impact"
	CardMetrics Card = "metrics"
)

// Cards lists the flip cards in display order.
var Cards = []Card{CardCurrent, CardDesired, CardImpact, CardMetrics}

// Title is the heading shown on the card.
func (c Card) Title() string {
	switch c {
	case CardCurrent:
		return "Current State"
	case CardDesired:
		return "Desired State"
	case CardImpact:
		return "Impact"
	case CardMetrics:
		return "Metrics"
	}
	return string(c)
}

// ParseCard validates a card name from a request path.
func ParseCard(name string) (Card, bool) {
	for _, c := range Cards {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Side is a face of a flip card.
type Side string

const (
	SideConfirmed Side = "confirmed"
	SideGaps      Side = "gaps"
)

// ParseSide validates a side name from a request path.
func ParseSide(name string) (Side, bool) {
	switch Side(name) {
	case SideConfirmed, SideGaps:
		return Side(name), true
	}
	return "", false
}

// Panel is a collapsible recommendations panel.
type Panel string

const (
	PanelFollowUps Panel = "follow-ups"
	PanelProofPlan Panel = "proof-plan"
)

// ParsePanel validates a panel name from a request path.
func ParsePanel(name string) (Panel, bool) {
	switch Panel(name) {
	case PanelFollowUps, PanelProofPlan:
		return Panel(name), true
	}
	return "", false
}

// View exposes the transient UI flags of the loaded document.
type View interface {
	Flipped(card Card) bool
	Expanded(card Card, side Side, index int) bool
	Collapsed(panel Panel) bool
}

type defaultView struct{}

func (defaultView) Flipped(Card) bool             { return false }
func (defaultView) Expanded(Card, Side, int) bool { return false }
func (defaultView) Collapsed(Panel) bool          { return false }

// Empty-state messages.
const (
	EmptyConfirmed = "No confirmed items yet"
	EmptyGaps      = "No gaps or questions identified"
	EmptyFollowUps = "No follow-up questions identified"
	EmptyProofPlan = "No proof plan items defined"
)

// Page is everything the evaluation page shows.
type Page struct {
	Header          Header
	Summary         template.HTML
	Scorecard       Scorecard
	Cards           []FlipCard
	ImpactStatement ImpactStatement
	GapsAndRisks    template.HTML
	FollowUps       FollowUpPanel
	ProofPlan       ProofPlanPanel
}

// Header carries the document metadata shown above the summary.
type Header struct {
	Framework   string
	Audience    string
	GeneratedAt string
}

// Scorecard is the overall score with its four weighted components.
type Scorecard struct {
	Overall    string
	Value      float64
	Badge      string
	Tone       Tone
	Components []ScoreComponent
}

// ScoreComponent is one weighted scorecard dimension.
type ScoreComponent struct {
	Name          string
	Description   string
	Score         string
	Value         float64
	Tone          Tone
	WeightPercent int
}

// FlipCard is one CDIM quadrant with its two faces.
type FlipCard struct {
	Card    Card
	Title   string
	Flipped bool
	Front   Face
	Back    Face
	// QuantifiedMetrics is only set on the Metrics card.
	QuantifiedMetrics []string
}

// Face is one side of a flip card.
type Face struct {
	Side  Side
	Label string
	Count int
	Items []Item
	Empty string
}

// Item is one line on a card face.
type Item struct {
	Index       int
	Text        string
	Full        string
	Truncatable bool
	Expanded    bool
}

// ImpactStatement is the headline impact sentence.
type ImpactStatement struct {
	Sentence string
	TBDNote  string
}

// FollowUpPanel groups open questions by category.
type FollowUpPanel struct {
	Open   bool
	Count  int
	Groups []FollowUpGroup
	Empty  string
}

// FollowUpGroup is the questions of one category in document order.
type FollowUpGroup struct {
	Category  string
	Questions []FollowUp
}

// FollowUp is a question with its priority label.
type FollowUp struct {
	Question string
	Priority models.Priority
	Label    string
}

// ProofPlanPanel lists the proposed next steps.
type ProofPlanPanel struct {
	Open  bool
	Count int
	Steps []ProofStep
	Empty string
}

// ProofStep is a numbered proof plan item.
type ProofStep struct {
	Number   int
	Action   string
	Timeline string
	Owner    string
}

// Build derives the page for doc. A nil view shows every card front side up and every
// panel open.
func Build(doc *models.Evaluation, view View) Page {
	if view == nil {
		view = defaultView{}
	}
	return Page{
		Header: Header{
			Framework:   doc.Meta.Framework,
			Audience:    doc.Meta.Audience,
			GeneratedAt: FormatTimestamp(doc.Meta.GeneratedAt),
		},
		Summary:   Markdown(doc.ExecutiveSummary),
		Scorecard: buildScorecard(doc),
		Cards: []FlipCard{
			buildCard(CardCurrent, Section(doc, CardCurrent), nil, view),
			buildCard(CardDesired, Section(doc, CardDesired), nil, view),
			buildCard(CardImpact, Section(doc, CardImpact), nil, view),
			buildCard(CardMetrics, Section(doc, CardMetrics), doc.CDIM.Metrics.QuantifiedMetrics, view),
		},
		ImpactStatement: ImpactStatement{
			Sentence: doc.ImpactStatement.Sentence,
			TBDNote:  doc.ImpactStatement.TBDNote,
		},
		GapsAndRisks: Markdown(doc.GapsAndRisks),
		FollowUps:    buildFollowUps(doc.Recommendations.FollowUps, !view.Collapsed(PanelFollowUps)),
		ProofPlan:    buildProofPlan(doc.Recommendations.ProofPlan, !view.Collapsed(PanelProofPlan)),
	}
}

// Section returns the quadrant of doc shown on card.
func Section(doc *models.Evaluation, card Card) models.Section {
	switch card {
	case CardCurrent:
		return doc.CDIM.Current
	case CardDesired:
		return doc.CDIM.Desired
	case CardImpact:
		return doc.CDIM.Impact
	case CardMetrics:
		return doc.CDIM.Metrics.Section
	}
	return models.Section{}
}

// FaceItems returns the texts on one face of card.
func FaceItems(doc *models.Evaluation, card Card, side Side) []string {
	sec := Section(doc, card)
	if side == SideGaps {
		return sec.GapsNextCall
	}
	return sec.Confirmed
}

func buildScorecard(doc *models.Evaluation) Scorecard {
	s := doc.Scorecard
	w := doc.EffectiveWeights()
	component := func(name, description string, score, weight float64) ScoreComponent {
		return ScoreComponent{
			Name:          name,
			Description:   description,
			Score:         FormatScore(score),
			Value:         score,
			Tone:          ToneFor(score),
			WeightPercent: WeightPercent(weight),
		}
	}
	return Scorecard{
		Overall: FormatScore(s.Overall),
		Value:   s.Overall,
		Badge:   Badge(s.Overall),
		Tone:    ToneFor(s.Overall),
		Components: []ScoreComponent{
			component("Coverage", "Completeness of information gathered", s.Coverage, w.Coverage),
			component("Depth", "Level of detail and specificity", s.Depth, w.Depth),
			component("Quantification", "Measurable metrics and data points", s.Quantification, w.Quantification),
			component("Impact Linkage", "Connection between problems and business impact", s.ImpactLinkage, w.ImpactLinkage),
		},
	}
}

func buildCard(card Card, section models.Section, quantified []string, view View) FlipCard {
	return FlipCard{
		Card:    card,
		Title:   card.Title(),
		Flipped: view.Flipped(card),
		Front: Face{
			Side:  SideConfirmed,
			Label: "Confirmed Items",
			Count: len(section.Confirmed),
			Items: buildItems(card, SideConfirmed, section.Confirmed, view),
			Empty: EmptyConfirmed,
		},
		Back: Face{
			Side:  SideGaps,
			Label: "Gaps & Questions",
			Count: len(section.GapsNextCall),
			Items: buildItems(card, SideGaps, section.GapsNextCall, view),
			Empty: EmptyGaps,
		},
		QuantifiedMetrics: quantified,
	}
}

func buildItems(card Card, side Side, texts []string, view View) []Item {
	items := make([]Item, len(texts))
	for i, text := range texts {
		expanded := view.Expanded(card, side, i)
		short, cut := Truncate(text, TruncateLimit)
		display := short
		if expanded {
			display = text
		}
		items[i] = Item{Index: i, Text: display, Full: text, Truncatable: cut, Expanded: expanded && cut}
	}
	return items
}

func buildFollowUps(questions []models.FollowUp, open bool) FollowUpPanel {
	panel := FollowUpPanel{Open: open, Count: len(questions), Empty: EmptyFollowUps}
	index := make(map[string]int)
	for _, q := range questions {
		i, ok := index[q.Category]
		if !ok {
			i = len(panel.Groups)
			index[q.Category] = i
			panel.Groups = append(panel.Groups, FollowUpGroup{Category: q.Category})
		}
		panel.Groups[i].Questions = append(panel.Groups[i].Questions, FollowUp{
			Question: q.Question,
			Priority: q.Priority,
			Label:    PriorityLabel(q.Priority),
		})
	}
	return panel
}

// PriorityLabel is the badge text of a follow-up priority.
func PriorityLabel(p models.Priority) string {
	return strings.ToUpper(p.String()) + " PRIORITY"
}

func buildProofPlan(items []models.ProofPlanItem, open bool) ProofPlanPanel {
	panel := ProofPlanPanel{Open: open, Count: len(items), Empty: EmptyProofPlan}
	for i, item := range items {
		panel.Steps = append(panel.Steps, ProofStep{
			Number:   i + 1,
			Action:   item.Action,
			Timeline: item.Timeline,
			Owner:    item.Owner,
		})
	}
	return panel
}
