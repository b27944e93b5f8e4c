package models

// Event types published to the audit topics.
const (
	EventEvaluationLoaded   = "cdim.evaluation.loaded"
	EventEvaluationRejected = "cdim.evaluation.rejected"
)

// EvaluationLoaded is emitted when a document validates and replaces the current session.
type EvaluationLoaded struct {
	EventType    string  `json:"eventType"`
	SessionID    string  `json:"sessionId"`
	Origin       string  `json:"origin"`
	FileName     string  `json:"fileName"`
	Revision     string  `json:"revision"`
	Framework    string  `json:"framework"`
	Audience     string  `json:"audience"`
	OverallScore float64 `json:"overallScore"`
	SizeBytes    int     `json:"sizeBytes"`
	Timestamp    int64   `json:"timestamp"`
}

// EvaluationRejected is emitted when a document fails to load.
type EvaluationRejected struct {
	EventType  string          `json:"eventType"`
	Origin     string          `json:"origin"`
	FileName   string          `json:"fileName"`
	Kind       string          `json:"kind"`
	Message    string          `json:"message"`
	Violations []ViolationInfo `json:"violations,omitempty"`
	SizeBytes  int             `json:"sizeBytes"`
	Timestamp  int64           `json:"timestamp"`
}

// ViolationInfo is the wire form of a single schema violation.
type ViolationInfo struct {
	Path   string `json:"path"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
