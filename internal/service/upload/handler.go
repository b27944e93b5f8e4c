// Package upload provides the load pipeline that turns raw documents into the
// current session: size check, parse, validate, store, and audit.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"cdim-evaluator/internal/models"
	"cdim-evaluator/internal/observability/logging"
	"cdim-evaluator/internal/observability/metrics"
	"cdim-evaluator/internal/schema"
	"cdim-evaluator/internal/service/ingest"
	"cdim-evaluator/internal/service/session"
)

// Limits defines guardrails for accepted documents.
type Limits struct {
	MaxBytes int64 // Max raw document size
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes: 2 * 1024 * 1024, // 2 MiB; real evaluations are a few KB
	}
}

// Errors returned before a document is parsed.
var (
	ErrTooLarge = errors.New("evaluation document exceeds size limit")
	ErrNotJSON  = errors.New("file is not a JSON document")
)

// Rejection kinds reported in events and metrics.
const (
	KindNotJSON  = "not_json"
	KindTooLarge = "too_large"
	KindParse    = "parse"
	KindSchema   = "schema"
)

// EventPublisher receives audit events for every load attempt.
type EventPublisher interface {
	PublishLoaded(ctx context.Context, event models.EvaluationLoaded) error
	PublishRejected(ctx context.Context, event models.EvaluationRejected) error
}

// Handler runs the load pipeline. It implements ingest.Callback so any ingest source
// feeds the same path as browser uploads.
type Handler struct {
	validator *schema.Validator
	store     *session.Store
	publisher EventPublisher
	limits    Limits
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHandler creates a load handler with default limits.
func NewHandler(v *schema.Validator, store *session.Store, publisher EventPublisher) *Handler {
	return NewHandlerWithLimits(v, store, publisher, DefaultLimits())
}

// NewHandlerWithLimits creates a load handler with custom limits.
func NewHandlerWithLimits(v *schema.Validator, store *session.Store, publisher EventPublisher, limits Limits) *Handler {
	return &Handler{
		validator: v,
		store:     store,
		publisher: publisher,
		limits:    limits,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("upload"),
		now:       time.Now,
	}
}

// Limits returns the configured limits.
func (h *Handler) Limits() Limits {
	return h.limits
}

// CheckResult is the outcome of validating a document without loading it.
type CheckResult struct {
	Document *models.Evaluation
	Revision string
}

// Check validates raw without touching the session. Errors are ErrTooLarge (wrapped),
// *schema.ParseError or *schema.ValidationError.
func (h *Handler) Check(raw []byte) (CheckResult, error) {
	if h.limits.MaxBytes > 0 && int64(len(raw)) > h.limits.MaxBytes {
		return CheckResult{}, fmt.Errorf("%w: %s > %s", ErrTooLarge,
			humanize.IBytes(uint64(len(raw))), humanize.IBytes(uint64(h.limits.MaxBytes)))
	}
	value, err := schema.Parse(raw)
	if err != nil {
		return CheckResult{}, err
	}
	revision := h.validator.Revision(value)
	doc, err := h.validator.Validate(value)
	if err != nil {
		return CheckResult{Revision: revision}, err
	}
	return CheckResult{Document: doc, Revision: revision}, nil
}

// IsJSONFile reports whether a file looks like JSON by its name or declared media type.
func IsJSONFile(name, contentType string) bool {
	if strings.EqualFold(path.Ext(name), ".json") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// LoadFile is Load for a file picked by the user: files that are not JSON by name or
// media type are rejected without being read.
func (h *Handler) LoadFile(ctx context.Context, origin, name, contentType string, raw []byte) (*session.Session, error) {
	if !IsJSONFile(name, contentType) {
		err := fmt.Errorf("%w: %s", ErrNotJSON, name)
		h.Reject(ctx, origin, name, int64(len(raw)), err)
		return nil, err
	}
	return h.Load(ctx, origin, name, raw)
}

// Reject records an attempt that failed before its content could be read, such as a
// request body cut off at the transport limit.
func (h *Handler) Reject(ctx context.Context, origin, name string, size int64, err error) {
	h.metrics.RecordEvaluation(origin, "rejected", int(size), 0)
	h.reject(ctx, logging.WithDocument("upload", origin, name),
		session.Source{FileName: name, Origin: origin, Size: size}, "", err)
}

// Load validates raw and, on success, replaces the current session with it. On
// failure the session is left as it was and the failure is recorded for display.
func (h *Handler) Load(ctx context.Context, origin, name string, raw []byte) (*session.Session, error) {
	start := h.now()
	logger := logging.WithDocument("upload", origin, name)

	result, err := h.Check(raw)
	latency := h.now().Sub(start).Seconds()
	if result.Revision != "" {
		h.metrics.RecordRevision(result.Revision)
	}
	src := session.Source{FileName: name, Origin: origin, Size: int64(len(raw))}

	if err != nil {
		h.metrics.RecordEvaluation(origin, "rejected", len(raw), latency)
		h.reject(ctx, logger, src, result.Revision, err)
		return nil, err
	}

	sess := h.store.Load(result.Document, src)
	h.metrics.RecordEvaluation(origin, "loaded", len(raw), latency)

	logger.Info().
		Str("sessionId", sess.ID).
		Str("revision", result.Revision).
		Float64("overallScore", result.Document.Scorecard.Overall).
		Int("bytes", len(raw)).
		Msg("Evaluation loaded")

	ev := models.EvaluationLoaded{
		EventType:    models.EventEvaluationLoaded,
		SessionID:    sess.ID,
		Origin:       origin,
		FileName:     name,
		Revision:     result.Revision,
		Framework:    result.Document.Meta.Framework,
		Audience:     result.Document.Meta.Audience,
		OverallScore: result.Document.Scorecard.Overall,
		SizeBytes:    len(raw),
		Timestamp:    h.now().UnixMilli(),
	}
	if err := h.publisher.PublishLoaded(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("sessionId", sess.ID).Msg("Failed to publish loaded event")
	}
	return sess, nil
}

func (h *Handler) reject(ctx context.Context, logger zerolog.Logger, src session.Source, revision string, err error) {
	f := session.Failure{Source: src}
	ev := models.EvaluationRejected{
		EventType: models.EventEvaluationRejected,
		Origin:    src.Origin,
		FileName:  src.FileName,
		Message:   err.Error(),
		SizeBytes: int(src.Size),
		Timestamp: h.now().UnixMilli(),
	}

	var perr *schema.ParseError
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, ErrNotJSON):
		ev.Kind = KindNotJSON
		f.Message = "Please upload a valid JSON file containing CDIM evaluation data."
	case errors.Is(err, ErrTooLarge):
		ev.Kind = KindTooLarge
		f.Message = fmt.Sprintf("File is too large. Maximum size is %s.", humanize.IBytes(uint64(h.limits.MaxBytes)))
		f.Details = []string{err.Error()}
	case errors.As(err, &perr):
		ev.Kind = KindParse
		f.Message = perr.Message()
		f.Details = []string{perr.Error()}
	case errors.As(err, &verr):
		ev.Kind = KindSchema
		f.Message = verr.Message()
		for _, v := range verr.Violations {
			f.Details = append(f.Details, v.String())
			ev.Violations = append(ev.Violations, models.ViolationInfo{Path: v.Path, Code: string(v.Code), Reason: v.Reason})
			h.metrics.RecordViolation(verr.Revision, string(v.Code))
		}
	default:
		ev.Kind = "internal"
		f.Message = "File processing error: " + err.Error()
	}

	h.store.Reject(f)

	logger.Warn().
		Err(err).
		Str("kind", ev.Kind).
		Str("revision", revision).
		Int("violations", len(ev.Violations)).
		Msg("Evaluation rejected")

	if pubErr := h.publisher.PublishRejected(ctx, ev); pubErr != nil {
		logger.Warn().Err(pubErr).Msg("Failed to publish rejected event")
	}
}

// --- ingest.Callback implementation ---

// OnDocument loads a document delivered by an ingest source. Rejections are already
// recorded on the session store, so the error is only logged here.
func (h *Handler) OnDocument(ctx context.Context, doc ingest.Document) {
	if _, err := h.Load(ctx, doc.Origin, doc.Name, doc.Data); err != nil {
		h.logger.Debug().Err(err).Str("fileName", doc.Name).Msg("Ingested document rejected")
	}
}

// OnError logs an ingest source failure.
func (h *Handler) OnError(err error) {
	h.logger.Error().Err(err).Msg("Ingest source error")
}
