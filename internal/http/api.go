package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cdim-evaluator/internal/models"
	"cdim-evaluator/internal/schema"
	"cdim-evaluator/internal/service/ingest"
	"cdim-evaluator/internal/service/upload"
)

// FileNameHeader optionally names a document posted as a raw JSON body.
const FileNameHeader = "X-File-Name"

type evaluationResponse struct {
	SessionID string             `json:"session_id"`
	FileName  string             `json:"file_name"`
	Origin    string             `json:"origin"`
	SizeBytes int64              `json:"size_bytes"`
	LoadedAt  time.Time          `json:"loaded_at"`
	Document  *models.Evaluation `json:"document"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	Revision string `json:"revision"`
}

type errorResponse struct {
	Error      string             `json:"error"`
	Kind       string             `json:"kind,omitempty"`
	Revision   string             `json:"revision,omitempty"`
	Details    []string           `json:"details,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	sess := s.app.Store.Current()
	if sess == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No evaluation is loaded."})
		return
	}
	writeJSON(w, http.StatusOK, evaluationResponse{
		SessionID: sess.ID,
		FileName:  sess.Source.FileName,
		Origin:    sess.Source.Origin,
		SizeBytes: sess.Source.Size,
		LoadedAt:  sess.LoadedAt,
		Document:  sess.Document,
	})
}

// handleCreateEvaluation loads a raw JSON body as the current evaluation.
func (s *Server) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(FileNameHeader)
	if name == "" {
		name = "request.json"
	}
	raw, err := s.readBody(r)
	if err != nil {
		s.app.Uploads.Reject(r.Context(), ingest.OriginAPI, name, int64(len(raw)), err)
		writeError(w, err)
		return
	}
	sess, err := s.app.Uploads.Load(r.Context(), ingest.OriginAPI, name, raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evaluationResponse{
		SessionID: sess.ID,
		FileName:  sess.Source.FileName,
		Origin:    sess.Source.Origin,
		SizeBytes: sess.Source.Size,
		LoadedAt:  sess.LoadedAt,
		Document:  sess.Document,
	})
}

// handleValidate checks a raw JSON body without loading it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.app.Uploads.Check(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Revision: result.Revision})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	src, err := schema.EmbeddedSource(chi.URLParam(r, "revision"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(src)
}

// readBody reads at most one byte past the upload limit so oversize bodies fail the
// size check instead of being buffered whole.
func (s *Server) readBody(r *http.Request) ([]byte, error) {
	limit := s.app.Uploads.Limits().MaxBytes
	return io.ReadAll(io.LimitReader(r.Body, limit+1))
}

// writeError maps load pipeline errors to status codes: 400 malformed JSON, 413 too
// large, 415 not JSON, 422 schema violations.
func writeError(w http.ResponseWriter, err error) {
	var perr *schema.ParseError
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "File is too large.",
			Kind:    upload.KindTooLarge,
			Details: []string{err.Error()},
		})
	case errors.Is(err, upload.ErrNotJSON):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{
			Error: "Please upload a valid JSON file containing CDIM evaluation data.",
			Kind:  upload.KindNotJSON,
		})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   perr.Message(),
			Kind:    upload.KindParse,
			Details: []string{perr.Error()},
		})
	case errors.As(err, &verr):
		details := make([]string, len(verr.Violations))
		for i, v := range verr.Violations {
			details[i] = v.String()
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      verr.Message(),
			Kind:       upload.KindSchema,
			Revision:   verr.Revision,
			Details:    details,
			Violations: verr.Violations,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "File processing error: " + err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
