package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdim-evaluator/internal/app"
	"cdim-evaluator/internal/config"
	"cdim-evaluator/internal/presenter"
	"cdim-evaluator/internal/samples"
)

func newTestApp(t *testing.T, maxBytes int64) (*app.Application, http.Handler) {
	t.Helper()
	a := app.New(&config.Config{
		Service: config.ServiceConfig{Principal: "svc-test", Env: "test"},
		Upload:  config.UploadConfig{MaxBytes: maxBytes},
		Ingest:  config.IngestConfig{Source: config.IngestNone},
	})
	return a, NewRouter(a, nil)
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func post(path string) *http.Request {
	return httptest.NewRequest(http.MethodPost, path, nil)
}

func get(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func loadContoso(t *testing.T, a *app.Application, h http.Handler) string {
	t.Helper()
	rec := do(h, multipartUpload(t, "contoso.json", "application/json", samples.Contoso()))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sess := a.Store.Current()
	require.NotNil(t, sess)
	return sess.ID
}

func TestIndex_ShowsUploadFormWhenEmpty(t *testing.T) {
	_, h := newTestApp(t, 1<<20)

	rec := do(h, get("/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Upload CDIM Evaluation")
	assert.Contains(t, body, `data-status="idle"`)
	assert.Contains(t, body, "1.0 MiB")
	assert.NotContains(t, body, "CDIM Evaluation Results")
}

func TestUpload_MultipartLoadsEvaluation(t *testing.T) {
	a, h := newTestApp(t, 1<<20)

	rec := do(h, multipartUpload(t, "contoso.json", "application/octet-stream", samples.Contoso()))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	sess := a.Store.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "contoso.json", sess.Source.FileName)

	body := do(h, get("/")).Body.String()
	assert.Contains(t, body, "CDIM Evaluation Results")
	assert.Contains(t, body, "CDIM for Contoso Corporation")
	assert.Contains(t, body, "CDIM v2.1")
	assert.Contains(t, body, `data-testid="text-overall-score">78<`)
	assert.Contains(t, body, "Good")
	for _, c := range presenter.Cards {
		assert.Contains(t, body, c.Title())
	}
	assert.Contains(t, body, "HIGH PRIORITY")
	assert.Contains(t, body, `data-session="`+sess.ID+`"`)
}

func TestUpload_InvalidJSONShowsMessage(t *testing.T) {
	a, h := newTestApp(t, 1<<20)

	rec := do(h, multipartUpload(t, "broken.json", "application/json", []byte(`{"meta":`)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, a.Store.Current())
	body := do(h, get("/")).Body.String()
	assert.Contains(t, body, "Invalid JSON file. Please ensure the file contains valid JSON data.")
	assert.Contains(t, body, `data-status="error"`)
	assert.Contains(t, body, "broken.json")
}

func TestUpload_SchemaFailureListsViolations(t *testing.T) {
	_, h := newTestApp(t, 1<<20)

	do(h, multipartUpload(t, "partial.json", "application/json", []byte(`{"meta": {}}`)))

	body := do(h, get("/")).Body.String()
	assert.Contains(t, body, "Invalid JSON structure.")
	assert.Contains(t, body, "meta.framework: required field is missing")
}

func TestUpload_RejectsNonJSONFile(t *testing.T) {
	a, h := newTestApp(t, 1<<20)

	do(h, multipartUpload(t, "notes.txt", "text/plain", []byte("hello")))

	snap := a.Store.Snapshot()
	require.NotNil(t, snap.Failure)
	assert.Equal(t, "Please upload a valid JSON file containing CDIM evaluation data.", snap.Failure.Message)
}

func TestUpload_TooLarge(t *testing.T) {
	a, h := newTestApp(t, 64)

	do(h, multipartUpload(t, "contoso.json", "application/json", samples.Contoso()))

	snap := a.Store.Snapshot()
	require.NotNil(t, snap.Failure)
	assert.Equal(t, "File is too large. Maximum size is 64 B.", snap.Failure.Message)
}

func TestUpload_ResetClearsFailure(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	do(h, multipartUpload(t, "broken.json", "application/json", []byte(`nope`)))

	rec := do(h, post("/upload/reset"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, a.Store.Snapshot().Failure)
	assert.NotContains(t, do(h, get("/")).Body.String(), "Upload failed")
}

func TestUpload_RawJSONBody(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(samples.Contoso()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(FileNameHeader, "feed.json")

	rec := do(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp evaluationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, a.Store.Current().ID, resp.SessionID)
	assert.Equal(t, "feed.json", resp.FileName)
	assert.Equal(t, "api", resp.Origin)
	assert.Equal(t, 78.0, resp.Document.Scorecard.Overall)
}

func TestViewActions(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	id := loadContoso(t, a, h)

	rec := do(h, post("/evaluation/"+id+"/cards/metrics/flip"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, a.Store.Current().View.Flipped(presenter.CardMetrics))

	do(h, post("/evaluation/"+id+"/cards/current/confirmed/0/expand"))
	assert.True(t, a.Store.Current().View.Expanded(presenter.CardCurrent, presenter.SideConfirmed, 0))

	do(h, post("/evaluation/"+id+"/panels/proof-plan/toggle"))
	assert.True(t, a.Store.Current().View.Collapsed(presenter.PanelProofPlan))

	body := do(h, get("/")).Body.String()
	assert.Contains(t, body, `flip-card flipped" data-testid="flip-card-metrics"`)
	assert.NotContains(t, body, "Conduct comprehensive Azure Migration Assessment Workshop")
}

func TestViewActions_InvalidTargets(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	id := loadContoso(t, a, h)

	tests := []string{
		"/evaluation/" + id + "/cards/unknown/flip",
		"/evaluation/" + id + "/cards/current/back/0/expand",
		"/evaluation/" + id + "/cards/current/confirmed/x/expand",
		"/evaluation/" + id + "/cards/current/confirmed/-1/expand",
		"/evaluation/" + id + "/cards/current/confirmed/99/expand",
		"/evaluation/" + id + "/panels/sidebar/toggle",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, do(h, post(path)).Code)
		})
	}
}

func TestViewActions_StaleSessionIgnored(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	stale := loadContoso(t, a, h)
	loadContoso(t, a, h)

	rec := do(h, post("/evaluation/"+stale+"/cards/current/flip"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, a.Store.Current().View.Flipped(presenter.CardCurrent))
}

func TestDiscard(t *testing.T) {
	a, h := newTestApp(t, 1<<20)
	loadContoso(t, a, h)

	rec := do(h, post("/evaluation/discard"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, a.Store.Current())
	assert.Contains(t, do(h, get("/")).Body.String(), "Upload CDIM Evaluation")
}

func TestThemeToggle(t *testing.T) {
	_, h := newTestApp(t, 1<<20)

	do(h, post("/theme/toggle"))

	assert.Contains(t, do(h, get("/")).Body.String(), `data-theme="dark"`)
}

func TestAPI_GetEvaluation(t *testing.T) {
	a, h := newTestApp(t, 1<<20)

	assert.Equal(t, http.StatusNotFound, do(h, get("/v1/evaluation")).Code)

	id := loadContoso(t, a, h)
	rec := do(h, get("/v1/evaluation"))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp evaluationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.SessionID)
	assert.Equal(t, "Contoso Corporation", resp.Document.Meta.Audience)
}

func TestAPI_Validate(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		body     []byte
		status   int
		kind     string
	}{
		{"valid", 1 << 20, samples.Contoso(), http.StatusOK, ""},
		{"legacy", 1 << 20, samples.LegacyContoso(), http.StatusOK, ""},
		{"malformed", 1 << 20, []byte(`{"meta": [`), http.StatusBadRequest, "parse"},
		{"schema", 1 << 20, []byte(`{"meta": {}}`), http.StatusUnprocessableEntity, "schema"},
		{"too large", 16, samples.Contoso(), http.StatusRequestEntityTooLarge, "too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, h := newTestApp(t, tt.maxBytes)
			req := httptest.NewRequest(http.MethodPost, "/v1/evaluations/validate", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := do(h, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Nil(t, a.Store.Current(), "validate must not load")
			if tt.kind == "" {
				var resp validateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.True(t, resp.Valid)
				return
			}
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAPI_ValidateReportsEveryViolation(t *testing.T) {
	_, h := newTestApp(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluations/validate", strings.NewReader(`{"meta": {}}`))

	rec := do(h, req)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "current", resp.Revision)
	assert.Len(t, resp.Details, len(resp.Violations))
	assert.Greater(t, len(resp.Violations), 5)
}

func TestAPI_Schema(t *testing.T) {
	_, h := newTestApp(t, 1<<20)

	rec := do(h, get("/v1/schemas/legacy"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "revision: legacy")

	assert.Equal(t, http.StatusNotFound, do(h, get("/v1/schemas/v9")).Code)
}

func TestHealthAndStatic(t *testing.T) {
	a, h := newTestApp(t, 1<<20)

	assert.Equal(t, http.StatusOK, do(h, get("/v1/liveness")).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, get("/v1/readiness")).Code)
	require.NoError(t, a.Start())
	assert.Equal(t, http.StatusOK, do(h, get("/v1/readiness")).Code)

	rec := do(h, get("/static/style.css"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--primary")
}
