package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cdim-evaluator/internal/presenter"
	"cdim-evaluator/internal/service/ingest"
	"cdim-evaluator/internal/service/session"
	"cdim-evaluator/internal/service/upload"
)

// multipartOverhead is allowed on top of the document limit for form framing.
const multipartOverhead = 64 << 10

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Store.Snapshot()
	data := pageData{
		Theme:    snap.Theme,
		Status:   snap.Status.String(),
		Failure:  snap.Failure,
		Session:  snap.Session,
		MaxBytes: s.app.Uploads.Limits().MaxBytes,
	}
	if snap.Session != nil {
		page := presenter.Build(snap.Session.Document, snap.Session.View)
		data.Page = &page
	}
	s.renderPage(w, data)
}

// handleUpload accepts a multipart form with a "file" field. A raw application/json
// body is handled as an API load.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if mediaType(r) == "application/json" {
		s.handleCreateEvaluation(w, r)
		return
	}

	limit := s.app.Uploads.Limits().MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 10); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.app.Uploads.Reject(r.Context(), ingest.OriginUpload, "", max(r.ContentLength, 0),
				fmt.Errorf("%w: request body over %d bytes", upload.ErrTooLarge, maxErr.Limit))
		} else {
			s.app.Uploads.Reject(r.Context(), ingest.OriginUpload, "", max(r.ContentLength, 0),
				fmt.Errorf("%w: %v", upload.ErrNotJSON, err))
		}
		redirectHome(w, r)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.app.Uploads.Reject(r.Context(), ingest.OriginUpload, "", 0,
			fmt.Errorf("%w: no file in form", upload.ErrNotJSON))
		redirectHome(w, r)
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the size check to fail.
	raw, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.app.Uploads.Reject(r.Context(), ingest.OriginUpload, header.Filename, header.Size, err)
		redirectHome(w, r)
		return
	}

	// Failures are recorded on the store and shown by the page.
	_, _ = s.app.Uploads.LoadFile(r.Context(), ingest.OriginUpload, header.Filename,
		header.Header.Get("Content-Type"), raw)
	redirectHome(w, r)
}

func (s *Server) handleResetUpload(w http.ResponseWriter, r *http.Request) {
	s.app.Store.ResetUpload()
	redirectHome(w, r)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if s.app.Store.Discard() {
		s.logger.Info().Msg("Evaluation discarded")
	}
	redirectHome(w, r)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.app.Store.ToggleTheme()
	redirectHome(w, r)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	card, ok := presenter.ParseCard(chi.URLParam(r, "card"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.updateView(w, r, "flip", func(v session.ViewState) session.ViewState {
		return v.Flip(card)
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	card, ok := presenter.ParseCard(chi.URLParam(r, "card"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	side, ok := presenter.ParseSide(chi.URLParam(r, "side"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		http.NotFound(w, r)
		return
	}
	if sess := s.app.Store.Current(); sess != nil && index >= len(presenter.FaceItems(sess.Document, card, side)) {
		http.NotFound(w, r)
		return
	}
	s.updateView(w, r, "expand", func(v session.ViewState) session.ViewState {
		return v.ToggleExpanded(card, side, index)
	})
}

func (s *Server) handleTogglePanel(w http.ResponseWriter, r *http.Request) {
	panel, ok := presenter.ParsePanel(chi.URLParam(r, "panel"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.updateView(w, r, "panel", func(v session.ViewState) session.ViewState {
		return v.TogglePanel(panel)
	})
}

// updateView applies fn to the session named in the path. Actions from a page showing
// a replaced or discarded evaluation are ignored and the current page is shown.
func (s *Server) updateView(w http.ResponseWriter, r *http.Request, action string, fn func(session.ViewState) session.ViewState) {
	id := chi.URLParam(r, "session")
	if _, err := s.app.Store.Update(id, fn); err != nil {
		s.logger.Debug().Err(err).Str("sessionId", id).Str("action", action).Msg("View update ignored")
	} else {
		s.app.Metrics.RecordViewUpdate(action)
	}
	redirectHome(w, r)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
