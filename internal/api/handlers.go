// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/confplane/expconf/internal/config"
	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/registry"
	"github.com/confplane/expconf/internal/schema"
)

// apiError is one machine-readable load/validation failure.
type apiError struct {
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

type validateResponse struct {
	Valid       bool       `json:"valid"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Errors      []apiError `json:"errors,omitempty"`
}

type resolveResponse struct {
	Fingerprint string         `json:"fingerprint"`
	SnapshotID  string         `json:"snapshot_id,omitempty"`
	Config      map[string]any `json:"config"`
}

type snapshotMeta struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source,omitempty"`
	Fingerprint string    `json:"fingerprint"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	if s.holder == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no configuration loaded"})
		return
	}
	doc := s.holder.Get()
	fp, err := doc.Fingerprint()
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Fingerprint: fp, Config: doc.Root()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.holder == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no configuration loaded"})
		return
	}
	if err := s.holder.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: errorList(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	doc, err := config.Resolve(data, s.schema, modeFrom(r))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: errorList(err)})
		return
	}
	fp, err := doc.Fingerprint()
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Fingerprint: fp})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	doc, err := config.Resolve(data, s.schema, modeFrom(r))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: errorList(err)})
		return
	}
	fp, err := doc.Fingerprint()
	if err != nil {
		s.internalError(w, err)
		return
	}

	resp := resolveResponse{Fingerprint: fp, Config: doc.Root()}
	if r.URL.Query().Get("store") == "1" {
		if s.registry == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot store disabled"})
			return
		}
		resolved, err := doc.Bytes()
		if err != nil {
			s.internalError(w, err)
			return
		}
		snap, err := s.registry.Put(&registry.Snapshot{
			Source:      "api",
			Fingerprint: fp,
			Resolved:    resolved,
		})
		if err != nil {
			s.internalError(w, err)
			return
		}
		resp.SnapshotID = snap.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, _ *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot store disabled"})
		return
	}
	snaps, err := s.registry.List()
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]snapshotMeta, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotMeta{
			ID:          snap.ID,
			CreatedAt:   snap.CreatedAt,
			Source:      snap.Source,
			Fingerprint: snap.Fingerprint,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot store disabled"})
		return
	}
	snap, err := s.registry.Get(chi.URLParam(r, "id"))
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot not found"})
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("X-Snapshot-Id", snap.ID)
	w.Header().Set("X-Fingerprint", snap.Fingerprint)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Resolved)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		return nil, false
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty request body"})
		return nil, false
	}
	return data, true
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Str("event", "api.internal_error").Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// modeFrom maps the optional ?mode= query parameter to a validation mode.
// Strict is the default.
func modeFrom(r *http.Request) schema.Mode {
	if r.URL.Query().Get("mode") == "lenient" {
		return schema.Lenient
	}
	return schema.Strict
}

// errorList flattens a load error into API error entries.
func errorList(err error) []apiError {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		out := make([]apiError, 0, len(verr.Errors()))
		for _, e := range verr.Errors() {
			out = append(out, apiError{Kind: "schema", Path: e.Path, Message: e.Msg})
		}
		return out
	}
	var refErr *document.ReferenceError
	if errors.As(err, &refErr) {
		return []apiError{{Kind: "reference", Message: refErr.Error()}}
	}
	var parseErr *document.ParseError
	if errors.As(err, &parseErr) {
		return []apiError{{Kind: "parse", Path: parseErr.Path, Message: parseErr.Error()}}
	}
	return []apiError{{Kind: config.ErrorKind(err), Message: err.Error()}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
