package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dgallion1/docparse/internal/parser"
	"github.com/dgallion1/docparse/internal/pipeline"
)

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Crawl(r.Context(), data, docIDParam(r, data))
	if err != nil {
		s.parseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	aiEditable, err := boolParam(r, "ai_editable")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Markdown(r.Context(), data, docIDParam(r, data), aiEditable)
	if err != nil {
		s.parseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDocIDs(w http.ResponseWriter, r *http.Request) {
	includeTrash, err := boolParam(r, "include_trash")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	ids, err := s.svc.DocIDs(r.Context(), data, includeTrash)
	if err != nil {
		s.parseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_ids": ids})
}

// readBody reads the raw update, answering 413 past the upload limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (s *Server) parseError(w http.ResponseWriter, err error) {
	var de *parser.DecodeError
	if errors.As(err, &de) {
		jsonError(w, de.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.log.Error("parse failed", "error", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func docIDParam(r *http.Request, data []byte) string {
	if id := r.URL.Query().Get("doc_id"); id != "" {
		return id
	}
	return pipeline.DocIDFor(data)
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Errorf("invalid %s: %q", name, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
