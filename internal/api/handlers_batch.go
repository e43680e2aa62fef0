package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/docparse/internal/pipeline"
)

func (s *Server) handleBatchCrawl(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes*int64(s.cfg.MaxBatchFiles) + 10*1024*1024 // extra 10MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files (%d > %d)", len(files), s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}
	docIDs := r.MultipartForm.Value["doc_ids"]

	// results has one slot per upload; slots holds the slot of each item.
	results := make([]pipeline.Outcome, len(files))
	items := make([]pipeline.Item, 0, len(files))
	slots := make([]int, 0, len(files))
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		item := pipeline.Item{Name: filename}
		if i < len(docIDs) {
			item.DocID = docIDs[i]
		}

		f, err := fh.Open()
		if err != nil {
			results[i] = pipeline.Outcome{Name: filename, DocID: item.DocID, Status: pipeline.StatusFailed, Error: "failed to open file"}
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results[i] = pipeline.Outcome{Name: filename, DocID: item.DocID, Status: pipeline.StatusFailed, Error: "file too large or read error"}
			continue
		}
		item.Data = data
		items = append(items, item)
		slots = append(slots, i)
	}

	for j, o := range s.runner.Run(r.Context(), items) {
		results[slots[j]] = o
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": uuid.NewString(),
		"results":  results,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
