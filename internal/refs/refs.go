// Package refs collects the ids of documents referenced from a document.
package refs

import (
	"encoding/json"

	"github.com/dgallion1/docparse/internal/doctree"
)

// Edge is one reference to a document id.
type Edge struct {
	DocID string
	Info  string
}

// Edges lists the reference edges of d in discovery order: page entries of a
// workspace root document first, then block references in All order.
func Edges(d *doctree.Document) []Edge {
	var out []Edge
	for _, p := range d.Pages {
		info, err := json.Marshal(map[string]any{"docId": p.ID, "title": p.Title, "trash": p.Trash})
		if err != nil {
			continue
		}
		out = append(out, Edge{DocID: p.ID, Info: string(info)})
	}
	for _, b := range d.All() {
		for _, r := range b.References() {
			out = append(out, Edge{DocID: r.DocID, Info: r.Info})
		}
	}
	return out
}

// Trashed reports whether the info JSON carries "trash": true.
func (e Edge) Trashed() bool {
	var info struct {
		Trash bool `json:"trash"`
	}
	if err := json.Unmarshal([]byte(e.Info), &info); err != nil {
		return false
	}
	return info.Trash
}

// CollectDocIDs returns the distinct referenced doc ids in first discovery
// order. Trashed edges are skipped unless includeTrash is set; a trashed edge
// never hides another edge to the same id.
func CollectDocIDs(d *doctree.Document, includeTrash bool) []string {
	ids := []string{}
	seen := make(map[string]bool)
	for _, e := range Edges(d) {
		if e.DocID == "" || seen[e.DocID] {
			continue
		}
		if !includeTrash && e.Trashed() {
			continue
		}
		seen[e.DocID] = true
		ids = append(ids, e.DocID)
	}
	return ids
}
