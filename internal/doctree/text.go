package doctree

import (
	"encoding/json"
	"strings"

	"github.com/dgallion1/docparse/internal/ydoc"
)

// Run is a span of rich text with its formatting attributes.
type Run struct {
	Insert string
	Attrs  map[string]any
}

// Text is a rich text value as a sequence of runs.
type Text []Run

// Plain returns the text without formatting.
func (t Text) Plain() string {
	var sb strings.Builder
	for _, r := range t {
		sb.WriteString(r.Insert)
	}
	return sb.String()
}

// Text returns a text prop. Plain string props are returned as a single run.
func (b *Block) Text(key string) (Text, bool) {
	switch v := b.Props[key].(type) {
	case *ydoc.Type:
		if v.Kind() == ydoc.KindMap || v.Kind() == ydoc.KindArray {
			return nil, false
		}
		var t Text
		for _, op := range v.Delta() {
			s, ok := op.Insert.(string)
			if !ok {
				continue
			}
			t = append(t, Run{Insert: s, Attrs: op.Attributes})
		}
		return t, true
	case string:
		return Text{{Insert: v}}, true
	}
	return nil, false
}

// Reference is an outgoing edge to another document. Info is canonical JSON
// describing the edge.
type Reference struct {
	DocID string
	Info  string
}

// References returns the reference edges of a block: inline references of
// every text prop in key order, then the pageId of linked and synced doc
// embeds.
func (b *Block) References() []Reference {
	var out []Reference
	for _, k := range b.PropKeys() {
		if t, ok := b.Text(k); ok {
			out = append(out, t.References()...)
		}
	}
	switch b.Flavour {
	case "affine:embed-linked-doc", "affine:embed-synced-doc":
		if id := b.String("pageId"); id != "" {
			params, _ := b.Value("params").(map[string]any)
			out = append(out, NewReference(id, params))
		}
	}
	return out
}

// References returns the inline references of the text in run order.
func (t Text) References() []Reference {
	var out []Reference
	for _, r := range t {
		ref, ok := r.Attrs["reference"].(map[string]any)
		if !ok {
			continue
		}
		id, _ := ref["pageId"].(string)
		if id == "" {
			continue
		}
		params, _ := ref["params"].(map[string]any)
		out = append(out, NewReference(id, params))
	}
	return out
}

// NewReference builds an edge whose info is {"docId": id} merged with params.
// Params that cannot be marshalled are dropped from the info.
func NewReference(id string, params map[string]any) Reference {
	info := make(map[string]any, len(params)+1)
	for k, v := range params {
		info[k] = v
	}
	info["docId"] = id
	b, err := json.Marshal(info)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"docId": id})
	}
	return Reference{DocID: id, Info: string(b)}
}
