package crawler

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/ydoc"
	"github.com/dgallion1/docparse/internal/ydoc/ydoctest"
)

func build(t *testing.T, b *ydoctest.Doc) *doctree.Document {
	t.Helper()
	doc, err := ydoc.Decode(b.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doctree.Build(doc, "doc-1")
}

func text(s string) map[string]any {
	return map[string]any{"text": ydoctest.Plain(s)}
}

func ref(id string) map[string]any {
	return map[string]any{"reference": map[string]any{"type": "LinkedPage", "pageId": id}}
}

func fixture() *ydoctest.Doc {
	return ydoctest.NewDoc(1).
		Block("page", "affine:page", map[string]any{"title": ydoctest.Plain("My Doc")}, "note", "surface").
		Block("surface", "affine:surface", nil).
		Block("note", "affine:note", nil, "h", "p", "todo", "code", "img", "link", "bm", "unknown").
		Block("h", "affine:paragraph", map[string]any{"type": "h1", "text": ydoctest.Plain("Heading")}).
		Block("p", "affine:paragraph", map[string]any{"type": "text", "text": ydoctest.Text{
			{Text: "Body text. See "},
			{Text: "Other", Attrs: ref("doc-other")},
			{Text: "."},
		}}).
		Block("todo", "affine:list", map[string]any{"type": "todo", "checked": true, "text": ydoctest.Plain("Task")}).
		Block("code", "affine:code", map[string]any{"language": "go", "text": ydoctest.Plain("fmt.Println()")}).
		Block("img", "affine:image", map[string]any{"caption": "A cat", "sourceId": "blob-1"}).
		Block("link", "affine:embed-linked-doc", map[string]any{"pageId": "doc-linked", "title": "Linked"}).
		Block("bm", "affine:bookmark", map[string]any{"url": "https://example.com", "title": "Example", "description": ""}).
		Block("unknown", "vendor:sticker", text("custom content"))
}

func find(res *Result, id string) *BlockInfo {
	for i := range res.Blocks {
		if res.Blocks[i].BlockID == id {
			return &res.Blocks[i]
		}
	}
	return nil
}

func TestCrawl_Order(t *testing.T) {
	res := Crawl(build(t, fixture()))

	var got []string
	for _, b := range res.Blocks {
		got = append(got, b.BlockID)
	}
	want := []string{"page", "note", "h", "p", "todo", "code", "img", "link", "bm", "unknown", "surface"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if res.Title != "Heading" {
		t.Errorf("expected title %q, got %q", "Heading", res.Title)
	}
}

func TestCrawl_Records(t *testing.T) {
	res := Crawl(build(t, fixture()))

	tests := []struct {
		id   string
		want BlockInfo
	}{
		{"page", BlockInfo{BlockID: "page", Flavour: "affine:page", Content: []string{"My Doc"}}},
		{"h", BlockInfo{
			BlockID: "h", Flavour: "affine:paragraph", Content: []string{"Heading"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
			Additional: ptr(`{"type":"h1"}`),
		}},
		{"p", BlockInfo{
			BlockID: "p", Flavour: "affine:paragraph", Content: []string{"Body text. See Other."},
			RefDocID:      []string{"doc-other"},
			RefInfo:       []string{`{"docId":"doc-other"}`},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
		}},
		{"todo", BlockInfo{
			BlockID: "todo", Flavour: "affine:list", Content: []string{"Task"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
			Additional: ptr(`{"checked":true,"type":"todo"}`),
		}},
		{"code", BlockInfo{
			BlockID: "code", Flavour: "affine:code", Content: []string{"fmt.Println()"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
			Additional: ptr(`{"language":"go"}`),
		}},
		{"img", BlockInfo{
			BlockID: "img", Flavour: "affine:image", Content: []string{"A cat"}, Blob: []string{"blob-1"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
		}},
		{"link", BlockInfo{
			BlockID: "link", Flavour: "affine:embed-linked-doc", Content: []string{"Linked"},
			RefDocID:      []string{"doc-linked"},
			RefInfo:       []string{`{"docId":"doc-linked"}`},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
		}},
		{"bm", BlockInfo{
			BlockID: "bm", Flavour: "affine:bookmark", Content: []string{"Example", "https://example.com"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
			Additional: ptr(`{"url":"https://example.com"}`),
		}},
		{"unknown", BlockInfo{
			BlockID: "unknown", Flavour: "vendor:sticker", Content: []string{"custom content"},
			ParentFlavour: ptr("affine:note"), ParentBlockID: ptr("note"),
		}},
		{"surface", BlockInfo{
			BlockID: "surface", Flavour: "affine:surface",
			ParentFlavour: ptr("affine:page"), ParentBlockID: ptr("page"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := find(res, tt.id)
			if got == nil {
				t.Fatalf("block %s missing", tt.id)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				g, _ := json.Marshal(got)
				w, _ := json.Marshal(tt.want)
				t.Errorf("expected %s, got %s", w, g)
			}
		})
	}
}

func TestCrawl_Summary(t *testing.T) {
	res := Crawl(build(t, fixture()))
	if res.Summary != "Body text. See Other. Task" {
		t.Errorf("unexpected summary %q", res.Summary)
	}

	res = Crawl(build(t, fixture()), WithSummaryLimit(10))
	if res.Summary != "Body text." {
		t.Errorf("expected limited summary, got %q", res.Summary)
	}
}

func TestCrawl_Deterministic(t *testing.T) {
	bin := fixture().Encode()
	var first []byte
	for i := 0; i < 3; i++ {
		doc, err := ydoc.Decode(bin)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, err := json.Marshal(Crawl(doctree.Build(doc, "d")))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if first == nil {
			first = got
			continue
		}
		if string(got) != string(first) {
			t.Fatalf("crawl output changed between runs:\n%s\n%s", first, got)
		}
	}
}

func TestCrawl_RefPairsHaveEqualLength(t *testing.T) {
	res := Crawl(build(t, fixture()))
	for _, b := range res.Blocks {
		if len(b.RefDocID) != len(b.RefInfo) {
			t.Errorf("block %s: %d ref ids but %d ref infos", b.BlockID, len(b.RefDocID), len(b.RefInfo))
		}
	}
}

func TestCrawl_OpaqueIDsKeepEncodedOrder(t *testing.T) {
	children := make([]string, 5)
	for i := range children {
		children[i] = uuid.NewString()
	}
	b := ydoctest.NewDoc(1).Block("root", "affine:page", nil, children...)
	for i, id := range children {
		b.Block(id, "affine:paragraph", text(strings.Repeat("x", i+1)))
	}
	res := Crawl(build(t, b))
	if len(res.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(res.Blocks))
	}
	for i, id := range children {
		if res.Blocks[i+1].BlockID != id {
			t.Errorf("position %d: expected %s, got %s", i+1, id, res.Blocks[i+1].BlockID)
		}
	}
}

func TestCrawl_MalformedBlocksTolerated(t *testing.T) {
	d := build(t, ydoctest.NewDoc(1).
		Block("page", "affine:page", nil, "ok", "noflavour", "ghost", "junk").
		Block("ok", "affine:paragraph", text("fine")).
		Block("noflavour", "", text("still here")).
		RawBlock("junk", float64(42)))

	res := Crawl(d)
	if len(res.Blocks) != 3 {
		t.Fatalf("expected 3 records, got %d", len(res.Blocks))
	}
	nf := find(res, "noflavour")
	if nf == nil || !reflect.DeepEqual(nf.Content, []string{"still here"}) {
		t.Errorf("expected flavourless block to keep its text, got %+v", nf)
	}
	if len(d.Issues) == 0 {
		t.Error("expected issues to be recorded")
	}
}

func TestCrawl_EmptyTitle(t *testing.T) {
	res := Crawl(build(t, ydoctest.NewDoc(1).
		Block("page", "affine:page", nil, "p").
		Block("p", "affine:paragraph", text("body"))))
	if res.Title != "" {
		t.Errorf("expected empty title, got %q", res.Title)
	}
	if res.Blocks[0].Content != nil {
		t.Errorf("expected no content for untitled page, got %v", res.Blocks[0].Content)
	}
}

func TestCrawl_JSONOmitsAbsentFields(t *testing.T) {
	res := Crawl(build(t, ydoctest.NewDoc(1).Block("page", "affine:page", nil)))
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"blocks":[{"block_id":"page","flavour":"affine:page"}],"title":"","summary":""}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}
