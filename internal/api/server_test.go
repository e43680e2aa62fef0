package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/dgallion1/docparse/internal/config"
	"github.com/dgallion1/docparse/internal/crawler"
	"github.com/dgallion1/docparse/internal/markdown"
	"github.com/dgallion1/docparse/internal/parser"
	"github.com/dgallion1/docparse/internal/parser/mocks"
	"github.com/dgallion1/docparse/internal/pipeline"
	"github.com/dgallion1/docparse/internal/stats"
	"github.com/dgallion1/docparse/internal/ydoc/ydoctest"
)

func testConfig() config.Config {
	return config.Config{
		Port:           "0",
		MaxUploadBytes: 1024,
		MaxBatchFiles:  3,
		BatchWorkers:   2,
		SummaryLimit:   1000,
		StatsWindow:    time.Hour,
		LogLevel:       "info",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, cfg config.Config) (*Server, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	return NewServer(svc, discard(), cfg), svc
}

func do(s *Server, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t, testConfig())
	rec := do(s, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newServer(t, testConfig())
	rec := do(s, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected default collectors in metrics output")
	}
}

func TestMetricsCountRequestsByRoute(t *testing.T) {
	s, _ := newServer(t, testConfig())
	do(s, http.MethodGet, "/health", nil, nil)
	do(s, http.MethodGet, "/no/such/path", nil, nil)

	body := do(s, http.MethodGet, "/metrics", nil, nil).Body.String()
	for _, want := range []string{
		`docparse_http_requests_total{code="200",route="/health"}`,
		`docparse_http_requests_total{code="404",route="unmatched"}`,
		`docparse_http_request_duration_seconds_count{route="/health"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestCrawl(t *testing.T) {
	s, svc := newServer(t, testConfig())
	body := []byte("update")
	svc.EXPECT().Crawl(gomock.Any(), body, "doc-1").
		Return(&crawler.Result{Blocks: []crawler.BlockInfo{{BlockID: "b", Flavour: "affine:page"}}, Title: "T"}, nil)

	rec := do(s, http.MethodPost, "/api/docs/crawl?doc_id=doc-1", bytes.NewReader(body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := `{"blocks":[{"block_id":"b","flavour":"affine:page"}],"title":"T","summary":""}` + "\n"
	if rec.Body.String() != want {
		t.Errorf("expected %s, got %s", want, rec.Body.String())
	}
}

func TestCrawl_DefaultDocID(t *testing.T) {
	s, svc := newServer(t, testConfig())
	body := []byte("hello world")
	svc.EXPECT().Crawl(gomock.Any(), body, "b94d27b9934d3e08").Return(&crawler.Result{}, nil)

	rec := do(s, http.MethodPost, "/api/docs/crawl", bytes.NewReader(body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"decode error", &parser.DecodeError{DocID: "d", Err: errors.New("bad")}, http.StatusUnprocessableEntity, "decode doc d: bad"},
		{"other error", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc := newServer(t, testConfig())
			svc.EXPECT().Crawl(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := do(s, http.MethodPost, "/api/docs/crawl?doc_id=d", strings.NewReader("x"), nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != tt.msg {
				t.Errorf("expected error %q, got %v", tt.msg, got)
			}
		})
	}
}

func TestMarkdown(t *testing.T) {
	s, svc := newServer(t, testConfig())
	svc.EXPECT().Markdown(gomock.Any(), []byte("x"), "d", true).
		Return(&markdown.Result{Title: "T", Markdown: "# T\n"}, nil)

	rec := do(s, http.MethodPost, "/api/docs/markdown?doc_id=d&ai_editable=true", strings.NewReader("x"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decodeBody(t, rec)
	if out["title"] != "T" || out["markdown"] != "# T\n" {
		t.Errorf("unexpected body %v", out)
	}
}

func TestBadBoolParam(t *testing.T) {
	s, _ := newServer(t, testConfig())
	for _, target := range []string{"/api/docs/markdown?ai_editable=maybe", "/api/docs/ids?include_trash=2"} {
		rec := do(s, http.MethodPost, target, strings.NewReader("x"), nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestDocIDs(t *testing.T) {
	s, svc := newServer(t, testConfig())
	svc.EXPECT().DocIDs(gomock.Any(), []byte("x"), true).Return([]string{"a", "b"}, nil)

	rec := do(s, http.MethodPost, "/api/docs/ids?include_trash=1", strings.NewReader("x"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"doc_ids":["a","b"]}`+"\n" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestBodyTooLarge(t *testing.T) {
	s, _ := newServer(t, testConfig())
	rec := do(s, http.MethodPost, "/api/docs/crawl", bytes.NewReader(make([]byte, 2048)), nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	s, svc := newServer(t, cfg)
	svc.EXPECT().Stats().Return(map[string]stats.Snapshot{"crawl": {Count: 2}}).Times(2)

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"empty bearer", http.Header{"Authorization": {"Bearer "}}, http.StatusUnauthorized},
		{"valid", http.Header{"Authorization": {"Bearer secret"}}, http.StatusOK},
		{"wrong header key", http.Header{"X-Api-Key": {"nope"}}, http.StatusUnauthorized},
		{"valid header key", http.Header{"X-Api-Key": {"secret"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/stats/parse", nil, tt.header)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	if rec := do(s, http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("expected public health, got %d", rec.Code)
	}
}

func TestParseStats(t *testing.T) {
	s, svc := newServer(t, testConfig())
	svc.EXPECT().Stats().Return(map[string]stats.Snapshot{"markdown": {Count: 3, MaxMs: 9}})

	rec := do(s, http.MethodGet, "/api/stats/parse", nil, nil)
	out := decodeBody(t, rec)
	if out["window"] != "1h0m0s" {
		t.Errorf("unexpected window %v", out["window"])
	}
	md := out["stats"].(map[string]any)["markdown"].(map[string]any)
	if md["count"] != float64(3) || md["max_ms"] != float64(9) {
		t.Errorf("unexpected snapshot %v", md)
	}
}

func multipartBody(t *testing.T, files map[string][]byte, order []string, docIDs ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(files[name])
	}
	for _, id := range docIDs {
		mw.WriteField("doc_ids", id)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestBatchCrawl(t *testing.T) {
	cfg := testConfig()
	good := ydoctest.NewDoc(1).
		Block("page", "affine:page", nil, "p").
		Block("p", "affine:paragraph", map[string]any{"text": ydoctest.Plain("hi")}).
		Encode()
	s := NewServer(parser.New(discard(), nil), discard(), cfg)

	body, ctype := multipartBody(t, map[string][]byte{
		"good.bin": good,
		"bad.bin":  {0x01},
		"big.bin":  make([]byte, 2048),
	}, []string{"good.bin", "bad.bin", "big.bin"}, "doc-good")

	rec := do(s, http.MethodPost, "/api/docs/batch/crawl", body, http.Header{"Content-Type": {ctype}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		BatchID string             `json:"batch_id"`
		Results []pipeline.Outcome `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BatchID == "" {
		t.Error("expected batch id")
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Results))
	}
	want := []struct {
		name   string
		docID  string
		status pipeline.Status
	}{
		{"good.bin", "doc-good", pipeline.StatusCompleted},
		{"bad.bin", pipeline.DocIDFor([]byte{0x01}), pipeline.StatusFailed},
		{"big.bin", "", pipeline.StatusFailed},
	}
	for i, w := range want {
		got := out.Results[i]
		if got.Name != w.name || got.DocID != w.docID || got.Status != w.status {
			t.Errorf("result %d: expected %s/%s/%s, got %s/%s/%s", i, w.name, w.docID, w.status, got.Name, got.DocID, got.Status)
		}
	}
	if out.Results[0].Result == nil || len(out.Results[0].Result.Blocks) != 2 {
		t.Errorf("expected crawl of good.bin, got %+v", out.Results[0].Result)
	}
}

func TestBatchCrawl_KeepsUploadOrder(t *testing.T) {
	good := ydoctest.NewDoc(1).
		Block("page", "affine:page", nil, "p").
		Block("p", "affine:paragraph", map[string]any{"text": ydoctest.Plain("hi")}).
		Encode()
	s := NewServer(parser.New(discard(), nil), discard(), testConfig())

	body, ctype := multipartBody(t, map[string][]byte{
		"big.bin":  make([]byte, 2048),
		"good.bin": good,
		"huge.bin": make([]byte, 4096),
	}, []string{"big.bin", "good.bin", "huge.bin"})

	rec := do(s, http.MethodPost, "/api/docs/batch/crawl", body, http.Header{"Content-Type": {ctype}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Results []pipeline.Outcome `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []struct {
		name   string
		status pipeline.Status
	}{
		{"big.bin", pipeline.StatusFailed},
		{"good.bin", pipeline.StatusCompleted},
		{"huge.bin", pipeline.StatusFailed},
	}
	if len(out.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(out.Results))
	}
	for i, w := range want {
		if got := out.Results[i]; got.Name != w.name || got.Status != w.status {
			t.Errorf("result %d: expected %s/%s, got %s/%s", i, w.name, w.status, got.Name, got.Status)
		}
	}
}

func TestBatchCrawl_Limits(t *testing.T) {
	s, _ := newServer(t, testConfig())

	rec := do(s, http.MethodPost, "/api/docs/batch/crawl", strings.NewReader("x"), http.Header{"Content-Type": {"text/plain"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-multipart body, got %d", rec.Code)
	}

	files := map[string][]byte{"a": {1}, "b": {2}, "c": {3}, "d": {4}}
	body, ctype := multipartBody(t, files, []string{"a", "b", "c", "d"})
	rec = do(s, http.MethodPost, "/api/docs/batch/crawl", body, http.Header{"Content-Type": {ctype}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for too many files, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"doc.bin", "doc.bin"},
		{"../../etc/passwd", "passwd"},
		{"", "unnamed"},
		{"a..b", "a_b"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
