package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/classifier"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/translate"
)

const apiKey = "secret"

// capsClassifier labels all-caps lines h1 and everything else body.
var capsClassifier = classifier.Func(func(vs []doctree.FeatureVector) ([]string, error) {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = doctree.BodyLabel
		if v.IsAllCaps == 1 {
			out[i] = "h1"
		}
	}
	return out, nil
})

func newTestServer(t *testing.T, start bool) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		OutlineAPIKey:  apiKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	engine := &pipeline.Engine{Classifier: capsClassifier, Translator: translate.Noop{}, Log: log}
	orch := pipeline.NewOrchestrator(cfg, engine, nil, log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	srv := httptest.NewServer(NewServer(orch, nil, log, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func upload(t *testing.T, srv *httptest.Server, field, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	path := "/api/outline"
	if field == "files" {
		path = "/api/outline/batch"
	}
	return do(t, http.MethodPost, srv.URL+path, mw.FormDataContentType(), &buf)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func waitCompleted(t *testing.T, srv *httptest.Server, jobID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var snap pipeline.JobSnapshot
		decode(t, do(t, http.MethodGet, srv.URL+"/api/outline/"+jobID+"/status", "", nil), &snap)
		switch snap.Status {
		case pipeline.StatusCompleted:
			return
		case pipeline.StatusFailed:
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not complete in time")
}

func TestHealth_NoAuth(t *testing.T) {
	srv := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, false)
	for _, auth := range []string{"", "Bearer wrong", "Basic secret"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/outline/x/status", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, resp.StatusCode)
		}
	}
}

func TestUploadFlow(t *testing.T) {
	srv := newTestServer(t, true)
	resp := upload(t, srv, "file", "paper.txt", "OVERVIEW\nSome text.\nDETAILS\nMore text.\n")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, resp, &accepted)
	if accepted.PollURL != "/api/outline/"+accepted.JobID+"/status" {
		t.Errorf("unexpected poll url %q", accepted.PollURL)
	}
	waitCompleted(t, srv, accepted.JobID)

	var o doctree.Outline
	decode(t, do(t, http.MethodGet, srv.URL+"/api/outline/"+accepted.JobID, "", nil), &o)
	if o.Title != "OVERVIEW" || len(o.Outline) != 2 {
		t.Errorf("unexpected outline %+v", o)
	}

	csvResp := do(t, http.MethodGet, srv.URL+"/api/outline/"+accepted.JobID+"/predictions", "", nil)
	if ct := csvResp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	records, err := csv.NewReader(csvResp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 || records[1][9] != "h1" || records[2][9] != "body" {
		t.Errorf("unexpected predictions %v", records)
	}

	xlsx := do(t, http.MethodGet, srv.URL+"/api/outline/"+accepted.JobID+"/predictions?format=xlsx", "", nil)
	body, _ := io.ReadAll(xlsx.Body)
	if xlsx.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("PK")) {
		t.Errorf("expected xlsx zip payload, got status %d", xlsx.StatusCode)
	}

	bad := do(t, http.MethodGet, srv.URL+"/api/outline/"+accepted.JobID+"/predictions?format=pdf", "", nil)
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", bad.StatusCode)
	}
}

func TestOutlineNotReady(t *testing.T) {
	srv := newTestServer(t, false)
	resp := upload(t, srv, "file", "a.txt", "HELLO\n")
	var accepted struct {
		JobID string `json:"job_id"`
	}
	decode(t, resp, &accepted)

	got := do(t, http.MethodGet, srv.URL+"/api/outline/"+accepted.JobID, "", nil)
	if got.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", got.StatusCode)
	}
	missing := do(t, http.MethodGet, srv.URL+"/api/outline/nope", "", nil)
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", missing.StatusCode)
	}
}

func TestUploadUnsupported(t *testing.T) {
	srv := newTestServer(t, false)
	resp := upload(t, srv, "file", "photo.png", "x")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBatchUpload_PerFileErrors(t *testing.T) {
	srv := newTestServer(t, false)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.exe", "c.md"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write([]byte("TEXT\n"))
	}
	mw.Close()

	resp := do(t, http.MethodPost, srv.URL+"/api/outline/batch", mw.FormDataContentType(), &buf)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decode(t, resp, &out)
	if len(out.Jobs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out.Jobs))
	}
	if _, ok := out.Jobs[1]["error"]; !ok {
		t.Errorf("expected error for b.exe, got %v", out.Jobs[1])
	}
	if _, ok := out.Jobs[2]["job_id"]; !ok {
		t.Errorf("expected job for c.md, got %v", out.Jobs[2])
	}
}

func TestLinesSync(t *testing.T) {
	srv := newTestServer(t, false)
	body := `{"name":"inline","lines":[
		{"text":"1. INTRODUCTION","page":1,"line_num":0},
		{"text":"Body text","page":1,"line_num":1}]}`
	resp := do(t, http.MethodPost, srv.URL+"/api/outline/lines", "application/json", strings.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var o doctree.Outline
	decode(t, resp, &o)
	if o.Title != "1. INTRODUCTION" || len(o.Outline) != 1 || o.Outline[0].Level != "H1" {
		t.Errorf("unexpected outline %+v", o)
	}
}

func TestLinesSync_Empty(t *testing.T) {
	srv := newTestServer(t, false)
	resp := do(t, http.MethodPost, srv.URL+"/api/outline/lines", "application/json", strings.NewReader(`{"lines":[]}`))
	raw, _ := io.ReadAll(resp.Body)
	if got := strings.TrimSpace(string(raw)); got != `{
  "title": "Untitled",
  "outline": []
}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestLinesSync_BadInput(t *testing.T) {
	srv := newTestServer(t, false)
	tests := []struct {
		name string
		body string
	}{
		{"page zero", `{"lines":[{"text":"x","page":0,"line_num":0}]}`},
		{"negative line_num", `{"lines":[{"text":"x","page":1,"line_num":-1}]}`},
		{"numeric text", `{"lines":[{"text":5,"page":1,"line_num":0}]}`},
		{"malformed", `{"lines":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/outline/lines", "application/json", strings.NewReader(tt.body))
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestLinesSync_IncludeLines(t *testing.T) {
	srv := newTestServer(t, false)
	body := `{"lines":[{"text":"TITLE LINE","page":1,"line_num":0},{"text":"body","page":1,"line_num":1}]}`
	resp := do(t, http.MethodPost, srv.URL+"/api/outline/lines?include_lines=true", "application/json", strings.NewReader(body))
	var res pipeline.Result
	decode(t, resp, &res)
	if len(res.Lines) != 2 || res.Lines[1].Label != "body" || res.Lines[0].Features.IsAllCaps != 1 {
		t.Errorf("unexpected labeled lines %+v", res.Lines)
	}
}

func TestTranslateStats_Disabled(t *testing.T) {
	srv := newTestServer(t, false)
	resp := do(t, http.MethodGet, srv.URL+"/api/stats/translate", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestDocuments_NoSink(t *testing.T) {
	srv := newTestServer(t, false)
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		path := "/api/documents/doc-1"
		if method == http.MethodGet {
			path += "/outline"
		}
		resp := do(t, method, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusNotImplemented {
			t.Errorf("%s: expected 501, got %d", method, resp.StatusCode)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd.txt": "passwd.txt",
		"report.pdf":           "report.pdf",
		"":                     "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
