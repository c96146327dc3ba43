package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
)

func newTestServer(t *testing.T) (*Server, *store.Memory, artifact.Store) {
	t.Helper()
	repo := store.NewMemory(3)
	root := t.TempDir()
	artifacts := artifact.NewLocalStore(root, "http://localhost:8080/artifacts")
	registry := tools.NewRegistry(tools.HandlerConfig{})
	return &Server{
		Repo:                  repo,
		Artifacts:             artifacts,
		Registry:              registry,
		MaxFileSize:           10 << 20,
		AverageJobTimeSeconds: 30,
	}, repo, artifacts
}

type submissionFile struct {
	name    string
	content []byte
}

func multipartSubmission(t *testing.T, toolID, options string, files ...submissionFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("toolId", toolID); err != nil {
		t.Fatalf("write toolId field: %v", err)
	}
	if options != "" {
		if err := writer.WriteField("options", options); err != nil {
			t.Fatalf("write options field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := writer.CreateFormFile("files[]", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(f.content)); err != nil {
			t.Fatalf("write file content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func submitAndRecord(s *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/process-pdf", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router := gin.New()
	router.POST("/process-pdf", s.Submission)
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmissionSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, repo, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "rotate", `{"angle":90,"pages":[1]}`,
		submissionFile{"a.pdf", []byte("%PDF-1.4 dummy")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp SubmissionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Success || resp.JobID == "" {
		t.Fatalf("unexpected response: %#v", resp)
	}

	job, err := repo.Get(context.Background(), resp.JobID)
	if err != nil || job == nil {
		t.Fatalf("expected job to be inserted, got job=%#v err=%v", job, err)
	}
	if job.ToolID != "rotate" || len(job.InputFilePaths) != 1 {
		t.Fatalf("unexpected job record: %#v", job)
	}
	if job.Options["angle"] != float64(90) {
		t.Fatalf("expected options to round-trip, got %#v", job.Options)
	}
}

func TestSubmissionMergeAcceptsMultipleFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, repo, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "merge", "",
		submissionFile{"a.pdf", []byte("%PDF-1.4 dummy a")},
		submissionFile{"b.pdf", []byte("%PDF-1.4 dummy b")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp SubmissionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	job, err := repo.Get(context.Background(), resp.JobID)
	if err != nil || job == nil {
		t.Fatalf("expected job to be inserted, got job=%#v err=%v", job, err)
	}
	if len(job.InputFilePaths) != 2 {
		t.Fatalf("expected 2 input files, got %#v", job.InputFilePaths)
	}
}

func TestSubmissionRejectsUnknownToolID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "not-a-real-tool", "",
		submissionFile{"a.pdf", []byte("dummy")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionRejectsWrongArity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	// merge requires at least 2 files.
	body, contentType := multipartSubmission(t, "merge", "",
		submissionFile{"a.pdf", []byte("dummy")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionRejectsMalformedPageRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "split", `{"pageRange":"3-1"}`,
		submissionFile{"a.pdf", []byte("dummy")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionRejectsMismatchedFileType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "rotate", `{"angle":90,"pages":[1]}`,
		submissionFile{"a.pdf", []byte("this is plain text, not a pdf")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionImageToPDFAcceptsImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, repo, _ := newTestServer(t)

	pngHeader := []byte("\x89PNG\r\n\x1a\n" + "rest of a fake png payload")
	body, contentType := multipartSubmission(t, "img2pdf", "",
		submissionFile{"photo.png", pngHeader})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp SubmissionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if job, err := repo.Get(context.Background(), resp.JobID); err != nil || job == nil {
		t.Fatalf("expected job to be inserted, got job=%#v err=%v", job, err)
	}
}

func TestSubmissionRejectsExtractTextWrongArity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "extractText", "",
		submissionFile{"a.pdf", []byte("dummy a")},
		submissionFile{"b.pdf", []byte("dummy b")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionRejectsMissingPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body, contentType := multipartSubmission(t, "protectPdf", "",
		submissionFile{"a.pdf", []byte("dummy")})

	rec := submitAndRecord(s, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmissionMissingToolID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, _ := writer.CreateFormFile("files[]", "a.pdf")
	io.Copy(fw, bytes.NewReader([]byte("dummy")))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-pdf", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router := gin.New()
	router.POST("/process-pdf", s.Submission)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestSubmissionNoFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("toolId", "merge")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-pdf", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router := gin.New()
	router.POST("/process-pdf", s.Submission)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
