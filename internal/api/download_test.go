package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
)

func newSucceededJob(t *testing.T, s *Server, repo *store.Memory, artifacts artifact.Store, content []byte) string {
	t.Helper()
	ctx := context.Background()

	jobID := uuid.NewString()
	if err := repo.InsertPending(ctx, jobID, "merge", nil, nil); err != nil {
		t.Fatalf("InsertPending: %v", err)
	}
	repo.ClaimNext(ctx, "worker-1")

	fileName := "DocSmart_merged_documents_" + jobID[:8] + ".pdf"
	outputPath := artifact.OutputPath(jobID, fileName)
	publicURL, err := artifacts.Upload(ctx, artifact.BucketProcessed, outputPath, bytes.NewReader(content), int64(len(content)), "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	size := int64(len(content))
	if err := repo.UpdateProgress(ctx, jobID, store.ProgressUpdate{
		Status: store.StatusSucceeded, Progress: 100,
		FileName: &fileName, PublicURL: &publicURL, OutputPath: &outputPath, FileSize: &size,
	}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	return jobID
}

func TestDownloadAllowsExactlyThreeThenGone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, repo, artifacts := newTestServer(t)
	jobID := newSucceededJob(t, s, repo, artifacts, []byte("%PDF-1.4 dummy content"))

	router := gin.New()
	router.GET("/download-proxied-file", s.Download)

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/download-proxied-file?jobId="+jobID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("download #%d: unexpected status %d body=%s", i, rec.Code, rec.Body.String())
		}
		if cd := rec.Header().Get("Content-Disposition"); cd == "" {
			t.Fatalf("download #%d: expected Content-Disposition header", i)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/download-proxied-file?jobId="+jobID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 on 4th download, got %d", rec.Code)
	}

	outputPath := artifact.OutputPath(jobID, "DocSmart_merged_documents_"+jobID[:8]+".pdf")
	if _, err := artifacts.Download(context.Background(), artifact.BucketProcessed, outputPath); err != artifact.ErrNotExist {
		t.Fatalf("expected processed artifact to be deleted once the download limit is hit, got err=%v", err)
	}
}

func TestDownloadMissingJobReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/download-proxied-file?jobId=missing", nil)
	rec := httptest.NewRecorder()

	router := gin.New()
	router.GET("/download-proxied-file", s.Download)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
