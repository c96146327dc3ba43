package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
)

func TestStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/process-pdf?jobId=missing", nil)
	rec := httptest.NewRecorder()

	router := gin.New()
	router.GET("/process-pdf", s.Status)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestStatusSucceededIncludesDownloadLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, repo, _ := newTestServer(t)
	ctx := context.Background()

	jobID := uuid.NewString()
	if err := repo.InsertPending(ctx, jobID, "merge", []string{"public/" + jobID + "/raw/a.pdf"}, nil); err != nil {
		t.Fatalf("InsertPending: %v", err)
	}
	repo.ClaimNext(ctx, "worker-1")
	fileName := "DocSmart_merged_documents_" + jobID[:8] + ".pdf"
	publicURL := "http://localhost/x.pdf"
	outputPath := "public/" + jobID + "/" + fileName
	size := int64(1234)
	err := repo.UpdateProgress(ctx, jobID, store.ProgressUpdate{
		Status: store.StatusSucceeded, Progress: 100,
		FileName: &fileName, PublicURL: &publicURL, OutputPath: &outputPath, FileSize: &size,
	})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/process-pdf?jobId="+jobID, nil)
	rec := httptest.NewRecorder()

	router := gin.New()
	router.GET("/process-pdf", s.Status)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Status != "succeeded" || resp.Progress != 100 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.DownloadLink != "/download-proxied-file?jobId="+jobID {
		t.Fatalf("unexpected download link: %q", resp.DownloadLink)
	}
}
