package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
)

// Download implements the proxied-download gate exactly per spec.md
// §4.6: fetch, atomically bump access count (which may delete the job
// and its artifact as a side effect), then stream.
func (s *Server) Download(c *gin.Context) {
	jobID := c.Query("jobId")
	if jobID == "" {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "jobId is required", nil))
		return
	}

	ctx := c.Request.Context()

	job, err := s.Repo.Get(ctx, jobID)
	if err != nil {
		respondWithError(c, apierr.New(apierr.CodeInternal, "failed to look up job", err))
		return
	}
	if job == nil || job.PublicURL == "" {
		respondWithError(c, apierr.New(apierr.CodeNotFound, "job or output not found", nil))
		return
	}

	result, err := s.Repo.IncrementAccessAndMaybeDelete(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		// The record was removed between Get and the increment, e.g. by a
		// concurrent download that crossed the threshold.
		respondWithError(c, apierr.New(apierr.CodeGone, "artifact has expired or reached its download limit", nil))
		return
	}
	if err != nil {
		respondWithError(c, apierr.New(apierr.CodeInternal, "failed to record download access", err))
		return
	}
	if result.Deleted {
		// The job record is already gone by this point (IncrementAccessAndMaybeDelete
		// deletes it atomically on the threshold-crossing call); the artifact
		// still needs cleaning up so it doesn't outlive its record.
		if err := s.Artifacts.DeletePrefix(ctx, artifact.BucketProcessed, artifact.OutputPrefix(jobID)); err != nil {
			log.Printf("job %s: failed to delete processed artifact after download limit: %v", jobID, err)
		}
		respondWithError(c, apierr.New(apierr.CodeGone, "artifact has expired or reached its download limit", nil))
		return
	}

	rc, err := s.Artifacts.Download(ctx, artifact.BucketProcessed, job.OutputPath)
	if err != nil {
		respondWithError(c, apierr.New(apierr.CodeNotFound, "artifact bytes not found", err))
		return
	}
	defer rc.Close()

	encodedName := url.PathEscape(job.FileName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", job.FileName, encodedName))
	c.Header("Cache-Control", "no-store")

	contentType := "application/octet-stream"
	if job.FileSize > 0 {
		c.DataFromReader(http.StatusOK, job.FileSize, contentType, rc, nil)
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, rc)
}
