package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
)

// Delete handles DELETE /delete-processed-file?jobId=… (spec.md §6).
// It is idempotent: deleting an already-gone job still returns success.
func (s *Server) Delete(c *gin.Context) {
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
	if job != nil && job.OutputPath != "" {
		if err := s.Artifacts.DeletePrefix(ctx, artifact.BucketProcessed, artifact.OutputPrefix(jobID)); err != nil {
			respondWithError(c, apierr.New(apierr.CodeInternal, "failed to delete artifact", err))
			return
		}
	}

	if err := s.Repo.Delete(ctx, jobID); err != nil && err != store.ErrNotFound {
		respondWithError(c, apierr.New(apierr.CodeInternal, "failed to delete job record", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
