package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// FileSizeResponse is the body from GET /file-size?fileId=.
type FileSizeResponse struct {
	FileSizeMB float64 `json:"file_size_mb"`
}

// FileSize handles GET /file-size?fileId=… (spec.md §6). fileId is a
// job id: file size is a property of the job's output, not a
// separately addressable resource.
func (s *Server) FileSize(c *gin.Context) {
	jobID := c.Query("fileId")
	if jobID == "" {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "fileId is required", nil))
		return
	}

	job, err := s.Repo.Get(c.Request.Context(), jobID)
	if err != nil {
		respondWithError(c, apierr.New(apierr.CodeInternal, "failed to look up job", err))
		return
	}
	if job == nil {
		respondWithError(c, apierr.New(apierr.CodeNotFound, "job not found", nil))
		return
	}

	c.JSON(http.StatusOK, FileSizeResponse{FileSizeMB: job.FileSizeMB()})
}
