package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// StatusResponse is the 200 body from GET /process-pdf?jobId=.
type StatusResponse struct {
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	OutputFileName string `json:"outputFileName,omitempty"`
	DownloadLink   string `json:"downloadLink,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Status handles GET /process-pdf?jobId=… (spec.md §6).
func (s *Server) Status(c *gin.Context) {
	jobID := c.Query("jobId")
	if jobID == "" {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "jobId is required", nil))
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

	resp := StatusResponse{
		Status:   string(job.Status),
		Progress: job.Progress,
		Error:    job.ErrorMessage,
	}
	if job.FileName != "" {
		resp.OutputFileName = job.FileName
		resp.DownloadLink = "/download-proxied-file?jobId=" + jobID
	}

	c.JSON(http.StatusOK, resp)
}
