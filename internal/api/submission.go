package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
)

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// expectedFamilyOK reports whether detected matches the content family
// a tool_id accepts as input: PDF for every PDF-native tool, image/*
// for img2pdf, and DOCX for docxToPdf.
func expectedFamilyOK(id tools.ID, detected *mimetype.MIME) bool {
	switch id {
	case tools.ImageToPDF:
		return strings.HasPrefix(detected.String(), "image/")
	case tools.DocxToPDF:
		return detected.Is(mimeDocx)
	default:
		return detected.Is(mimePDF)
	}
}

// SubmissionResponse is the 202 body from POST /process-pdf.
type SubmissionResponse struct {
	Success                  bool   `json:"success"`
	JobID                    string `json:"jobId"`
	StatusCheckLink          string `json:"statusCheckLink"`
	QueuePosition            *int   `json:"queuePosition,omitempty"`
	EstimatedWaitTimeSeconds *int   `json:"estimatedWaitTimeSeconds,omitempty"`
}

// Submission handles POST /process-pdf: validates the multipart form,
// mints a job id, uploads each raw input under it, inserts the pending
// job, and returns an ETA derived from queue depth (spec.md §6, §5
// backpressure note).
func (s *Server) Submission(c *gin.Context) {
	toolID := c.PostForm("toolId")
	if toolID == "" {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "toolId is required", nil))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "expected multipart/form-data", err))
		return
	}
	files := form.File["files[]"]
	if len(files) == 0 {
		respondWithError(c, apierr.New(apierr.CodeInvalidInput, "at least one file is required in files[]", nil))
		return
	}

	options, err := parseOptions(c.PostForm("options"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := s.Registry.Validate(tools.ID(toolID), len(files), options); err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	jobID := uuid.NewString()

	inputPaths := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > s.MaxFileSize {
			respondWithError(c, apierr.New(apierr.CodeLimitExceeded, "uploaded file exceeds the maximum allowed size", nil))
			return
		}

		src, err := fh.Open()
		if err != nil {
			respondWithError(c, apierr.New(apierr.CodeInvalidInput, "failed to read uploaded file", err))
			return
		}

		// Sniff the real content type from the file's signature rather than
		// trusting the client-supplied Content-Type header.
		detected, err := mimetype.DetectReader(src)
		if err != nil {
			src.Close()
			respondWithError(c, apierr.New(apierr.CodeInvalidInput, "unable to determine file type", err))
			return
		}
		if !expectedFamilyOK(tools.ID(toolID), detected) {
			src.Close()
			respondWithError(c, apierr.New(apierr.CodeInvalidInput,
				"file \""+fh.Filename+"\" has type "+detected.String()+", which "+toolID+" does not accept", nil))
			return
		}

		if _, err := src.Seek(0, io.SeekStart); err != nil {
			src.Close()
			respondWithError(c, apierr.New(apierr.CodeInternal, "failed to rewind uploaded file", err))
			return
		}

		path := artifact.RawInputPath(jobID, fh.Filename)
		_, uploadErr := s.Artifacts.Upload(ctx, artifact.BucketRawInputs, path, src, fh.Size, detected.String())
		src.Close()
		if uploadErr != nil {
			respondWithError(c, apierr.New(apierr.CodeInternal, "failed to store uploaded file", uploadErr))
			return
		}
		inputPaths = append(inputPaths, path)
	}

	if err := s.Repo.InsertPending(ctx, jobID, toolID, inputPaths, options); err != nil {
		respondWithError(c, apierr.New(apierr.CodeInternal, "failed to enqueue job", err))
		return
	}

	resp := SubmissionResponse{
		Success:         true,
		JobID:           jobID,
		StatusCheckLink: "/process-pdf?jobId=" + jobID,
	}

	if counts, err := s.Repo.QueueCounts(ctx); err == nil {
		position := counts.Pending
		wait := position * s.AverageJobTimeSeconds
		resp.QueuePosition = &position
		resp.EstimatedWaitTimeSeconds = &wait
	}

	if s.Wake != nil {
		_ = s.Wake.Notify(ctx)
	}

	c.JSON(http.StatusAccepted, resp)
}

func parseOptions(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var options map[string]any
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, apierr.New(apierr.CodeInvalidInput, "options must be a JSON object", err)
	}
	return options, nil
}
