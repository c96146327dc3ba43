package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// respondWithError maps an apierr.Error's Code onto an HTTP status and
// writes the {code, message} body every endpoint uses for failures
// (spec.md §4.3, §7).
func respondWithError(c *gin.Context, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apierr.CodeInternal,
			"message": "internal error",
		})
		return
	}

	c.JSON(statusForCode(apiErr.Code), gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	})
}

func statusForCode(code string) int {
	switch code {
	case apierr.CodeInvalidInput:
		return http.StatusBadRequest
	case apierr.CodeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case apierr.CodeNotFound:
		return http.StatusNotFound
	case apierr.CodeGone:
		return http.StatusGone
	case apierr.CodeTimeout:
		return http.StatusGatewayTimeout
	case apierr.CodeUnsupportedPDF, apierr.CodeToolFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
