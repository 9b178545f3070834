package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// RequestHeaders are the headers of a relay intake request.
type RequestHeaders struct {
	IdempotencyKey string `header:"Idempotency-Key" binding:"required,max=255"`
	RequestID      string `header:"X-Request-Id" binding:"omitempty,max=128"`
}

// BindHeaders binds and validates the request headers.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindHeaders(c *gin.Context, out *RequestHeaders) error {
	if err := c.ShouldBindHeader(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid_headers",
			"fields": headerErrorsToMap(err),
		})
		return err
	}
	return nil
}

func headerErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}

// WriteViolations writes a 422 listing every violation if err carries them.
// It reports whether a response was written.
func WriteViolations(c *gin.Context, err error) bool {
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":      "validation_failed",
		"violations": verr.Violations,
	})
	return true
}
