package server

import (
	"errors"
	"net/http"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingOrgID = errors.New("organization id required")
	ErrNotMember    = errors.New("not a member of requested organization")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var permErr *claimdomain.PermissionError
	if errors.As(err, &permErr) {
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: permErr.Error(),
		}
	}

	var transErr *claimdomain.TransitionError
	if errors.As(err, &transErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_state",
			Message: transErr.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrMissingOrgID):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: ErrMissingOrgID.Error(),
		}
	case errors.Is(err, ErrNotMember):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: ErrNotMember.Error(),
		}
	case errors.Is(err, claimdomain.ErrAttachmentNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "attachment not found",
		}
	case errors.Is(err, claimdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		// Cross-org lookups surface the same way as missing claims.
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "claim not found",
		}
	case errors.Is(err, claimdomain.ErrNumberExhausted):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "claim number allocation conflict, retry the request",
		}
	case errors.Is(err, claimdomain.ErrInvalidType):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: "type", Code: "invalid_type", Message: "invalid claim type"},
			},
		}
	case errors.Is(err, claimdomain.ErrInvalidStatus):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: "status", Code: "invalid_status", Message: "invalid claim status"},
			},
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
