package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	revisiondomain "github.com/smallbiznis/taxsuite/internal/revision/domain"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
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

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case errors.Is(err, revisiondomain.ErrStaleRevision):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "assessment was revised by someone else; reload it and submit again with the current revision count",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
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

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, assessmentdomain.ErrInvalidCompany),
		errors.Is(err, assessmentdomain.ErrInvalidID),
		errors.Is(err, assessmentdomain.ErrNegativeCredit),
		errors.Is(err, assessmentdomain.ErrInvalidPageToken),
		errors.Is(err, fiscal.ErrInvalidYear),
		errors.Is(err, fiscal.ErrInvalidQuarter),
		errors.Is(err, rulepackdomain.ErrInvalidRegime),
		errors.Is(err, rulepackdomain.ErrInvalidVersion),
		errors.Is(err, rulepackdomain.ErrNegativeIncome),
		errors.Is(err, reconciliation.ErrUnknownCategory),
		errors.Is(err, reconciliation.ErrNegativeAmount),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidQuarter),
		errors.Is(err, paymentdomain.ErrInvalidDate),
		errors.Is(err, revisiondomain.ErrReasonRequired),
		errors.Is(err, matdomain.ErrInvalidCompany),
		errors.Is(err, matdomain.ErrInvalidAmount):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, assessmentdomain.ErrAlreadyExists),
		errors.Is(err, assessmentdomain.ErrFinalized),
		errors.Is(err, assessmentdomain.ErrNotActive),
		errors.Is(err, revisiondomain.ErrAssessmentLocked),
		errors.Is(err, matdomain.ErrEntryExists),
		errors.Is(err, matdomain.ErrInsufficientDraws),
		errors.Is(err, matdomain.ErrOverdraw):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, assessmentdomain.ErrNotFound),
		errors.Is(err, rulepackdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
