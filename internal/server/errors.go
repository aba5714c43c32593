package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/meterbill/internal/invoice/domain"
	meterdomain "github.com/smallbiznis/meterbill/internal/meter/domain"
	"github.com/smallbiznis/meterbill/internal/numeric"
	readingdomain "github.com/smallbiznis/meterbill/internal/reading/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Row     int    `json:"row,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
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

func mapError(err error) (int, errorPayload) {
	var batchErr *readingdomain.BatchParseError
	if errors.As(err, &batchErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "batch_parse_error",
			Message: batchErr.Error(),
			Row:     batchErr.Row,
			Raw:     batchErr.Raw,
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, meterdomain.ErrMeterConflict):
		return http.StatusConflict, errorPayload{
			Type:    "meter_conflict",
			Message: "meter belongs to another customer",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, invoicedomain.ErrRenderFailure):
		return http.StatusBadGateway, errorPayload{
			Type:    "render_failure",
			Message: "invoice document rendering failed",
		}
	case errors.Is(err, invoicedomain.ErrStorageWriteFailure):
		return http.StatusInternalServerError, errorPayload{
			Type:    "storage_write_failure",
			Message: "invoice document write failed",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, readingdomain.ErrInvalidCustomer),
		errors.Is(err, readingdomain.ErrInvalidMeter),
		errors.Is(err, readingdomain.ErrEmptyDataset),
		errors.Is(err, readingdomain.ErrInvalidTimestampFormat),
		errors.Is(err, numeric.ErrInvalidNumericFormat),
		errors.Is(err, invoicedomain.ErrInvalidCustomerID),
		errors.Is(err, invoicedomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}
