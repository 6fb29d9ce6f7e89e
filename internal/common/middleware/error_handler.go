package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/logger"
)

// ErrorHandler recovers panics and renders them as structured errors.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithRequestID(requestID).
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr)
	})
}

// RequestID assigns every request an ID, preserving a caller-provided one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := getRequestID(c)

	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	statusCode := getHTTPStatusCode(appErr)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(appErr, c)

	c.JSON(statusCode, response)
}

func getHTTPStatusCode(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUserNotFound, errors.ErrCodeNovelNotFound,
		errors.ErrCodeChapterNotFound, errors.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized, errors.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeUserBanned:
		return http.StatusForbidden
	case errors.ErrCodeConflict, errors.ErrCodePaymentNotPending:
		return http.StatusConflict
	case errors.ErrCodeTooManyRequests, errors.ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case errors.ErrCodeChapterLocked, errors.ErrCodeInsufficientCoins:
		return http.StatusPaymentRequired
	case errors.ErrCodePaymentNotConfigured:
		return http.StatusServiceUnavailable
	case errors.ErrCodeCaptureDeclined:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeDatabaseError, errors.ErrCodeTransactionFailed,
		errors.ErrCodeConnectionFailed, errors.ErrCodeCreditFailed:
		return http.StatusInternalServerError
	case errors.ErrCodeCacheError, errors.ErrCodeCacheMiss:
		return http.StatusServiceUnavailable
	case errors.ErrCodePayPalAPI, errors.ErrCodeExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logError(appErr *errors.AppError, c *gin.Context) {
	requestID := getRequestID(c)
	userID := getUserID(c)

	event := func(e *zerolog.Event) *zerolog.Event {
		e = e.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("error_code", string(appErr.Code)).
			Str("error_message", appErr.Message).
			Time("timestamp", appErr.Timestamp)

		if userID != "" {
			e = e.Str("user_id", userID)
		}
		if len(appErr.Details) > 0 {
			detailsJSON, _ := json.Marshal(appErr.Details)
			e = e.RawJSON("details", detailsJSON)
		}
		if appErr.Cause != nil {
			e = e.Err(appErr.Cause)
		}
		return e
	}

	switch {
	case appErr.IsInternal():
		event(logger.Error()).Msg("Internal error occurred")
	case appErr.IsUnauthorized():
		event(logger.Warn()).Msg("Unauthorized access attempt")
	case appErr.IsValidation():
		event(logger.Info()).Msg("Validation error")
	case appErr.IsNotFound():
		event(logger.Info()).Msg("Resource not found")
	default:
		event(logger.Error()).Msg("Application error occurred")
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}

func getUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// HandleError renders err through the shared error envelope. Handlers call it
// instead of writing ad-hoc JSON errors.
func HandleError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		sendErrorResponse(c, appErr)
		return
	}

	appErr := errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred").
		WithRequestID(getRequestID(c)).
		WithUserID(getUserID(c))

	sendErrorResponse(c, appErr)
}
