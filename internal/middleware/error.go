package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"vendormart/internal/apperr"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response with a generic code
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, http.StatusText(statusCode), message, nil)
}

// RespondWithAppError maps a business error to its status and stable machine
// code. Errors outside the taxonomy become opaque 500s.
func RespondWithAppError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)

	if status == http.StatusInternalServerError {
		logger.Error("Unhandled error", zap.Error(err))
		if code == "" {
			code = "INTERNAL_ERROR"
		}
		writeError(w, status, code, "internal server error", nil)
		return
	}

	writeError(w, status, code, err.Error(), nil)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	details := map[string]interface{}{"validation_errors": errors}
	writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", details)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
