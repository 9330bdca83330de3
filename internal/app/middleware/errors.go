package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"pr-reviewer/internal/domain"
)

// Envelope is embedded into every response body.
type Envelope struct {
	Success bool `json:"success"`
}

// OK is the envelope of a successful response.
var OK = Envelope{Success: true}

// ErrorResponse is the failure body: {"success": false, "error": {...}}
type ErrorResponse struct {
	Envelope
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteErrorResponse maps err to its code and HTTP status. Internal details
// never reach the client.
func WriteErrorResponse(w http.ResponseWriter, err error, logger *zap.Logger) {
	statusCode := domain.GetHTTPStatus(err)

	if statusCode == http.StatusInternalServerError {
		logger.Error("internal server error",
			zap.Error(err),
			zap.Int("status", statusCode),
		)
	}

	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    string(domain.GetErrorCode(err)),
			Message: domain.PublicMessage(err),
		},
	}, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.statusCode = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.ResponseWriter.Write(b)
}
