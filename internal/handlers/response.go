package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/sirupsen/logrus"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status    int            `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"requestId,omitempty"`
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data"`
	Error     *ErrorBody     `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeNotFound             = "NOT_FOUND"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeNotAllowedValue      = "NOT_ALLOWED_VALUE"
	CodeFileUploadFailed     = "FILE_UPLOAD_FAILED"
	CodeSearchResultNotExist = "SEARCH_RESULT_NOT_EXIST"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternal             = "INTERNAL_ERROR"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{apperr.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{apperr.ErrPermissionDenied, http.StatusForbidden, CodePermissionDenied},
	{apperr.ErrNotAllowedValue, http.StatusBadRequest, CodeNotAllowedValue},
	{apperr.ErrFileUploadFailed, http.StatusBadRequest, CodeFileUploadFailed},
	{apperr.ErrSearchResultNotExist, http.StatusNotFound, CodeSearchResultNotExist},
	{apperr.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeOK writes a success envelope. data may be nil.
func writeOK(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, status, Envelope{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: middleware.GetReqID(r.Context()),
		Success:   true,
		Data:      data,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Envelope{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: middleware.GetReqID(r.Context()),
		Success:   false,
		Message:   message,
		Data:      map[string]any{},
		Error:     &ErrorBody{Code: code, Message: message},
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
}

// Unauthorized writes the 401 envelope used by the auth middleware.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}

// writeAppError maps a service error to its status. Unknown errors are logged
// and reported as 500 without detail.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			writeError(w, r, m.status, m.code, apperr.Message(err, m.kind.Error()))
			return
		}
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).Error("request failed")
	writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Healthz reports that the process is serving requests.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, http.StatusOK, nil)
}
