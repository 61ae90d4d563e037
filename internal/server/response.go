package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in ErrorInfo.Code.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidID    = "INVALID_ID"
	CodeInvalidField = "INVALID_FIELD"
	CodeNotEditable  = "FIELD_NOT_EDITABLE"
	CodeInvalidValue = "INVALID_VALUE"
	CodeTypeMismatch = "TYPE_MISMATCH"
	CodeEmptyDelta   = "EMPTY_DELTA"
	CodeBadRequest   = "BAD_REQUEST"
	CodeInternal     = "INTERNAL"
	CodeUnavailable  = "UNAVAILABLE"
)

// errorCodes maps sentinel errors to status and code. Order matters only
// for errors that wrap more than one sentinel.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{types.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{types.ErrInvalidID, http.StatusBadRequest, CodeInvalidID},
	{types.ErrFieldNotEditable, http.StatusBadRequest, CodeNotEditable},
	{types.ErrInvalidField, http.StatusBadRequest, CodeInvalidField},
	{types.ErrInvalidValue, http.StatusBadRequest, CodeInvalidValue},
	{types.ErrTypeMismatch, http.StatusBadRequest, CodeTypeMismatch},
	{types.ErrEmptyDelta, http.StatusBadRequest, CodeEmptyDelta},
	{types.ErrDetached, http.StatusServiceUnavailable, CodeUnavailable},
}

// CodeError returns the sentinel error for an error code, or nil when the
// code has no sentinel.
func CodeError(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}

func statusFor(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: true, Data: payload})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: &ErrorInfo{Code: code, Message: message}})
}
