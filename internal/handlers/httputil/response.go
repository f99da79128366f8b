// Package httputil holds the JSON plumbing shared by the REST handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/encoding"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Success bool                   `json:"success"`
}

// RespondJSON writes v with status. The body is encoded before the header
// is sent so an encoding failure still answers 500.
func RespondJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	buf := encoding.GetBuffer()
	defer encoding.PutBuffer(buf)

	w.Header().Set("Content-Type", "application/json")
	if err := encoding.EncodeJSONToBuffer(buf, v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error","code":"INTERNAL","success":false}` + "\n"))
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// StatusFor maps an error to its HTTP status
func StatusFor(err error) int {
	switch {
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsAuthError(err):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrorCodeGatewayDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps err to a status and writes the error body. Internal
// errors are logged and their detail is not exposed.
func RespondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	body := ErrorResponse{Code: string(domain.ErrorCodeInternalError), Error: "internal server error"}

	var domainErr *domain.DomainError
	if status != http.StatusInternalServerError && errors.As(err, &domainErr) {
		body = ErrorResponse{
			Code:    string(domainErr.Code),
			Error:   domainErr.Message,
			Details: domainErr.Details,
		}
		if len(body.Details) == 0 {
			body.Details = nil
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	RespondJSON(w, logger, status, body)
}

// DecodeJSON reads a JSON body into v. Malformed input is a validation error.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request body", err)
	}
	return nil
}

// ParseDate parses an optional YYYY-MM-DD value. Empty input returns nil.
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseISODate(value)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationFailed,
			fmt.Sprintf("%s must be a YYYY-MM-DD date", field), err).WithDetail("field", field)
	}
	return &t, nil
}

// AsOf returns the as_of query date, or now when absent
func AsOf(r *http.Request, now time.Time) (time.Time, error) {
	t, err := ParseDate("as_of", r.URL.Query().Get("as_of"))
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return now, nil
	}
	return *t, nil
}
