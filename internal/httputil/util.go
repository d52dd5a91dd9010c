package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/sensord/internal/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
		maxBytesErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, "invalid value for %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, "body must not be empty")
	case errors.As(err, &maxBytesErr):
		RespError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		RespInternalError(ctx, w, "failed to decode json: %v", err)
	}
}

func RespJSON(ctx context.Context, w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(ctx).Errorf("unable write response: %v", err)
	}
}

func RespError(ctx context.Context, w http.ResponseWriter, code int, format string, args ...interface{}) {
	RespJSON(ctx, w, code, ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespError(ctx, w, http.StatusBadRequest, "%s", msg)
}

// RespInternalError logs the cause and hides it from the client.
func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	RespError(ctx, w, http.StatusInternalServerError, "internal error")
}
