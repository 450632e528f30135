// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Responder writes JSON responses. The verbose flag is part of the explicit
// startup configuration: outside production it attaches diagnostic detail
// (and a stack for non-operational failures) to error bodies.
type Responder struct {
	verbose bool
	logger  *slog.Logger
}

func NewResponder(verbose bool, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{verbose: verbose, logger: logger}
}

type successBody struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type errorBody struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
	Stack  string `json:"stack,omitempty"`
}

func (rp *Responder) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(v)
}

func (rp *Responder) OK(w http.ResponseWriter, data any) {
	rp.JSON(w, http.StatusOK, successBody{Status: "success", Data: data})
}

func (rp *Responder) Created(w http.ResponseWriter, data any) {
	rp.JSON(w, http.StatusCreated, successBody{Status: "success", Data: data})
}

func (rp *Responder) NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error resolves err through the kind table and writes the opaque code.
// Non-operational failures are logged with full context and surfaced as a
// bare 500; callers never see internals in production.
func (rp *Responder) Error(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	body := errorBody{
		Status: "error",
		Code:   appErr.Code,
	}

	if appErr.Status >= http.StatusInternalServerError {
		rp.logger.Error("unhandled error", "error", err)
		if rp.verbose {
			body.Detail = err.Error()
			body.Stack = string(debug.Stack())
		}
	} else if rp.verbose {
		body.Detail = err.Error()
	}

	rp.JSON(w, appErr.Status, body)
}

// Invalid reports a payload validation failure. The detail is only surfaced
// outside production; callers otherwise see just INVALID_INPUT.
func (rp *Responder) Invalid(w http.ResponseWriter, detail string) {
	rp.Error(w, fmt.Errorf("%s: %w", detail, ErrInvalidInput))
}

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(
			fields,
			fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()),
		)
	}

	return strings.Join(fields, "; ")
}
