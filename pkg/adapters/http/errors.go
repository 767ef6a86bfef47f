package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/govform/internal/auth"
	"github.com/aretw0/govform/pkg/documents"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/sanitize"
	"github.com/aretw0/govform/pkg/wizard"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields domain.FieldErrors `json:"fields,omitempty"`
	Step   string             `json:"step,omitempty"`
	Reason string             `json:"reason,omitempty"`
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		verr *wizard.ValidationError
		rej  *documents.RejectionError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &rej):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrFieldType),
		errors.Is(err, domain.ErrStepOutOfRange),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSubmitted),
		errors.Is(err, domain.ErrNotSubmitted),
		errors.Is(err, domain.ErrNoPendingConfirmation),
		errors.Is(err, domain.ErrSubmissionInFlight),
		errors.Is(err, domain.ErrAwaitingConfirmation):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, errMissingToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Error: err.Error()}

	var (
		verr *wizard.ValidationError
		rej  *documents.RejectionError
	)
	if errors.As(err, &verr) {
		resp.Fields = verr.Errors
		resp.Step = verr.Step.String()
	}
	if errors.As(err, &rej) {
		resp.Reason = string(rej.Reason)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		resp.Error = http.StatusText(status)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}
