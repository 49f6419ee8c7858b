package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/identity"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/submission"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Form    []string            `json:"form,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as an internal error without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, document.ErrFormNotFound):
		writeJSONError(w, http.StatusNotFound, "form_not_found", "form not found")
	case errors.Is(err, model.ErrFieldNotFound):
		writeJSONError(w, http.StatusNotFound, "field_not_found", "field not found")
	case errors.Is(err, identity.ErrProviderNotFound):
		writeJSONError(w, http.StatusNotFound, "provider_not_found", "unknown login provider")
	case errors.Is(err, identity.ErrThirdUser):
		logging.FromContext(r.Context()).Warn("third-party login failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "third_user", "unable to sign in with the provider")
	case errors.Is(err, fields.ErrNotFound):
		writeJSONError(w, http.StatusBadRequest, "unknown_type", err.Error())
	case errors.Is(err, fields.ErrInvalidPanel):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_panel", err.Error())
	case errors.Is(err, document.ErrInvalidForm), errors.Is(err, model.ErrDuplicateFieldID):
		writeJSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
	case errors.Is(err, submission.ErrInvalid):
		var issues submission.Issues
		errors.As(err, &issues)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_submission",
			Message: "submission has invalid answers",
			Fields:  fieldIssues(issues),
			Form:    issues[submission.FormLevel],
		})
	default:
		logging.FromContext(r.Context()).Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func fieldIssues(issues submission.Issues) map[string][]string {
	out := make(map[string][]string, len(issues))
	for key, messages := range issues {
		if key != submission.FormLevel {
			out[key] = messages
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.TrimSpace(r.Header.Get("Content-Type")), "application/json")
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return decoder.Decode(out)
}

const maxBodyBytes = 1 << 20
