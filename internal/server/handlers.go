package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
	"github.com/goliatone/go-formbuilder/pkg/submission"
)

type createFormRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type fieldTypeRequest struct {
	Type model.FieldType `json:"type"`
}

type moveRequest struct {
	Position int `json:"position"`
}

type typeInfo struct {
	Type     model.FieldType `json:"type"`
	Defaults model.Props     `json:"defaults"`
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	registry := s.service.Registry()
	out := make([]typeInfo, 0)
	for _, fieldType := range registry.Types() {
		def := registry.MustResolve(fieldType)
		out = append(out, typeInfo{Type: fieldType, Defaults: def.Defaults()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if forms == nil {
		forms = []model.Form{}
	}
	writeJSON(w, http.StatusOK, forms)
}

// handleCreateForm accepts {name, description}. A body that also carries
// fields is imported as a complete document.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var form model.Form
	if isJSON(r) {
		if err := decodeJSON(w, r, &form); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_form_body", err.Error())
			return
		}
		form.Name = r.PostForm.Get("name")
		form.Description = r.PostForm.Get("description")
	}

	var (
		created model.Form
		err     error
	)
	if len(form.Fields) > 0 || strings.TrimSpace(form.ID) != "" {
		created, err = s.service.Import(r.Context(), form)
	} else {
		created, err = s.service.Create(r.Context(), form.Name, form.Description)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/forms/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// handleGetForm renders the form as HTML in the requested mode, or returns
// the document itself for JSON clients.
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, form)
		return
	}

	mode, ok := model.ParseFormMode(r.URL.Query().Get("mode"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_mode", "mode must be edit, fill or preview")
		return
	}
	s.renderForm(w, r, form, mode, http.StatusOK, render.ErrorMapping{})
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, form model.Form, mode model.FormMode, status int, mapping render.ErrorMapping) {
	opts := render.RenderOptions{
		Mode:          mode,
		Theme:         s.theme,
		TabIndexStart: 1,
		Hidden:        render.MergeHiddenFields(nil, render.VersionField(form.Version)),
		Errors:        mapping.Fields,
		FormErrors:    mapping.Form,
		Locale:        s.localeFor(r),
		Translator:    s.translator,
		OnMissing: func(locale, key, fallback string, err error) string {
			logging.FromContext(r.Context()).Debug("translation missing", "locale", locale, "key", key, "error", err)
			if fallback != "" {
				return fallback
			}
			return key
		},
	}
	if mode == model.ModeFill {
		opts.Action = "/forms/" + form.ID + "/submissions"
	}

	result, err := s.html.RenderForm(r.Context(), form, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, fieldErr := range result.Errors {
		logging.FromContext(r.Context()).Warn("field rendered as error",
			"form_id", form.ID, "field_id", fieldErr.FieldID, "type", fieldErr.Type, "reason", fieldErr.Reason, "error", fieldErr.Err)
	}
	writeHTML(w, status, result.HTML)
}

func (s *Server) localeFor(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		return locale
	}
	return s.locale
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddField(w http.ResponseWriter, r *http.Request) {
	fieldType, err := readFieldType(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	field, err := s.service.AddField(r.Context(), r.PathValue("id"), fieldType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

func (s *Server) handleReplaceField(w http.ResponseWriter, r *http.Request) {
	fieldType, err := readFieldType(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	field, err := s.service.ReplaceField(r.Context(), r.PathValue("id"), r.PathValue("fieldID"), fieldType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	form, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	fieldID := r.PathValue("fieldID")
	body, err := s.html.RenderPanel(r.Context(), form, fieldID, html.PanelOptions{
		Action: "/forms/" + form.ID + "/fields/" + fieldID,
		Theme:  s.theme,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

// handleUpdateField applies a configuration panel submission. Form posts go
// through the field type's configurator; JSON clients send a Patch directly.
func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("id")
	fieldID := r.PathValue("fieldID")

	if isJSON(r) {
		var patch model.Patch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if patch.Label != nil {
			label := fields.SanitizeText(*patch.Label)
			if label == "" {
				writeError(w, r, fmt.Errorf("%w: label must not be empty", fields.ErrInvalidPanel))
				return
			}
			patch.Label = &label
		}
		form, err := s.service.Dispatch(r.Context(), formID, model.UpdateField{ID: fieldID, Patch: patch})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeUpdatedField(w, r, form, fieldID)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_form_body", err.Error())
		return
	}
	form, err := s.service.Get(r.Context(), formID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	field, ok := form.Field(fieldID)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", model.ErrFieldNotFound, fieldID))
		return
	}
	def, err := s.service.Registry().Resolve(field.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := fields.Submit(def, field, r.PostForm, s.service.Dispatcher(r.Context(), formID)); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.service.Get(r.Context(), formID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeUpdatedField(w, r, updated, fieldID)
}

func writeUpdatedField(w http.ResponseWriter, r *http.Request, form model.Form, fieldID string) {
	field, ok := form.Field(fieldID)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", model.ErrFieldNotFound, fieldID))
		return
	}
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) handleMoveField(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	} else {
		position, err := strconv.Atoi(strings.TrimSpace(r.FormValue("position")))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "position must be an integer")
			return
		}
		req.Position = position
	}
	form, err := s.service.MoveField(r.Context(), r.PathValue("id"), r.PathValue("fieldID"), req.Position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleRemoveField(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.RemoveField(r.Context(), r.PathValue("id"), r.PathValue("fieldID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit stores answers. Browser posts that fail validation get the
// form back with inline messages; JSON clients get the issues as JSON.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var answers map[string]any
	browser := !isJSON(r)
	if browser {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_form_body", err.Error())
			return
		}
		if version := strings.TrimSpace(r.PostForm.Get(render.VersionFieldName)); version != "" && version != strconv.Itoa(form.Version) {
			mapping := render.ErrorMapping{Form: []string{"表单已更新，请重新填写。"}}
			s.renderForm(w, r, form, model.ModeFill, http.StatusConflict, mapping)
			return
		}
		answers = submission.FromValues(s.service.Registry(), form, r.PostForm)
	} else if err := decodeJSON(w, r, &answers); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	record, err := s.service.Submit(r.Context(), form.ID, answers, r.Header.Get(SubmitterHeader))
	if err != nil {
		var issues submission.Issues
		if browser && errors.As(err, &issues) {
			mapping := render.MapErrorPayload(form, issues)
			s.renderForm(w, r, form, model.ModeFill, http.StatusUnprocessableEntity, mapping)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Submissions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := s.identity.Get(r.PathValue("provider"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_code", "authorization code is required")
		return
	}
	user, err := provider.GetViewer(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func readFieldType(w http.ResponseWriter, r *http.Request) (model.FieldType, error) {
	var req fieldTypeRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			return "", err
		}
	} else {
		req.Type = model.FieldType(r.FormValue("type"))
	}
	if strings.TrimSpace(string(req.Type)) == "" {
		return "", errors.New("type is required")
	}
	return req.Type, nil
}
