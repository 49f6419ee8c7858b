package fields

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	rendertemplate "github.com/goliatone/go-formbuilder/pkg/render/template"
)

func newTestEngine(t *testing.T) rendertemplate.TemplateRenderer {
	t.Helper()
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatalf("template engine: %v", err)
	}
	return engine
}

func renderField(t *testing.T, engine rendertemplate.TemplateRenderer, field model.Field, state model.FieldState) string {
	t.Helper()
	def, err := NewDefaultRegistry().Resolve(field.Type)
	if err != nil {
		t.Fatalf("resolve %s: %v", field.Type, err)
	}
	var buf bytes.Buffer
	if err := def.Render(&buf, field, RenderData{Template: engine, State: state}); err != nil {
		t.Fatalf("render %s: %v", field.Type, err)
	}
	return buf.String()
}

func TestDefaultsHaveLabelAndNoIdentity(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, fieldType := range reg.Types() {
		props := reg.MustResolve(fieldType).Defaults()
		if strings.TrimSpace(props.Label) == "" {
			t.Fatalf("%s: default label is empty", fieldType)
		}
		if _, ok := props.Meta["id"]; ok {
			t.Fatalf("%s: defaults carry an id", fieldType)
		}
		if _, ok := props.Meta["type"]; ok {
			t.Fatalf("%s: defaults carry a type", fieldType)
		}
	}
}

func TestDefaultsAreFreshPerCall(t *testing.T) {
	def := Text()
	first := def.Defaults()
	first.Meta["placeholder"] = "mutated"

	if got := def.Defaults().Meta["placeholder"]; got != "" {
		t.Fatalf("defaults leaked mutation: %v", got)
	}
}

func TestRenderInteractionStates(t *testing.T) {
	engine := newTestEngine(t)

	for _, fieldType := range NewDefaultRegistry().Types() {
		field, err := NewDefaultRegistry().NewField(fieldType)
		if err != nil {
			t.Fatalf("new field: %v", err)
		}

		t.Run(string(fieldType)+"/normal", func(t *testing.T) {
			out := renderField(t, engine, field, model.StateNormal)
			for _, banned := range []string{" disabled", "aria-disabled", " readonly", "aria-readonly", mutedClass} {
				if strings.Contains(out, banned) {
					t.Fatalf("normal render contains %q:\n%s", banned, out)
				}
			}
			if !strings.Contains(out, `data-field-state="NORMAL"`) {
				t.Fatalf("missing state marker:\n%s", out)
			}
		})

		t.Run(string(fieldType)+"/readonly", func(t *testing.T) {
			out := renderField(t, engine, field, model.StateReadonly)
			if !strings.Contains(out, `aria-readonly="true"`) {
				t.Fatalf("readonly render missing aria-readonly:\n%s", out)
			}
			if strings.Contains(out, " disabled") || strings.Contains(out, mutedClass) {
				t.Fatalf("readonly render must stay visible and enabled:\n%s", out)
			}
			if !strings.Contains(out, field.ID) {
				t.Fatalf("readonly render lost its control:\n%s", out)
			}
		})

		t.Run(string(fieldType)+"/disabled", func(t *testing.T) {
			out := renderField(t, engine, field, model.StateDisabled)
			if !strings.Contains(out, `aria-disabled="true"`) || !strings.Contains(out, " disabled") {
				t.Fatalf("disabled render missing disabled affordance:\n%s", out)
			}
			if !strings.Contains(out, mutedClass) {
				t.Fatalf("disabled render is not muted:\n%s", out)
			}
		})
	}
}

func TestRenderTabIndex(t *testing.T) {
	engine := newTestEngine(t)
	field := Text().NewField("name")
	index := 3

	var buf bytes.Buffer
	if err := Text().Render(&buf, field, RenderData{Template: engine, State: model.StateNormal, TabIndex: &index}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `tabindex="3"`) {
		t.Fatalf("expected tabindex, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := Text().Render(&buf, field, RenderData{Template: engine, State: model.StateDisabled, TabIndex: &index}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "tabindex") {
		t.Fatalf("disabled control should leave the tab order:\n%s", buf.String())
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	engine := newTestEngine(t)
	field := model.Field{ID: "x", Type: model.FieldTypeText, Label: `"><script>`, Meta: map[string]any{"placeholder": "<b>hi</b>"}}

	out := renderField(t, engine, field, model.StateNormal)
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") {
		t.Fatalf("user text not escaped:\n%s", out)
	}
}

func TestRenderRequiresTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := Text().Render(&buf, Text().NewField("a"), RenderData{}); err == nil {
		t.Fatalf("expected error without template renderer")
	}
}

func TestRenderUsesThemePartial(t *testing.T) {
	recorder := &recordingTemplateRenderer{}
	cfg := &theme.RendererConfig{Partials: map[string]string{"fields.text": "themes/acme/text.tmpl"}}

	var buf bytes.Buffer
	if err := Text().Render(&buf, Text().NewField("a"), RenderData{Template: recorder, Theme: cfg}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"themes/acme/text.tmpl"}, recorder.calls); diff != "" {
		t.Fatalf("template calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNumberRendersBounds(t *testing.T) {
	engine := newTestEngine(t)
	field := model.Field{ID: "age", Type: model.FieldTypeNumber, Label: "数字", Meta: map[string]any{"min": 0.0, "max": 120.0, "step": 0.5}}

	out := renderField(t, engine, field, model.StateNormal)
	for _, attr := range []string{`type="number"`, `min="0"`, `max="120"`, `step="0.5"`} {
		if !strings.Contains(out, attr) {
			t.Fatalf("expected %s in:\n%s", attr, out)
		}
	}
}

func TestRatingRendersStars(t *testing.T) {
	engine := newTestEngine(t)
	out := renderField(t, engine, Rating().NewField("stars"), model.StateNormal)

	if got := strings.Count(out, `type="radio"`); got != RatingMax {
		t.Fatalf("expected %d stars, got %d:\n%s", RatingMax, got, out)
	}
	if !strings.Contains(out, `value="5"`) {
		t.Fatalf("expected star values:\n%s", out)
	}
}

func TestRatingPanelIsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Rating().RenderPanel(&buf, Rating().NewField("r"), PanelData{}); err != nil {
		t.Fatalf("render panel: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rating panel should be empty, got %q", buf.String())
	}
}

// End to end: create a number field, render it, configure a placeholder and
// render again.
func TestNumberFieldLifecycle(t *testing.T) {
	engine := newTestEngine(t)
	reg := NewDefaultRegistry()
	def := reg.MustResolve(model.FieldTypeNumber)

	props := def.Defaults()
	if diff := cmp.Diff(model.Props{Label: "数字"}, props); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	field := def.NewField("n1")
	out := renderField(t, engine, field, model.StateNormal)
	if !strings.Contains(out, `type="number"`) || strings.Contains(out, " disabled") {
		t.Fatalf("expected enabled numeric input:\n%s", out)
	}

	var dispatched []model.UpdateField
	_, err := Submit(def, field, url.Values{"meta.placeholder": {"Enter a value"}}, func(msg model.UpdateField) error {
		dispatched = append(dispatched, msg)
		return nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(dispatched) != 1 || dispatched[0].ID != "n1" {
		t.Fatalf("unexpected dispatch: %#v", dispatched)
	}

	field = field.Apply(dispatched[0].Patch)
	out = renderField(t, engine, field, model.StateNormal)
	if !strings.Contains(out, `placeholder="Enter a value"`) {
		t.Fatalf("placeholder not reflected:\n%s", out)
	}
	if field.Label != "数字" {
		t.Fatalf("label changed: %q", field.Label)
	}
}

type recordingTemplateRenderer struct {
	calls []string
}

func (r *recordingTemplateRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

func (r *recordingTemplateRenderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	r.calls = append(r.calls, name)
	return "", nil
}

func (r *recordingTemplateRenderer) RenderString(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (r *recordingTemplateRenderer) RegisterFilter(string, func(input any, param any) (any, error)) error {
	return nil
}

func (r *recordingTemplateRenderer) GlobalContext(any) error {
	return nil
}
