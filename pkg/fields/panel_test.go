package fields

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

func collect(dispatched *[]model.UpdateField) func(model.UpdateField) error {
	return func(msg model.UpdateField) error {
		*dispatched = append(*dispatched, msg)
		return nil
	}
}

func TestSubmitSanitizesLabel(t *testing.T) {
	var dispatched []model.UpdateField
	field := Text().NewField("t1")

	msg, err := Submit(Text(), field, url.Values{LabelKey: {"  <b>Full name</b> "}}, collect(&dispatched))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.Patch.Label == nil || *msg.Patch.Label != "Full name" {
		t.Fatalf("unexpected label patch: %#v", msg.Patch.Label)
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(dispatched))
	}
}

func TestSubmitRejectsEmptyLabel(t *testing.T) {
	var dispatched []model.UpdateField
	_, err := Submit(Text(), Text().NewField("t1"), url.Values{LabelKey: {"   "}}, collect(&dispatched))
	if !errors.Is(err, ErrInvalidPanel) {
		t.Fatalf("expected ErrInvalidPanel, got %v", err)
	}
	if len(dispatched) != 0 {
		t.Fatalf("nothing should be dispatched on error")
	}
}

func TestSubmitSkipsEmptyPatch(t *testing.T) {
	var dispatched []model.UpdateField
	msg, err := Submit(Rating(), Rating().NewField("r1"), url.Values{"meta.other": {"x"}}, collect(&dispatched))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !msg.Patch.Empty() || len(dispatched) != 0 {
		t.Fatalf("expected no dispatch, got %#v", dispatched)
	}
}

func TestSubmitPropagatesDispatchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Submit(Text(), Text().NewField("t1"), url.Values{LabelKey: {"Name"}}, func(model.UpdateField) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected dispatch error, got %v", err)
	}
}

func TestSubmitRejectsForeignField(t *testing.T) {
	_, err := Submit(Text(), Number().NewField("n"), url.Values{}, func(model.UpdateField) error { return nil })
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestPlaceholderPanelParse(t *testing.T) {
	patch, err := Time().Configurator.ParsePanel(Time().NewField("t"), url.Values{"meta.placeholder": {"<i>HH:MM</i>"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"placeholder": "HH:MM"}, patch.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
	if patch.Label != nil {
		t.Fatalf("configurator must not touch the label")
	}
}

func TestNumberPanelParse(t *testing.T) {
	field := model.Field{ID: "n", Type: model.FieldTypeNumber, Label: "数字", Meta: map[string]any{"min": 1.0, "max": 10.0}}

	t.Run("bounds", func(t *testing.T) {
		patch, err := Number().Configurator.ParsePanel(field, url.Values{"meta.min": {"2"}, "meta.step": {"0.5"}})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if diff := cmp.Diff(map[string]any{"min": 2.0, "step": 0.5}, patch.Meta); diff != "" {
			t.Fatalf("meta mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("min above stored max", func(t *testing.T) {
		_, err := Number().Configurator.ParsePanel(field, url.Values{"meta.min": {"11"}})
		if !errors.Is(err, ErrInvalidPanel) {
			t.Fatalf("expected ErrInvalidPanel, got %v", err)
		}
	})

	t.Run("blank clears", func(t *testing.T) {
		patch, err := Number().Configurator.ParsePanel(field, url.Values{"meta.max": {""}, "meta.min": {"50"}})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		updated := field.Apply(patch)
		if _, ok := updated.Meta["max"]; ok {
			t.Fatalf("blank max should remove the key: %#v", updated.Meta)
		}
		if updated.Meta["min"] != 50.0 {
			t.Fatalf("unexpected min: %#v", updated.Meta)
		}
	})

	t.Run("non numeric", func(t *testing.T) {
		_, err := Number().Configurator.ParsePanel(field, url.Values{"meta.step": {"abc"}})
		if !errors.Is(err, ErrInvalidPanel) {
			t.Fatalf("expected ErrInvalidPanel, got %v", err)
		}
	})

	t.Run("non positive step", func(t *testing.T) {
		_, err := Number().Configurator.ParsePanel(field, url.Values{"meta.step": {"0"}})
		if !errors.Is(err, ErrInvalidPanel) {
			t.Fatalf("expected ErrInvalidPanel, got %v", err)
		}
	})
}

func TestPanelRendersCurrentValues(t *testing.T) {
	engine := newTestEngine(t)
	field := model.Field{ID: "n", Type: model.FieldTypeNumber, Label: "Age", Meta: map[string]any{"placeholder": "years", "max": 99.0}}

	var buf bytes.Buffer
	if err := Number().RenderPanel(&buf, field, PanelData{Template: engine}); err != nil {
		t.Fatalf("render panel: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`name="meta.placeholder"`, `value="years"`, `name="meta.max"`, `value="99"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("panel missing %s:\n%s", want, out)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"  plain  ":               "plain",
		"<script>x</script>Name":  "Name",
		"Tom &amp; Jerry":         "Tom & Jerry",
		"<a href='x'>link</a> ok": "link ok",
	}
	for input, want := range cases {
		if got := SanitizeText(input); got != want {
			t.Errorf("SanitizeText(%q) = %q, want %q", input, got, want)
		}
	}
}
