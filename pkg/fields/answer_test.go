package fields

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

type scriptedPrompter struct {
	answers  []string
	choice   int
	warnings []string
	asked    []Question
}

func (s *scriptedPrompter) Ask(_ context.Context, q Question) (string, error) {
	s.asked = append(s.asked, q)
	if len(s.answers) == 0 {
		return "", errors.New("no answer scripted")
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func (s *scriptedPrompter) Choose(context.Context, Choice) (int, error) {
	return s.choice, nil
}

func (s *scriptedPrompter) Warn(_ context.Context, msg string) error {
	s.warnings = append(s.warnings, msg)
	return nil
}

func TestParseNumberRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-infinity", "1e400", "abc", ""} {
		if _, err := ParseNumber(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
	got, err := ParseNumber(" 2.5 ")
	if err != nil || got != 2.5 {
		t.Fatalf("ParseNumber(2.5) = %v, %v", got, err)
	}
}

func TestDecodeKeepsUndecodableInput(t *testing.T) {
	number := Number().NewField("n")
	if got := Number().Answer.Decode(number, "12"); got != 12.0 {
		t.Fatalf("expected 12, got %#v", got)
	}
	if got := Number().Answer.Decode(number, "NaN"); got != "NaN" {
		t.Fatalf("expected raw NaN, got %#v", got)
	}
	if got := Rating().Answer.Decode(Rating().NewField("r"), "4"); got != 4.0 {
		t.Fatalf("expected 4, got %#v", got)
	}
	if got := Time().Answer.Decode(Time().NewField("t"), "9:00"); got != "9:00" {
		t.Fatalf("expected raw time, got %#v", got)
	}
}

func TestSchemasCarryFieldConstraints(t *testing.T) {
	field := Number().NewField("n")
	field.Meta = map[string]any{"min": 1.0, "max": 3.0}
	schema := Number().Answer.Schema(field)
	if schema.Min == nil || *schema.Min != 1 || schema.Max == nil || *schema.Max != 3 {
		t.Fatalf("bounds not applied: %+v", schema)
	}
	if err := schema.VisitJSON(4.0); err == nil {
		t.Fatalf("expected 4 to exceed max")
	}

	if err := Time().Answer.Schema(Time().NewField("t")).VisitJSON("9:00"); err == nil {
		t.Fatalf("expected time pattern to reject 9:00")
	}
	if err := Rating().Answer.Schema(Rating().NewField("r")).VisitJSON(float64(RatingMax + 1)); err == nil {
		t.Fatalf("expected rating above max to fail")
	}
}

func TestNumberPromptRepeatsUntilValid(t *testing.T) {
	field := Number().NewField("n")
	field.Label = "Age"
	field.Meta = map[string]any{"min": 0.0, "max": 10.0}

	p := &scriptedPrompter{answers: []string{"NaN", "11", " 4 "}}
	value, ok, err := Number().Answer.Prompt(context.Background(), field, p)
	if err != nil || !ok || value != 4.0 {
		t.Fatalf("Prompt = %v, %v, %v", value, ok, err)
	}
	want := []string{"Invalid Age: not a number", "Invalid Age: must be at most 10"}
	if diff := cmp.Diff(want, p.warnings); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}
	if p.asked[0].Help != "min 0, max 10" {
		t.Fatalf("unexpected help %q", p.asked[0].Help)
	}
}

func TestPromptBlankMeansUnanswered(t *testing.T) {
	for _, def := range []Definition{Text(), Number(), Time()} {
		p := &scriptedPrompter{answers: []string{"   "}}
		_, ok, err := def.Answer.Prompt(context.Background(), def.NewField("x"), p)
		if err != nil || ok {
			t.Fatalf("%s: expected unanswered, got ok=%v err=%v", def.Type, ok, err)
		}
	}
}

func TestTimeAndRatingPrompts(t *testing.T) {
	p := &scriptedPrompter{answers: []string{"25:00", "7:05"}}
	value, ok, err := Time().Answer.Prompt(context.Background(), Time().NewField("t"), p)
	if err != nil || !ok || value != "07:05" {
		t.Fatalf("time Prompt = %v, %v, %v", value, ok, err)
	}
	if len(p.warnings) != 1 || !strings.Contains(p.warnings[0], "expected HH:MM") {
		t.Fatalf("unexpected warnings %v", p.warnings)
	}

	value, ok, err = Rating().Answer.Prompt(context.Background(), Rating().NewField("r"), &scriptedPrompter{choice: 2})
	if err != nil || !ok || value != 3 {
		t.Fatalf("rating Prompt = %v, %v, %v", value, ok, err)
	}
	if _, _, err := Rating().Answer.Prompt(context.Background(), Rating().NewField("r"), &scriptedPrompter{choice: RatingMax}); err == nil {
		t.Fatalf("expected out of range selection to fail")
	}
}

func TestPromptLabelFallsBackToID(t *testing.T) {
	if got := PromptLabel(model.Field{ID: "f1"}); got != "f1" {
		t.Fatalf("expected id, got %q", got)
	}
}
