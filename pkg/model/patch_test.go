package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFieldApply_OverwritesSameKey(t *testing.T) {
	field := Field{ID: "f1", Type: FieldTypeText, Label: "文本", Meta: map[string]any{"placeholder": "a"}}

	got := field.Apply(Patch{Meta: map[string]any{"placeholder": "b"}})

	want := map[string]any{"placeholder": "b"}
	if diff := cmp.Diff(want, got.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
	if field.Meta["placeholder"] != "a" {
		t.Fatalf("receiver mutated: %#v", field.Meta)
	}
}

func TestFieldApply_LabelOnlyLeavesMeta(t *testing.T) {
	field := Field{ID: "f1", Type: FieldTypeText, Label: "文本", Meta: map[string]any{"placeholder": "a", "hint": "h"}}

	got := field.Apply(Patch{Label: StringPtr("Name")})

	if got.Label != "Name" {
		t.Fatalf("label not applied: %q", got.Label)
	}
	if diff := cmp.Diff(field.Meta, got.Meta); diff != "" {
		t.Fatalf("meta changed by label patch (-want +got):\n%s", diff)
	}
}

func TestFieldApply_PreservesUnrelatedKeys(t *testing.T) {
	field := Field{ID: "f1", Meta: map[string]any{"placeholder": "a", "min": 1.0}}

	got := field.Apply(Patch{Meta: map[string]any{"placeholder": "b"}})

	want := map[string]any{"placeholder": "b", "min": 1.0}
	if diff := cmp.Diff(want, got.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldApply_Idempotent(t *testing.T) {
	field := Field{ID: "f1", Meta: map[string]any{"other": true}}
	patch := Patch{Meta: map[string]any{"placeholder": "x"}}

	once := field.Apply(patch)
	twice := once.Apply(patch)

	if diff := cmp.Diff(once.Meta, twice.Meta); diff != "" {
		t.Fatalf("patch not idempotent (-once +twice):\n%s", diff)
	}
}

func TestFieldApply_NilValueDeletesKey(t *testing.T) {
	field := Field{ID: "f1", Meta: map[string]any{"placeholder": "a"}}

	got := field.Apply(Patch{Meta: map[string]any{"placeholder": nil}})

	if got.Meta != nil {
		t.Fatalf("expected empty meta, got %#v", got.Meta)
	}
}

func TestFormApply_UnknownField(t *testing.T) {
	form := Form{Fields: []Field{{ID: "a"}}}

	err := form.Apply(UpdateField{ID: "missing", Patch: Patch{Label: StringPtr("x")}})
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestFormAdd_RejectsDuplicateID(t *testing.T) {
	form := Form{}
	if err := form.Add(Field{ID: "a", Type: FieldTypeText}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := form.Add(Field{ID: "a", Type: FieldTypeNumber}); !errors.Is(err, ErrDuplicateFieldID) {
		t.Fatalf("expected ErrDuplicateFieldID, got %v", err)
	}
}

func TestFormMoveAndRemove(t *testing.T) {
	form := Form{Fields: []Field{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	if err := form.Move("c", 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := form.Move("a", 99); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := form.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	var ids []string
	for _, field := range form.Fields {
		ids = append(ids, field.ID)
	}
	if diff := cmp.Diff([]string{"c", "a"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFormClone_IsolatesMeta(t *testing.T) {
	form := Form{Fields: []Field{{ID: "a", Meta: map[string]any{"placeholder": "a"}}}}

	clone := form.Clone()
	clone.Fields[0].Meta["placeholder"] = "b"

	if form.Fields[0].Meta["placeholder"] != "a" {
		t.Fatalf("clone shares meta with original")
	}
}

func TestFormModeState(t *testing.T) {
	cases := map[FormMode]FieldState{
		ModeEdit:    StateReadonly,
		ModeFill:    StateNormal,
		ModePreview: StateDisabled,
	}
	for mode, want := range cases {
		if got := mode.State(); got != want {
			t.Fatalf("mode %s: want %s, got %s", mode, want, got)
		}
	}
}

func TestEffectiveStateKeepsStricter(t *testing.T) {
	field := Field{State: StateReadonly}
	if got := field.EffectiveState(StateNormal); got != StateReadonly {
		t.Fatalf("want READONLY, got %s", got)
	}
	if got := field.EffectiveState(StateDisabled); got != StateDisabled {
		t.Fatalf("want DISABLED, got %s", got)
	}
	if got := (Field{}).EffectiveState(""); got != StateNormal {
		t.Fatalf("want NORMAL, got %s", got)
	}
}

func TestLockFieldsDecorator(t *testing.T) {
	form := Form{Fields: []Field{{ID: "a"}, {ID: "b"}}}
	if err := LockFields(StateDisabled, "b").Decorate(&form); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if form.Fields[0].State != "" || form.Fields[1].State != StateDisabled {
		t.Fatalf("unexpected states: %#v", form.Fields)
	}
}
