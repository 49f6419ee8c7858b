package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

const surveyYAML = `
id: survey
name: Survey
fields:
  - id: name
    type: text
    label: Your name
  - id: age
    type: Number
    meta:
      min: 0
      max: 120
  - type: rating
    state: readonly
`

const listJSON = `{
  "forms": [
    {"id": "a", "name": "A", "fields": [{"id": "t", "type": "time", "meta": {"placeholder": "HH:MM"}}]},
    {"id": "b", "name": "B"}
  ]
}`

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"survey.yaml":    {Data: []byte(surveyYAML)},
		"nested/ab.json": {Data: []byte(listJSON)},
		"README.md":      {Data: []byte("ignored")},
	}

	set, err := LoadFS(fsys, fields.NewDefaultRegistry())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"a": "nested/ab.json", "b": "nested/ab.json", "survey": "survey.yaml"}, set.Sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	survey, ok := set.Form("survey")
	if !ok {
		t.Fatalf("survey not loaded")
	}
	want := []model.Field{
		{ID: "name", Type: model.FieldTypeText, Label: "Your name", Meta: map[string]any{"placeholder": ""}},
		{ID: "age", Type: model.FieldTypeNumber, Label: "数字", Meta: map[string]any{"min": 0.0, "max": 120.0}},
		{ID: derivedFieldID("survey", 2), Type: model.FieldTypeRating, Label: "评分", State: model.StateReadonly},
	}
	if diff := cmp.Diff(want, survey.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	a, _ := set.Form("a")
	if got := a.Fields[0].Placeholder(); got != "HH:MM" {
		t.Fatalf("file meta should override defaults, got %q", got)
	}
	b, _ := set.Form("b")
	if len(b.Fields) != 0 || b.Name != "B" {
		t.Fatalf("unexpected form b: %#v", b)
	}
}

func TestLoadFSDerivesFormIDFromFileName(t *testing.T) {
	fsys := fstest.MapFS{"contact.yml": {Data: []byte("name: Contact\nfields: []\n")}}
	set, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := set.Form("contact"); !ok {
		t.Fatalf("expected form id from file name, got %v", set.Sources)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "intake.yaml")
	if err := os.WriteFile(file, []byte(surveyYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	set, err := LoadFile(file, nil)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(set.Forms) != 1 || set.Forms[0].ID != "survey" {
		t.Fatalf("unexpected forms: %#v", set.Forms)
	}
	if diff := cmp.Diff(map[string]string{"survey": "intake.yaml"}, set.Sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadFile(filepath.Join(dir, "notes.txt"), nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFSErrors(t *testing.T) {
	cases := map[string]struct {
		files fstest.MapFS
		want  error
	}{
		"duplicate form": {
			files: fstest.MapFS{
				"one.yaml": {Data: []byte("id: same\nname: One\n")},
				"two.yaml": {Data: []byte("id: same\nname: Two\n")},
			},
			want: ErrDuplicateForm,
		},
		"unknown type": {
			files: fstest.MapFS{"f.yaml": {Data: []byte("id: f\nfields:\n  - id: s\n    type: signature\n")}},
			want:  fields.ErrNotFound,
		},
		"duplicate field": {
			files: fstest.MapFS{"f.yaml": {Data: []byte("id: f\nfields:\n  - {id: x, type: text}\n  - {id: x, type: number}\n")}},
			want:  model.ErrDuplicateFieldID,
		},
		"bad state": {
			files: fstest.MapFS{"f.yaml": {Data: []byte("id: f\nfields:\n  - {id: x, type: text, state: frozen}\n")}},
			want:  ErrInvalidDefinition,
		},
		"empty file": {
			files: fstest.MapFS{"f.json": {Data: []byte("  ")}},
			want:  ErrInvalidDefinition,
		},
		"list item without id": {
			files: fstest.MapFS{"f.yaml": {Data: []byte("forms:\n  - name: nameless\n")}},
			want:  ErrInvalidDefinition,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFS(tc.files, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFSDerivedIDsAreStable(t *testing.T) {
	fsys := fstest.MapFS{"f.yaml": {Data: []byte("id: f\nfields:\n  - type: text\n  - type: text\n")}}
	first, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(first.Forms, second.Forms); diff != "" {
		t.Fatalf("reload changed forms (-first +second):\n%s", diff)
	}
	if first.Forms[0].Fields[0].ID == first.Forms[0].Fields[1].ID {
		t.Fatalf("derived ids collide")
	}
	if first.Digests["f"] == "" || first.Digests["f"] != second.Digests["f"] {
		t.Fatalf("digest should be stable across loads: %v / %v", first.Digests, second.Digests)
	}

	changed, err := LoadFS(fstest.MapFS{"f.yaml": {Data: []byte("id: f\nfields:\n  - type: text\n    label: Renamed\n  - type: text\n")}}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if changed.Digests["f"] == first.Digests["f"] {
		t.Fatalf("digest should change with the definition")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("one.yaml", "id: one\nname: One\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *Set, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, nil, 20*time.Millisecond, func(set *Set) { updates <- set })
	}()

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)
	write("two.yaml", "id: two\nname: Two\n")

	select {
	case set := <-updates:
		if _, ok := set.Form("two"); !ok {
			t.Fatalf("reload missed new form: %v", set.Sources)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}
