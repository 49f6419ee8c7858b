package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	form := model.Form{
		ID:     "f1",
		Name:   "Form",
		Fields: []model.Field{{ID: "a", Type: model.FieldTypeText, Meta: map[string]any{"placeholder": "x"}}},
	}
	require.NoError(t, store.Save(ctx, form))

	form.Fields[0].Meta["placeholder"] = "caller mutated"
	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Fields[0].Placeholder())

	got.Fields[0].Label = "mutated"
	again, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, again.Fields[0].Label)
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, model.Form{ID: "b", CreatedAt: base}))
	require.NoError(t, store.Save(ctx, model.Form{ID: "c", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, model.Form{ID: "a", CreatedAt: base}))

	forms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, fieldIDsOf(forms))
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrFormNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrFormNotFound)
	assert.ErrorIs(t, store.Save(ctx, model.Form{}), ErrInvalidForm)
	assert.ErrorIs(t, store.SaveSubmission(ctx, Submission{FormID: "missing"}), ErrFormNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.List(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreTrimsIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, model.Form{ID: " f "}))

	require.NoError(t, store.SaveSubmission(ctx, Submission{ID: "s", FormID: "f "}))
	stored, err := store.ListSubmissions(ctx, " f")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "f", stored[0].FormID)

	require.NoError(t, store.Delete(ctx, "f"))
	assert.ErrorIs(t, store.Delete(ctx, " f "), ErrFormNotFound)
}

func fieldIDsOf(forms []model.Form) []string {
	out := make([]string, 0, len(forms))
	for _, form := range forms {
		out = append(out, form.ID)
	}
	return out
}
