// Package document owns form documents: it stores them, applies UpdateField
// messages from configuration panels and records submissions.
package document

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

var (
	// ErrFormNotFound is returned when a form id is not stored.
	ErrFormNotFound = errors.New("document: form not found")
	// ErrInvalidForm wraps documents that cannot be stored as given.
	ErrInvalidForm = errors.New("document: invalid form")
)

// Submission is one filled-in copy of a form.
type Submission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	FormVersion int            `json:"formVersion"`
	Answers     map[string]any `json:"answers"`
	Submitter   string         `json:"submitter,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Store persists forms and their submissions. Implementations must return
// copies so callers can mutate results freely.
type Store interface {
	Get(ctx context.Context, id string) (model.Form, error)
	Save(ctx context.Context, form model.Form) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Form, error)
	SaveSubmission(ctx context.Context, submission Submission) error
	ListSubmissions(ctx context.Context, formID string) ([]Submission, error)
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	forms       map[string]model.Form
	submissions map[string][]Submission
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forms:       make(map[string]model.Form),
		submissions: make(map[string][]Submission),
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (model.Form, error) {
	if err := ctx.Err(); err != nil {
		return model.Form{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	form, ok := m.forms[strings.TrimSpace(id)]
	if !ok {
		return model.Form{}, ErrFormNotFound
	}
	return form.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, form model.Form) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	form.ID = strings.TrimSpace(form.ID)
	if form.ID == "" {
		return ErrInvalidForm
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.forms[form.ID] = form.Clone()
	return nil
}

// Delete removes the form and its submissions.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id = strings.TrimSpace(id)
	if _, ok := m.forms[id]; !ok {
		return ErrFormNotFound
	}
	delete(m.forms, id)
	delete(m.submissions, id)
	return nil
}

// List returns forms ordered by creation time, then id.
func (m *MemoryStore) List(ctx context.Context) ([]model.Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Form, 0, len(m.forms))
	for _, form := range m.forms {
		out = append(out, form.Clone())
	}
	SortForms(out)
	return out, nil
}

func (m *MemoryStore) SaveSubmission(ctx context.Context, submission Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	submission.FormID = strings.TrimSpace(submission.FormID)
	if _, ok := m.forms[submission.FormID]; !ok {
		return ErrFormNotFound
	}
	submission.Answers = maps.Clone(submission.Answers)
	m.submissions[submission.FormID] = append(m.submissions[submission.FormID], submission)
	return nil
}

// ListSubmissions returns submissions in the order they were saved.
func (m *MemoryStore) ListSubmissions(ctx context.Context, formID string) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	formID = strings.TrimSpace(formID)
	if _, ok := m.forms[formID]; !ok {
		return nil, ErrFormNotFound
	}
	stored := m.submissions[formID]
	out := make([]Submission, len(stored))
	for idx, submission := range stored {
		submission.Answers = maps.Clone(submission.Answers)
		out[idx] = submission
	}
	return out, nil
}

// SortForms orders forms by creation time, breaking ties by id.
func SortForms(forms []model.Form) {
	slices.SortFunc(forms, func(a, b model.Form) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
