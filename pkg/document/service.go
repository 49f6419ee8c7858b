package document

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/submission"
)

// Option customises a Service.
type Option func(*Service)

// WithRegistry swaps the field type registry used to create and check fields.
func WithRegistry(registry *fields.Registry) Option {
	return func(s *Service) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how form, field and submission ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// Service applies document operations on top of a Store. Mutations of one
// form are serialised; concurrent UpdateField messages for the same form are
// applied in arrival order, last write wins per meta key.
type Service struct {
	store    Store
	registry *fields.Registry
	now      func() time.Time
	newID    func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	seeds map[string]string
}

// NewService wires a Service around store.
func NewService(store Store, options ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document: store is required")
	}
	svc := &Service{
		store:    store,
		registry: fields.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    fields.NewID,
		locks:    make(map[string]*sync.Mutex),
		seeds:    make(map[string]string),
	}
	for _, opt := range options {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Registry exposes the field registry the service validates against.
func (s *Service) Registry() *fields.Registry {
	return s.registry
}

// Create stores a new empty form.
func (s *Service) Create(ctx context.Context, name, description string) (model.Form, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Form{}, fmt.Errorf("%w: name is required", ErrInvalidForm)
	}
	now := s.now()
	form := model.Form{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Fields:      []model.Field{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, form); err != nil {
		return model.Form{}, err
	}
	logging.FromContext(ctx).Info("form created", "form_id", form.ID)
	return form, nil
}

// Import stores a complete form document, for example one read by the
// loader. Every field type must be registered and field ids must be unique.
// Importing over an existing form keeps its creation time and bumps its
// version.
func (s *Service) Import(ctx context.Context, form model.Form) (model.Form, error) {
	form = form.Clone()
	form.ID = strings.TrimSpace(form.ID)
	if form.ID == "" {
		form.ID = s.newID()
	}
	for idx := range form.Fields {
		form.Fields[idx].ID = strings.TrimSpace(form.Fields[idx].ID)
		form.Fields[idx].Type = form.Fields[idx].Type.Normalize()
	}
	if err := s.check(form); err != nil {
		return model.Form{}, err
	}

	lock := s.lockFor(form.ID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	form.Version = 1
	form.CreatedAt = now
	if existing, err := s.store.Get(ctx, form.ID); err == nil {
		form.Version = existing.Version + 1
		form.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrFormNotFound) {
		return model.Form{}, err
	}
	form.UpdatedAt = now
	if form.Fields == nil {
		form.Fields = []model.Field{}
	}

	if err := s.store.Save(ctx, form); err != nil {
		return model.Form{}, err
	}
	logging.FromContext(ctx).Info("form imported", "form_id", form.ID, "version", form.Version, "fields", len(form.Fields))
	return form, nil
}

// Seed imports a definition file's form without clobbering edits made since.
// The form is written when the store does not hold it yet, or when digest
// differs from the digest of the last seeded copy. A form already in the
// store on first sight (for example one persisted before a restart) is kept.
// written reports whether Import ran.
func (s *Service) Seed(ctx context.Context, form model.Form, digest string) (model.Form, bool, error) {
	id := strings.TrimSpace(form.ID)
	if id == "" {
		imported, err := s.Import(ctx, form)
		return imported, err == nil, err
	}

	s.mu.Lock()
	last, seen := s.seeds[id]
	s.mu.Unlock()

	existing, err := s.store.Get(ctx, id)
	switch {
	case err == nil && (!seen || last == digest):
		s.rememberSeed(id, digest)
		logging.FromContext(ctx).Debug("seed skipped", "form_id", id, "version", existing.Version)
		return existing, false, nil
	case err != nil && !errors.Is(err, ErrFormNotFound):
		return model.Form{}, false, err
	}

	imported, err := s.Import(ctx, form)
	if err != nil {
		return model.Form{}, false, err
	}
	s.rememberSeed(imported.ID, digest)
	return imported, true, nil
}

func (s *Service) rememberSeed(id, digest string) {
	s.mu.Lock()
	s.seeds[id] = digest
	s.mu.Unlock()
}

func (s *Service) Get(ctx context.Context, id string) (model.Form, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Form, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("form deleted", "form_id", id)
	return nil
}

// AddField appends a field of the given type seeded from the type's defaults.
// Unknown types fail with an error wrapping fields.ErrNotFound.
func (s *Service) AddField(ctx context.Context, formID string, fieldType model.FieldType) (model.Field, error) {
	def, err := s.registry.Resolve(fieldType)
	if err != nil {
		return model.Field{}, err
	}
	field := def.NewField(s.newID())

	if _, err := s.mutate(ctx, formID, func(form *model.Form) error {
		return form.Add(field)
	}); err != nil {
		return model.Field{}, err
	}
	return field, nil
}

// Dispatch applies an UpdateField message to the form that owns the field.
func (s *Service) Dispatch(ctx context.Context, formID string, msg model.UpdateField) (model.Form, error) {
	if msg.Patch.Empty() {
		return s.store.Get(ctx, formID)
	}
	return s.mutate(ctx, formID, func(form *model.Form) error {
		return form.Apply(msg)
	})
}

// Dispatcher returns a dispatch callback bound to one form, suitable for
// fields.Submit.
func (s *Service) Dispatcher(ctx context.Context, formID string) func(model.UpdateField) error {
	return func(msg model.UpdateField) error {
		_, err := s.Dispatch(ctx, formID, msg)
		return err
	}
}

// ReplaceField swaps a field for a fresh one of another type at the same
// position. Field types are immutable, so the new field gets a new id.
func (s *Service) ReplaceField(ctx context.Context, formID, fieldID string, fieldType model.FieldType) (model.Field, error) {
	def, err := s.registry.Resolve(fieldType)
	if err != nil {
		return model.Field{}, err
	}
	replacement := def.NewField(s.newID())

	_, err = s.mutate(ctx, formID, func(form *model.Form) error {
		position := -1
		for idx, field := range form.Fields {
			if field.ID == fieldID {
				position = idx
				break
			}
		}
		if position < 0 {
			return fmt.Errorf("%w: %q", model.ErrFieldNotFound, fieldID)
		}
		form.Fields[position] = replacement
		return nil
	})
	if err != nil {
		return model.Field{}, err
	}
	return replacement, nil
}

func (s *Service) RemoveField(ctx context.Context, formID, fieldID string) (model.Form, error) {
	return s.mutate(ctx, formID, func(form *model.Form) error {
		return form.Remove(fieldID)
	})
}

// MoveField relocates a field; out of range positions are clamped.
func (s *Service) MoveField(ctx context.Context, formID, fieldID string, position int) (model.Form, error) {
	return s.mutate(ctx, formID, func(form *model.Form) error {
		return form.Move(fieldID, position)
	})
}

// Submit validates answers against the current form and stores them. Invalid
// answers return submission.Issues.
func (s *Service) Submit(ctx context.Context, formID string, answers map[string]any, submitter string) (Submission, error) {
	form, err := s.store.Get(ctx, formID)
	if err != nil {
		return Submission{}, err
	}
	if err := submission.Validate(s.registry, form, answers); err != nil {
		logging.FromContext(ctx).Debug("submission rejected", "form_id", formID, "error", err)
		return Submission{}, err
	}

	record := Submission{
		ID:          s.newID(),
		FormID:      form.ID,
		FormVersion: form.Version,
		Answers:     maps.Clone(answers),
		Submitter:   strings.TrimSpace(submitter),
		CreatedAt:   s.now(),
	}
	if record.Answers == nil {
		record.Answers = map[string]any{}
	}
	if err := s.store.SaveSubmission(ctx, record); err != nil {
		return Submission{}, err
	}
	logging.FromContext(ctx).Info("submission stored", "form_id", formID, "submission_id", record.ID)
	return record, nil
}

func (s *Service) Submissions(ctx context.Context, formID string) ([]Submission, error) {
	return s.store.ListSubmissions(ctx, formID)
}

func (s *Service) mutate(ctx context.Context, formID string, fn func(*model.Form) error) (model.Form, error) {
	lock := s.lockFor(formID)
	lock.Lock()
	defer lock.Unlock()

	form, err := s.store.Get(ctx, formID)
	if err != nil {
		return model.Form{}, err
	}
	if err := fn(&form); err != nil {
		return model.Form{}, err
	}
	form.Version++
	form.UpdatedAt = s.now()
	if err := s.store.Save(ctx, form); err != nil {
		return model.Form{}, err
	}
	logging.FromContext(ctx).Debug("form updated", "form_id", form.ID, "version", form.Version)
	return form, nil
}

func (s *Service) check(form model.Form) error {
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: form %q has no name", ErrInvalidForm, form.ID)
	}
	seen := make(map[string]struct{}, len(form.Fields))
	for idx, field := range form.Fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			return fmt.Errorf("%w: field %d has no id", ErrInvalidForm, idx)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidForm, model.ErrDuplicateFieldID, id)
		}
		seen[id] = struct{}{}
		if !s.registry.Has(field.Type) {
			return fmt.Errorf("%w: field %q: %w: %q", ErrInvalidForm, id, fields.ErrNotFound, field.Type)
		}
	}
	return nil
}

// lockFor returns the mutex guarding one form. Entries live as long as the
// service, so a caller blocked on a lock that Delete released still shares it
// with anyone who recreates the form.
func (s *Service) lockFor(formID string) *sync.Mutex {
	formID = strings.TrimSpace(formID)
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[formID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[formID] = lock
	}
	return lock
}
