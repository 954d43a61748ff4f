package phonebook

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// ContactBook implements CRUD over contact records. Contacts are global in
// this design; nothing scopes them to the authenticated caller.
type ContactBook struct {
	repo   RepositoryManager
	logger Logger
}

// NewContactBook will create a new ContactBook service
func NewContactBook(repo RepositoryManager) *ContactBook {
	return &ContactBook{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *ContactBook) WithLogger(l Logger) *ContactBook {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *ContactBook) List(ctx context.Context) ([]*Contact, error) {
	records, err := s.repo.Contacts().ListAll(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list contacts")
	}
	return records, nil
}

func (s *ContactBook) Get(ctx context.Context, id string) (*Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	record, err := s.repo.Contacts().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve contact")
	}

	return record, nil
}

func (s *ContactBook) Create(ctx context.Context, record *Contact) (*Contact, error) {
	record.Phone = NormalizePhone(record.Phone)

	created, err := s.repo.Contacts().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create contact")
	}
	return created, nil
}

// NormalizePhone converts a parseable phone number to E.164. Free-form values
// pass through unchanged; contacts have no strict phone format requirement.
func NormalizePhone(phone string) string {
	parsed, err := phonenumbers.Parse(phone, "US")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// Update replaces the provided fields of an existing contact and returns the
// updated record. Empty payload fields leave the stored value untouched.
func (s *ContactBook) Update(ctx context.Context, id string, payload *Contact) (*Contact, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name != "" {
		record.Name = payload.Name
	}
	if payload.Email != "" {
		record.Email = payload.Email
	}
	if payload.Phone != "" {
		record.Phone = NormalizePhone(payload.Phone)
	}

	updated, err := s.repo.Contacts().Update(ctx, record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update contact")
	}

	return updated, nil
}

// Remove deletes a contact and reports whether a record existed.
func (s *ContactBook) Remove(ctx context.Context, id string) (bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	existed, err := s.repo.Contacts().Remove(ctx, parsed)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete contact")
	}

	return existed, nil
}
