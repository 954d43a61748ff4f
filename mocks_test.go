package phonebook_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	"github.com/kestrelhq/phonebook"
)

// MockLogger implements phonebook.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MockMailer implements phonebook.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerification(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

// memUsers is an in-memory users store. The embedded interface covers the
// repository methods the tests never touch.
type memUsers struct {
	phonebook.Users

	mu        sync.Mutex
	records   map[uuid.UUID]*phonebook.User
	createErr error

	// beforeCreate runs inside Create with the lock held, letting tests
	// interleave a competing write between the caller's pre-check and the
	// insert. It must touch records directly, without locking.
	beforeCreate func()
}

func newMemUsers() *memUsers {
	return &memUsers{records: map[uuid.UUID]*phonebook.User{}}
}

func (s *memUsers) Create(ctx context.Context, record *phonebook.User, criteria ...repository.InsertCriteria) (*phonebook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return nil, s.createErr
	}

	if s.beforeCreate != nil {
		s.beforeCreate()
	}

	for _, existing := range s.records {
		if existing.Email == record.Email {
			return nil, errors.New("UNIQUE constraint failed: users.email")
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Subscription == "" {
		record.Subscription = phonebook.TierStarter
	}
	if record.AvatarURL == "" {
		record.AvatarURL = phonebook.GravatarURL(record.Email)
	}

	clone := *record
	s.records[record.ID] = &clone
	return record, nil
}

func (s *memUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*phonebook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}

	record, ok := s.records[parsed]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (s *memUsers) GetByEmail(ctx context.Context, email string) (*phonebook.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Email == email {
			clone := *record
			return &clone, nil
		}
	}

	return nil, repository.NewRecordNotFound()
}

func (s *memUsers) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[id]; ok {
		record.SessionToken = token
	}
	return nil
}

func (s *memUsers) ConfirmByToken(ctx context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.VerificationToken != nil && *record.VerificationToken == token {
			record.Verified = true
			record.VerificationToken = nil
			return 1, nil
		}
	}

	return 0, nil
}

func (s *memUsers) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[id]; ok {
		record.AvatarURL = url
	}
	return nil
}

func (s *memUsers) UpdateSubscription(ctx context.Context, id uuid.UUID, tier phonebook.SubscriptionTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[id]; ok {
		record.Subscription = tier
	}
	return nil
}

func (s *memUsers) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *memUsers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memUsers) byEmail(email string) *phonebook.User {
	record, err := s.GetByEmail(context.Background(), email)
	if err != nil {
		return nil
	}
	return record
}

// memContacts is an in-memory contacts store.
type memContacts struct {
	phonebook.Contacts

	mu      sync.Mutex
	records map[uuid.UUID]*phonebook.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{records: map[uuid.UUID]*phonebook.Contact{}}
}

func (s *memContacts) Create(ctx context.Context, record *phonebook.Contact, criteria ...repository.InsertCriteria) (*phonebook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	clone := *record
	s.records[record.ID] = &clone
	return record, nil
}

func (s *memContacts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*phonebook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound()
	}

	record, ok := s.records[parsed]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (s *memContacts) ListAll(ctx context.Context) ([]*phonebook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*phonebook.Contact, 0, len(s.records))
	for _, record := range s.records {
		clone := *record
		records = append(records, &clone)
	}
	return records, nil
}

func (s *memContacts) Update(ctx context.Context, record *phonebook.Contact, criteria ...repository.UpdateCriteria) (*phonebook.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	return record, nil
}

func (s *memContacts) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}

	delete(s.records, id)
	return true, nil
}

// memRepo bundles the in-memory stores behind the RepositoryManager interface.
type memRepo struct {
	users    *memUsers
	contacts *memContacts
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    newMemUsers(),
		contacts: newMemContacts(),
	}
}

func (m *memRepo) Validate() error { return nil }
func (m *memRepo) MustValidate()   {}

func (m *memRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memRepo) Users() phonebook.Users       { return m.users }
func (m *memRepo) Contacts() phonebook.Contacts { return m.contacts }
