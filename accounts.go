package phonebook

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Accounts implements signup, login, and logout over the users repository.
type Accounts struct {
	repo   RepositoryManager
	tokens TokenService
	mailer Mailer
	logger Logger
}

// NewAccounts will create a new Accounts service
func NewAccounts(repo RepositoryManager, tokens TokenService, mailer Mailer) *Accounts {
	return &Accounts{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (a *Accounts) WithLogger(l Logger) *Accounts {
	if l != nil {
		a.logger = l
	}
	return a
}

// Signup creates an unverified account and triggers the verification email.
// The user id is derived deterministically from the email, the avatar
// defaults to the gravatar for the address, and the verification token is a
// fresh single-use value. If the mail transport fails synchronously the
// created record is removed again and the failure surfaces as a 500-class
// error.
func (a *Accounts) Signup(ctx context.Context, email, password string) (*User, error) {
	if _, err := a.repo.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	verificationToken := uuid.NewString()

	user := &User{
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: &verificationToken,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	}

	created, err := a.repo.Users().Create(ctx, user)
	if err != nil {
		// Two concurrent signups can both pass the pre-check; when the unique
		// index rejects the loser the email is taken by the time we re-check.
		if _, gerr := a.repo.Users().GetByEmail(ctx, email); gerr == nil {
			return nil, ErrEmailInUse
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
	}

	if err := a.mailer.SendVerification(ctx, created.Email, verificationToken); err != nil {
		a.logger.Error("signup verification email failed", "email", created.Email, "error", err)

		if derr := a.repo.Users().Remove(ctx, created.ID); derr != nil {
			a.logger.Error("signup cleanup failed", "user_id", created.ID.String(), "error", derr)
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	return created, nil
}

// Login verifies the credentials and issues a fresh bearer token, storing it
// on the record. Any previously issued token stops passing the session guard
// the moment the new value is written.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := a.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", nil, ErrWrongCredentials
		}
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return "", nil, ErrWrongCredentials
		}
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password")
	}

	token, err := a.tokens.Generate(user.ID.String())
	if err != nil {
		return "", nil, err
	}

	if err := a.repo.Users().SetSessionToken(ctx, user.ID, &token); err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store session token")
	}

	user.SessionToken = &token

	return token, user, nil
}

// Logout clears the stored session token. It is only reachable behind the
// session guard, and clearing an already empty token is a no-op.
func (a *Accounts) Logout(ctx context.Context, user *User) error {
	if user == nil {
		return ErrNotAuthorized
	}

	if err := a.repo.Users().SetSessionToken(ctx, user.ID, nil); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear session token")
	}

	user.SessionToken = nil
	return nil
}

// UpdateSubscription switches the user's plan.
func (a *Accounts) UpdateSubscription(ctx context.Context, user *User, tier SubscriptionTier) (*User, error) {
	if user == nil {
		return nil, ErrNotAuthorized
	}

	normalized, ok := ParseTier(tier)
	if !ok {
		return nil, goerrors.New("unknown subscription tier", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"subscription": tier})
	}

	if err := a.repo.Users().UpdateSubscription(ctx, user.ID, normalized); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update subscription")
	}

	user.Subscription = normalized
	return user, nil
}
