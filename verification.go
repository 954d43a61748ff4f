package phonebook

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Verifications drives the email-confirmation state machine:
// Unverified (token present) -> Verified (token cleared, flag set).
type Verifications struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

// NewVerifications will create a new Verifications service
func NewVerifications(repo RepositoryManager, mailer Mailer) *Verifications {
	return &Verifications{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (v *Verifications) WithLogger(l Logger) *Verifications {
	if l != nil {
		v.logger = l
	}
	return v
}

// Confirm consumes a verification token. The lookup and the state flip are a
// single update-if-matches statement, so when the same token is confirmed
// twice concurrently exactly one call wins; the other observes zero affected
// rows and reports not found. The transition is one-way.
func (v *Verifications) Confirm(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}

	rows, err := v.repo.Users().ConfirmByToken(ctx, token)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm verification token")
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Resend re-sends the verification email using the existing, unrotated token.
// The link already sitting in the user's inbox stays valid.
func (v *Verifications) Resend(ctx context.Context, email string) error {
	user, err := v.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for resend")
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	if user.VerificationToken == nil {
		// verified == false implies a token is present; a record violating
		// that is corrupt, not a client error.
		v.logger.Error("unverified user has no verification token", "user_id", user.ID.String())
		return goerrors.New("verification state is inconsistent", goerrors.CategoryInternal)
	}

	if err := v.mailer.SendVerification(ctx, user.Email, *user.VerificationToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	return nil
}
