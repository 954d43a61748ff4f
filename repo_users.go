package phonebook

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error
	SetSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token *string) error

	// ConfirmByToken flips verified and clears the verification token in a
	// single update-if-matches statement. It reports how many rows changed;
	// zero means the token was never issued or already consumed.
	ConfirmByToken(ctx context.Context, token string) (int64, error)

	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, tier SubscriptionTier) error

	Remove(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	return a.SetSessionTokenTx(ctx, a.db, id, token)
}

func (a *users) SetSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token *string) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("session_token = ?", token).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) ConfirmByToken(ctx context.Context, token string) (int64, error) {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("verified = ?", true).
		Set("verification_token = NULL").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("verification_token = ?", token).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("avatar_url = ?", url).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) UpdateSubscription(ctx context.Context, id uuid.UUID, tier SubscriptionTier) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("subscription = ?", tier).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Subscription == "" {
		record.Subscription = TierStarter
	}

	if record.AvatarURL == "" {
		record.AvatarURL = GravatarURL(record.Email)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
