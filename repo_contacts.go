package phonebook

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Contacts interface {
	repository.Repository[*Contact]

	// ListAll returns every contact in creation order. The embedded List
	// carries paging criteria and a count; this is the plain variant.
	ListAll(ctx context.Context) ([]*Contact, error)

	// Remove deletes a contact and reports whether a record existed.
	Remove(ctx context.Context, id uuid.UUID) (bool, error)
}

type contacts struct {
	repository.Repository[*Contact]
	db *bun.DB
}

var (
	_ Contacts                        = (*contacts)(nil)
	_ repository.Repository[*Contact] = (*contacts)(nil)
)

func NewContactsRepository(db *bun.DB) Contacts {
	repo := repository.NewRepository[*Contact](db, repository.ModelHandlers[*Contact]{
		NewRecord: func() *Contact { return &Contact{} },
		GetID: func(c *Contact) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Contact, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &contacts{
		Repository: repo,
		db:         db,
	}
}

func (r *contacts) Create(ctx context.Context, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *contacts) CreateTx(ctx context.Context, tx bun.IDB, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *contacts) ListAll(ctx context.Context) ([]*Contact, error) {
	records := []*Contact{}

	err := r.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *contacts) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*Contact)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
