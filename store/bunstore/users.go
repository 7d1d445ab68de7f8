package bunstore

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type usersRepo struct {
	db   *bun.DB
	repo repository.Repository[*users.User]
}

var _ users.UserRepository = (*usersRepo)(nil)

func newUsersRepo(db *bun.DB) *usersRepo {
	repo := repository.NewRepository[*users.User](db, repository.ModelHandlers[*users.User]{
		NewRecord: func() *users.User { return &users.User{} },
		GetID: func(u *users.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *users.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &usersRepo{db: db, repo: repo}
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	record := &users.User{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.repo.GetByID(ctx, id.String())
}

func (r *usersRepo) List(ctx context.Context) ([]*users.User, error) {
	var records []*users.User
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *usersRepo) CountActive(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*users.User)(nil)).
		Count(ctx)
}

func (r *usersRepo) Create(ctx context.Context, record *users.User) (*users.User, error) {
	prepareUserDefaults(record)
	return r.repo.Create(ctx, record)
}

func (r *usersRepo) Update(ctx context.Context, record *users.User) (*users.User, error) {
	record.Touch()
	return r.repo.Update(ctx, record, repository.UpdateByID(record.ID.String()))
}

func (r *usersRepo) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	// NOTE: partial updates through the ORM won't NULL the column, so we set
	// it by hand. Same workaround the login tracking repos use.
	_, err := r.db.NewUpdate().
		Model((*users.User)(nil)).
		Set("token_id = ?", tokenID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (r *usersRepo) SoftDelete(ctx context.Context, record *users.User) (*users.User, error) {
	if _, err := r.db.NewDelete().
		Model(record).
		WherePK().
		Exec(ctx); err != nil {
		return nil, err
	}

	// bun translates the delete into an update of deleted_at but does not
	// write it back into the struct
	if record.DeletedAt == nil {
		now := time.Now()
		record.DeletedAt = &now
	}

	return record, nil
}

func prepareUserDefaults(record *users.User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
		record.UpdatedAt = &now
	}
}
