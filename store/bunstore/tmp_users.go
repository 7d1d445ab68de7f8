package bunstore

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type tmpUsersRepo struct {
	db   *bun.DB
	repo repository.Repository[*users.TmpUser]
}

var _ users.TmpUserRepository = (*tmpUsersRepo)(nil)

func newTmpUsersRepo(db *bun.DB) *tmpUsersRepo {
	repo := repository.NewRepository[*users.TmpUser](db, repository.ModelHandlers[*users.TmpUser]{
		NewRecord: func() *users.TmpUser { return &users.TmpUser{} },
		GetID: func(u *users.TmpUser) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *users.TmpUser, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &tmpUsersRepo{db: db, repo: repo}
}

func (r *tmpUsersRepo) GetByEmail(ctx context.Context, email string) (*users.TmpUser, error) {
	record := &users.TmpUser{}
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

func (r *tmpUsersRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.TmpUser, error) {
	return r.repo.GetByID(ctx, id.String())
}

func (r *tmpUsersRepo) Create(ctx context.Context, record *users.TmpUser) (*users.TmpUser, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
	return r.repo.Create(ctx, record)
}

func (r *tmpUsersRepo) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*users.TmpUser)(nil)).
		Set("token_id = ?", tokenID).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (r *tmpUsersRepo) Delete(ctx context.Context, record *users.TmpUser) error {
	_, err := r.db.NewDelete().
		Model(record).
		WherePK().
		Exec(ctx)

	return err
}
