package bunstore

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DeleteOrphanTokensSQL removes tokens whose referenced identity is gone:
// soft deleted users count as gone, pending registrations only disappear on
// activation or cleanup.
var DeleteOrphanTokensSQL = `DELETE FROM tokens
WHERE (
	identity_kind = 'permanent'
	AND identity_id NOT IN (SELECT id FROM users WHERE deleted_at IS NULL)
) OR (
	identity_kind = 'temporary'
	AND identity_id NOT IN (SELECT id FROM tmp_users)
);`

type tokensRepo struct {
	db   *bun.DB
	repo repository.Repository[*users.Token]
}

var _ users.TokenRepository = (*tokensRepo)(nil)

func newTokensRepo(db *bun.DB) *tokensRepo {
	repo := repository.NewRepository[*users.Token](db, repository.ModelHandlers[*users.Token]{
		NewRecord: func() *users.Token { return &users.Token{} },
		GetID: func(t *users.Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *users.Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "hash"
		},
	})

	return &tokensRepo{db: db, repo: repo}
}

func (r *tokensRepo) GetFresh(ctx context.Context, hash string, cutoff time.Time) (*users.Token, error) {
	record := &users.Token{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.hash = ?", hash).
		Where("?TableAlias.created_at > ?", cutoff).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"hash": hash})
		}
		return nil, err
	}

	return record, nil
}

func (r *tokensRepo) ListByIdentity(ctx context.Context, ref users.IdentityRef) ([]*users.Token, error) {
	var records []*users.Token
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.identity_kind = ?", ref.Kind).
		Where("?TableAlias.identity_id = ?", ref.ID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *tokensRepo) Create(ctx context.Context, record *users.Token) (*users.Token, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
	return r.repo.Create(ctx, record)
}

func (r *tokensRepo) Update(ctx context.Context, record *users.Token) (*users.Token, error) {
	return r.repo.Update(ctx, record, repository.UpdateByID(record.ID.String()))
}

func (r *tokensRepo) Delete(ctx context.Context, record *users.Token) error {
	_, err := r.db.NewDelete().
		Model(record).
		WherePK().
		Exec(ctx)

	return err
}

func (r *tokensRepo) DeleteOrphans(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, DeleteOrphanTokensSQL)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return int(affected), nil
}
