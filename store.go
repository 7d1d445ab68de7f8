package users

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence abstraction over the two identity kinds and their
// tokens. Two interchangeable implementations ship with this module: a
// relational one on bun (store/bunstore) and a document one on the mongo
// driver (store/mongostore). Every repository mutation is durable once the
// call returns; there is no deferred flush.
type Store interface {
	Users() UserRepository
	TmpUsers() TmpUserRepository
	Tokens() TokenRepository
}

// UserRepository persists permanent identities. Lookups exclude soft deleted
// records.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// List returns all active users ordered by creation time.
	List(ctx context.Context) ([]*User, error)
	CountActive(ctx context.Context) (int, error)
	Create(ctx context.Context, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	// SetTokenRef updates the token back reference; a nil tokenID clears it.
	SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error
	// SoftDelete marks the record deleted without removing it.
	SoftDelete(ctx context.Context, record *User) (*User, error)
}

// TmpUserRepository persists temporary identities.
type TmpUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*TmpUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TmpUser, error)
	Create(ctx context.Context, record *TmpUser) (*TmpUser, error)
	SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error
	Delete(ctx context.Context, record *TmpUser) error
}

// TokenRepository persists tokens, indexed by hash for validation lookups and
// by bound identity for purge on issue.
type TokenRepository interface {
	// GetFresh returns the token matching hash with a creation time after
	// cutoff. Staleness is evaluated by the store at read time.
	GetFresh(ctx context.Context, hash string, cutoff time.Time) (*Token, error)
	ListByIdentity(ctx context.Context, ref IdentityRef) ([]*Token, error)
	Create(ctx context.Context, record *Token) (*Token, error)
	Update(ctx context.Context, record *Token) (*Token, error)
	Delete(ctx context.Context, record *Token) error
	// DeleteOrphans removes tokens whose referenced identity no longer
	// exists, returning how many were purged.
	DeleteOrphans(ctx context.Context) (int, error)
}

// ResolveRef fetches whichever identity a reference points at.
func ResolveRef(ctx context.Context, store Store, ref IdentityRef) (Identity, error) {
	switch ref.Kind {
	case KindTemporary:
		return store.TmpUsers().GetByID(ctx, ref.ID)
	default:
		return store.Users().GetByID(ctx, ref.ID)
	}
}
