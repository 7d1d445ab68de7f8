package mongostore

import (
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
)

// Documents store uuids as their canonical string form. Mongo's null
// semantics make a {deleted_at: nil} filter match both absent and null
// fields, which keeps the active-only queries simple.

type userDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash,omitempty"`
	TokenID      *string    `bson:"token_id,omitempty"`
	CreatedAt    *time.Time `bson:"created_at,omitempty"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty"`
}

type tmpUserDoc struct {
	ID        string     `bson:"_id"`
	Email     string     `bson:"email"`
	TokenID   *string    `bson:"token_id,omitempty"`
	CreatedAt *time.Time `bson:"created_at,omitempty"`
}

type tokenDoc struct {
	ID           string     `bson:"_id"`
	Hash         string     `bson:"hash"`
	IdentityKind string     `bson:"identity_kind"`
	IdentityID   string     `bson:"identity_id"`
	CreatedAt    *time.Time `bson:"created_at,omitempty"`
}

func newUserDoc(record *users.User) *userDoc {
	return &userDoc{
		ID:           record.ID.String(),
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		TokenID:      uuidToString(record.TokenID),
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		DeletedAt:    record.DeletedAt,
	}
}

func (d *userDoc) toModel() (*users.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	tokenID, err := stringToUUID(d.TokenID)
	if err != nil {
		return nil, err
	}

	return &users.User{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		TokenID:      tokenID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		DeletedAt:    d.DeletedAt,
	}, nil
}

func newTmpUserDoc(record *users.TmpUser) *tmpUserDoc {
	return &tmpUserDoc{
		ID:        record.ID.String(),
		Email:     record.Email,
		TokenID:   uuidToString(record.TokenID),
		CreatedAt: record.CreatedAt,
	}
}

func (d *tmpUserDoc) toModel() (*users.TmpUser, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	tokenID, err := stringToUUID(d.TokenID)
	if err != nil {
		return nil, err
	}

	return &users.TmpUser{
		ID:        id,
		Email:     d.Email,
		TokenID:   tokenID,
		CreatedAt: d.CreatedAt,
	}, nil
}

func newTokenDoc(record *users.Token) *tokenDoc {
	return &tokenDoc{
		ID:           record.ID.String(),
		Hash:         record.Hash,
		IdentityKind: string(record.IdentityKind),
		IdentityID:   record.IdentityID.String(),
		CreatedAt:    record.CreatedAt,
	}
}

func (d *tokenDoc) toModel() (*users.Token, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	identityID, err := uuid.Parse(d.IdentityID)
	if err != nil {
		return nil, err
	}

	return &users.Token{
		ID:           id,
		Hash:         d.Hash,
		IdentityKind: users.IdentityKind(d.IdentityKind),
		IdentityID:   identityID,
		CreatedAt:    d.CreatedAt,
	}, nil
}

func uuidToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func stringToUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
