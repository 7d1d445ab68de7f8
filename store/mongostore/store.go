// Package mongostore is the document implementation of the users.Store
// abstraction, built on the official mongo driver. Records mirror the
// relational layout with string uuid primary keys so the two backends stay
// interchangeable.
package mongostore

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	tmpUsersCollection = "tmp_users"
	tokensCollection   = "tokens"
)

// Store exposes the three repositories over one mongo database handle.
type Store struct {
	db       *mongo.Database
	users    *usersRepo
	tmpUsers *tmpUsersRepo
	tokens   *tokensRepo
}

var _ users.Store = (*Store)(nil)

// New wraps a connected mongo database.
func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		users:    &usersRepo{coll: db.Collection(usersCollection)},
		tmpUsers: &tmpUsersRepo{coll: db.Collection(tmpUsersCollection)},
		tokens: &tokensRepo{
			coll:     db.Collection(tokensCollection),
			users:    db.Collection(usersCollection),
			tmpUsers: db.Collection(tmpUsersCollection),
		},
	}
}

func (s *Store) Users() users.UserRepository {
	return s.users
}

func (s *Store) TmpUsers() users.TmpUserRepository {
	return s.tmpUsers
}

func (s *Store) Tokens() users.TokenRepository {
	return s.tokens
}

// EnsureIndexes creates the unique email and token hash indexes plus the
// purge lookup index. The unique email index is what resolves two concurrent
// registrations racing past the existence check.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(tmpUsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(tokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(tokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "identity_kind", Value: 1}, {Key: "identity_id", Value: 1}},
	})

	return err
}

func notFound(metadata map[string]any) error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(metadata)
}
