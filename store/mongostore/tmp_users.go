package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type tmpUsersRepo struct {
	coll *mongo.Collection
}

var _ users.TmpUserRepository = (*tmpUsersRepo)(nil)

func (r *tmpUsersRepo) GetByEmail(ctx context.Context, email string) (*users.TmpUser, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *tmpUsersRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.TmpUser, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *tmpUsersRepo) Create(ctx context.Context, record *users.TmpUser) (*users.TmpUser, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}

	if _, err := r.coll.InsertOne(ctx, newTmpUserDoc(record)); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *tmpUsersRepo) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{
		"token_id": uuidToString(tokenID),
	}})
	return err
}

func (r *tmpUsersRepo) Delete(ctx context.Context, record *users.TmpUser) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": record.ID.String()})
	return err
}

func (r *tmpUsersRepo) findOne(ctx context.Context, filter bson.M) (*users.TmpUser, error) {
	doc := &tmpUserDoc{}
	if err := r.coll.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(map[string]any{"filter": filter})
		}
		return nil, err
	}
	return doc.toModel()
}
