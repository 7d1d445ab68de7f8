package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type usersRepo struct {
	coll *mongo.Collection
}

var _ users.UserRepository = (*usersRepo)(nil)

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "deleted_at": nil})
}

func (r *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String(), "deleted_at": nil})
}

func (r *usersRepo) List(ctx context.Context) ([]*users.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"deleted_at": nil},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []*users.User
	for cursor.Next(ctx) {
		doc := &userDoc{}
		if err := cursor.Decode(doc); err != nil {
			return nil, err
		}
		record, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *usersRepo) CountActive(ctx context.Context) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"deleted_at": nil})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *usersRepo) Create(ctx context.Context, record *users.User) (*users.User, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
		record.UpdatedAt = &now
	}

	if _, err := r.coll.InsertOne(ctx, newUserDoc(record)); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *usersRepo) Update(ctx context.Context, record *users.User) (*users.User, error) {
	record.Touch()

	doc := newUserDoc(record)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"email":         doc.Email,
		"password_hash": doc.PasswordHash,
		"token_id":      doc.TokenID,
		"updated_at":    doc.UpdatedAt,
	}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, notFound(map[string]any{"id": doc.ID})
	}

	return record, nil
}

func (r *usersRepo) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{
		"token_id":   uuidToString(tokenID),
		"updated_at": time.Now(),
	}})
	return err
}

func (r *usersRepo) SoftDelete(ctx context.Context, record *users.User) (*users.User, error) {
	now := time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": record.ID.String()}, bson.M{"$set": bson.M{
		"deleted_at": now,
		"updated_at": now,
	}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, notFound(map[string]any{"id": record.ID.String()})
	}

	record.DeletedAt = &now
	record.UpdatedAt = &now

	return record, nil
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	doc := &userDoc{}
	if err := r.coll.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(map[string]any{"filter": filter})
		}
		return nil, err
	}
	return doc.toModel()
}
