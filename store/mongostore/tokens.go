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

type tokensRepo struct {
	coll     *mongo.Collection
	users    *mongo.Collection
	tmpUsers *mongo.Collection
}

var _ users.TokenRepository = (*tokensRepo)(nil)

func (r *tokensRepo) GetFresh(ctx context.Context, hash string, cutoff time.Time) (*users.Token, error) {
	doc := &tokenDoc{}
	filter := bson.M{
		"hash":       hash,
		"created_at": bson.M{"$gt": cutoff},
	}

	if err := r.coll.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(map[string]any{"hash": hash})
		}
		return nil, err
	}

	return doc.toModel()
}

func (r *tokensRepo) ListByIdentity(ctx context.Context, ref users.IdentityRef) ([]*users.Token, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"identity_kind": string(ref.Kind),
		"identity_id":   ref.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	var docs []tokenDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]*users.Token, 0, len(docs))
	for i := range docs {
		record, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
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

	if _, err := r.coll.InsertOne(ctx, newTokenDoc(record)); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *tokensRepo) Update(ctx context.Context, record *users.Token) (*users.Token, error) {
	doc := newTokenDoc(record)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"hash":          doc.Hash,
		"identity_kind": doc.IdentityKind,
		"identity_id":   doc.IdentityID,
	}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, notFound(map[string]any{"id": doc.ID})
	}

	return record, nil
}

func (r *tokensRepo) Delete(ctx context.Context, record *users.Token) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": record.ID.String()})
	return err
}

func (r *tokensRepo) DeleteOrphans(ctx context.Context) (int, error) {
	liveUsers, err := r.users.Distinct(ctx, "_id", bson.M{"deleted_at": nil})
	if err != nil {
		return 0, err
	}

	liveTmp, err := r.tmpUsers.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return 0, err
	}

	res, err := r.coll.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{
			"identity_kind": string(users.KindPermanent),
			"identity_id":   bson.M{"$nin": liveUsers},
		},
		bson.M{
			"identity_kind": string(users.KindTemporary),
			"identity_id":   bson.M{"$nin": liveTmp},
		},
	}})
	if err != nil {
		return 0, err
	}

	return int(res.DeletedCount), nil
}
