package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

// envelope is the stored shape: the domain record under "doc", its version,
// and the few fields queries filter on lifted to the top level.
type envelope[T any] struct {
	ID      string `bson:"_id"`
	Version int64  `bson:"version"`
	Doc     T      `bson:"doc"`
}

// collection maps one record type onto a Mongo collection.
type collection[T any] struct {
	entity     string
	coll       *mongo.Collection
	version    func(T) int64
	setVersion func(T, int64)
	// index returns the top-level query fields of a record.
	index func(T) bson.M
}

func (c *collection[T]) document(key string, v T, version int64) bson.M {
	doc := bson.M{"_id": key, "version": version, "doc": v}
	if c.index != nil {
		for k, val := range c.index(v) {
			doc[k] = val
		}
	}
	return doc
}

func (c *collection[T]) get(ctx context.Context, key string) (T, error) {
	var env envelope[T]
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&env)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var zero T
		return zero, apperrors.NotFound(c.entity, key)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("find %s %s: %w", c.entity, key, err)
	}
	c.setVersion(env.Doc, env.Version)
	return env.Doc, nil
}

func (c *collection[T]) create(ctx context.Context, key string, v T) error {
	_, err := c.coll.InsertOne(ctx, c.document(key, v, 1))
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", c.entity, key, err)
	}
	c.setVersion(v, 1)
	return nil
}

func (c *collection[T]) cas(ctx context.Context, key string, v T, expected int64) error {
	res, err := c.coll.ReplaceOne(ctx,
		bson.M{"_id": key, "version": expected},
		c.document(key, v, expected+1),
	)
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", c.entity, key, err)
	}
	if res.MatchedCount == 0 {
		n, err := c.coll.CountDocuments(ctx, bson.M{"_id": key})
		if err != nil {
			return fmt.Errorf("count %s %s: %w", c.entity, key, err)
		}
		if n == 0 {
			return apperrors.NotFound(c.entity, key)
		}
		return apperrors.ErrVersionConflict
	}
	c.setVersion(v, expected+1)
	return nil
}

// put writes v regardless of the stored version.
func (c *collection[T]) put(ctx context.Context, key string, v T) error {
	var env struct {
		Version int64 `bson:"version"`
	}
	set := c.document(key, v, 0)
	delete(set, "_id")
	delete(set, "version")
	err := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After).SetProjection(bson.M{"version": 1}),
	).Decode(&env)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", c.entity, key, err)
	}
	c.setVersion(v, env.Version)
	return nil
}

func (c *collection[T]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	if len(opts) == 0 {
		opts = append(opts, options.Find().SetSort(bson.M{"_id": 1}))
	}
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.entity, err)
	}
	defer cur.Close(ctx)

	var out []T
	for cur.Next(ctx) {
		var env envelope[T]
		if err := cur.Decode(&env); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.entity, err)
		}
		c.setVersion(env.Doc, env.Version)
		out = append(out, env.Doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.entity, err)
	}
	return out, nil
}

func limited(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
