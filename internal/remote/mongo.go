package remote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore implements Store over a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects lazily to uri; the driver dials on first use, so an
// unreachable server is reported by Ping rather than here.
func NewMongoStore(uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, s.mapError(err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		docs = append(docs, normalizeDocument(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return docs, nil
}

// NewID returns the hex form of a new ObjectID.
func (s *MongoStore) NewID() string {
	return bson.NewObjectID().Hex()
}

func (s *MongoStore) Insert(ctx context.Context, collection, id string, doc Document) (string, error) {
	if id == "" {
		id = s.NewID()
	}
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{IDField: documentKey(id)},
		bson.M(doc.Without(IDField)),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return "", s.mapError(err)
	}
	return id, nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, collection, id string, doc Document) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{IDField: documentKey(id)},
		bson.M{"$set": bson.M(doc.Without(IDField))},
	)
	if err != nil {
		return s.mapError(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("mongo error: %w", err)
}

// documentKey turns a hex identifier back into an ObjectID. Identifiers that
// are not ObjectIDs were written by other tools and are matched as strings.
func documentKey(id string) any {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func normalizeDocument(m bson.M) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	case bson.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case bson.Decimal128:
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return f
		}
		return t.String()
	case int32:
		return int64(t)
	case bson.M:
		return map[string]any(normalizeDocument(t))
	case map[string]any:
		return map[string]any(normalizeDocument(t))
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case bson.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	default:
		return v
	}
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, x := range in {
		out[i] = normalizeValue(x)
	}
	return out
}
