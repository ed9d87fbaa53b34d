package receiver

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore persists submissions in a MongoDB collection.
type MongoStore struct {
	collection *mongo.Collection
}

var (
	_ Store  = (*MongoStore)(nil)
	_ Pinger = (*MongoStore)(nil)
)

// NewMongoStore stores submissions in the named collection of db.
func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	return &MongoStore{collection: db.Collection(collectionName)}
}

// EnsureIndexes creates the formId/createdAt index used by List.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "formId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (s *MongoStore) Save(ctx context.Context, sub *Submission) error {
	if err := validate(sub); err != nil {
		return err
	}
	doc, err := encodeSubmission(sub)
	if err != nil {
		return err
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("receiver: insert submission: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Submission, error) {
	raw, err := s.collection.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		return nil, findError(err)
	}
	return decodeSubmission(raw)
}

// List returns the submissions of formID, oldest first.
func (s *MongoStore) List(ctx context.Context, formID string) ([]*Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"formId": formID}, opts)
	if err != nil {
		return nil, fmt.Errorf("receiver: list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*Submission, 0)
	for cursor.Next(ctx) {
		sub, err := decodeSubmission(cursor.Current)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func encodeSubmission(sub *Submission) (bson.Raw, error) {
	raw, err := bson.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("receiver: encode submission: %w", err)
	}
	return raw, nil
}

// decodeSubmission maps a stored document back onto a Submission. Values are
// normalised so arrays come back as []string (or []any when mixed) and
// embedded documents as maps, matching what MemoryStore returns.
func decodeSubmission(raw bson.Raw) (*Submission, error) {
	var sub Submission
	if err := bson.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("receiver: decode submission: %w", err)
	}
	for key, value := range sub.Values {
		sub.Values[key] = normaliseValue(value)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}

func normaliseValue(value any) any {
	switch v := value.(type) {
	case primitive.A:
		items := make([]any, len(v))
		texts := make([]string, 0, len(v))
		for i, item := range v {
			items[i] = normaliseValue(item)
			if text, ok := items[i].(string); ok {
				texts = append(texts, text)
			}
		}
		if len(texts) == len(items) {
			return texts
		}
		return items
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = normaliseValue(elem.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normaliseValue(item)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normaliseValue(item)
		}
		return out
	}
	return value
}

func findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("receiver: find submission: %w", err)
}
