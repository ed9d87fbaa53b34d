package receiver

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func sampleSubmission() *Submission {
	return &Submission{
		ID:     "sub-1",
		FormID: "contact",
		Values: map[string]any{
			"name":   "Ada",
			"topics": []string{"sales", "support"},
		},
		Extra: map[string]string{"PageId": "1061"},
		Files: []StoredFile{{Field: "cv", Name: "cv.txt", ContentType: "text/plain", Size: 2, Data: []byte("hi")}},
		// BSON dates keep millisecond precision.
		CreatedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestSubmissionDocumentMapping(t *testing.T) {
	want := sampleSubmission()
	raw, err := encodeSubmission(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if id := raw.Lookup("_id").StringValue(); id != "sub-1" {
		t.Fatalf("expected _id sub-1, got %q", id)
	}
	if formID := raw.Lookup("formId").StringValue(); formID != "contact" {
		t.Fatalf("expected formId contact, got %q", formID)
	}

	got, err := decodeSubmission(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSubmissionNormalisesNestedValues(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "sub-2"},
		{Key: "formId", Value: "contact"},
		{Key: "values", Value: bson.D{
			{Key: "mixed", Value: bson.A{"a", int32(1)}},
			{Key: "address", Value: bson.D{{Key: "city", Value: "Aarhus"}}},
		}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := decodeSubmission(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"mixed":   []any{"a", int32(1)},
		"address": map[string]any{"city": "Aarhus"},
	}
	if diff := cmp.Diff(want, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFindErrorMapsMissingDocuments(t *testing.T) {
	if err := findError(mongo.ErrNoDocuments); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	boom := errors.New("boom")
	if err := findError(boom); !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

// TestMongoStoreAgainstServer runs only when FORMULATE_MONGO_URI points at a
// reachable server. It works in a throwaway database.
func TestMongoStoreAgainstServer(t *testing.T) {
	uri := os.Getenv("FORMULATE_MONGO_URI")
	if uri == "" {
		t.Skip("FORMULATE_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("formulate_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewMongoStore(db, "submissions")
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	first := sampleSubmission()
	second := sampleSubmission()
	second.ID = "sub-0"
	second.CreatedAt = first.CreatedAt.Add(-time.Minute)
	for _, sub := range []*Submission{first, second} {
		if err := store.Save(ctx, sub); err != nil {
			t.Fatalf("save %s: %v", sub.ID, err)
		}
	}

	got, err := store.Get(ctx, "sub-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(first, got); diff != "" {
		t.Fatalf("stored submission mismatch (-want +got):\n%s", diff)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	listed, err := store.List(ctx, "contact")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, 0, len(listed))
	for _, sub := range listed {
		ids = append(ids, sub.ID)
	}
	if diff := cmp.Diff([]string{"sub-0", "sub-1"}, ids); diff != "" {
		t.Fatalf("list order mismatch (-want +got):\n%s", diff)
	}
}
