// internal/app/store/history/historystore.go
package historystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultRecentLimit caps Recent when the caller passes no limit.
const DefaultRecentLimit = 100

var ErrEmptyRecord = errors.New("history entry needs a kind and record id")

// Actor identifies who made a change. A zero Actor records a system or
// anonymous change.
type Actor struct {
	ID   *primitive.ObjectID
	Name string
}

// System is the actor for changes made without a signed-in account.
var System = Actor{Name: "system"}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("record_history")}
}

// Append writes one entry. Call it with the ctx of the enclosing txn.Run so
// the entry commits together with the change it describes.
func (s *Store) Append(ctx context.Context, kind string, recordID primitive.ObjectID, action string, actor Actor, changes []models.FieldChange) (models.HistoryEntry, error) {
	if kind == "" || recordID.IsZero() {
		return models.HistoryEntry{}, ErrEmptyRecord
	}
	name := actor.Name
	if name == "" {
		name = System.Name
	}
	e := models.HistoryEntry{
		ID:        primitive.NewObjectID(),
		Kind:      kind,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actor.ID,
		ActorName: name,
		Changes:   changes,
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.HistoryEntry{}, err
	}
	return e, nil
}

// ByRecord returns the entries of one record, newest first.
func (s *Store) ByRecord(ctx context.Context, kind string, recordID primitive.ObjectID) ([]models.HistoryEntry, error) {
	return s.find(ctx, bson.M{"kind": kind, "record_id": recordID}, 0)
}

// Recent returns the newest entries of a kind across all records.
func (s *Store) Recent(ctx context.Context, kind string, limit int64) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	return s.find(ctx, filter, limit)
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]models.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.HistoryEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diff builds the field changes between two string snapshots, in the order
// of fields. Unchanged fields are skipped.
func Diff(fields []string, before, after map[string]string) []models.FieldChange {
	var out []models.FieldChange
	for _, f := range fields {
		if before[f] == after[f] {
			continue
		}
		out = append(out, models.FieldChange{Field: f, OldValue: before[f], NewValue: after[f]})
	}
	return out
}
