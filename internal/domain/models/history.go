// internal/domain/models/history.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// History record kinds.
const (
	HistoryKindCandidate = "candidate"
	HistoryKindVacancy   = "vacancy"
	HistoryKindProfile   = "access_profile"
)

// History actions.
const (
	HistoryCreated = "created"
	HistoryUpdated = "updated"
	HistoryDeleted = "deleted"
)

// FieldChange is one mutated field. Values are stored as display strings.
type FieldChange struct {
	Field    string `bson:"field" json:"field"`
	OldValue string `bson:"old_value" json:"old_value"`
	NewValue string `bson:"new_value" json:"new_value"`
}

// HistoryEntry is an append-only change record for a single document.
// ActorID is nil for changes made by the system or by an anonymous applicant.
type HistoryEntry struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Kind      string              `bson:"kind" json:"kind"`
	RecordID  primitive.ObjectID  `bson:"record_id" json:"record_id"`
	Action    string              `bson:"action" json:"action"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	ActorName string              `bson:"actor_name" json:"actor_name"`
	Changes   []FieldChange       `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}
