// internal/domain/models/geography.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Province is the top level of the geographic hierarchy.
// Latitude/Longitude are optional and only used for map rendering.
type Province struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"` // ← always stored
	Latitude  *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// District belongs to exactly one province. Names are unique per province.
type District struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ProvinceID primitive.ObjectID `bson:"province_id" json:"province_id"`
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
