// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is a staff login. Superusers have no AccessProfile.
type Account struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"`
	FullName     string             `bson:"full_name" json:"full_name"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	IsSuperuser  bool               `bson:"is_superuser" json:"is_superuser"`
	Status       string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Level is the administrative hierarchy level of an access profile.
type Level string

const (
	LevelNational   Level = "NATIONAL"
	LevelProvincial Level = "PROVINCIAL"
	LevelDistrict   Level = "DISTRICT"
)

// Valid reports whether l is a defined level.
func (l Level) Valid() bool {
	switch l {
	case LevelNational, LevelProvincial, LevelDistrict:
		return true
	}
	return false
}

// AccessProfile binds an account to a hierarchy level and geographic scope.
//
// Invariants (enforced by the accounts store on update):
//   - provincial: ProvinceID set, DistrictID nil
//   - district: ProvinceID and DistrictID set, district inside province
type AccessProfile struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	AccountID  primitive.ObjectID  `bson:"account_id" json:"account_id"`
	Level      Level               `bson:"level" json:"level"`
	ProvinceID *primitive.ObjectID `bson:"province_id,omitempty" json:"province_id,omitempty"`
	DistrictID *primitive.ObjectID `bson:"district_id,omitempty" json:"district_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
