// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type collectionSchema struct {
	name   string
	schema bson.M // nil: collection only
}

// EnsureAll creates the app's collections when missing and attaches
// JSON-Schema validators. Deployments without collMod support (some
// DocumentDB versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// fall back to create-and-handle-race below
		existing = nil
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []string
	for _, c := range all() {
		if err := ensureCollection(ctx, db, c.name, have[c.name]); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		if err := setValidator(ctx, db, c.name, c.schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
				continue
			}
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, exists bool) error {
	if exists {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if hasCode(err, 48, "already exists", "namespace exists") {
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

// setValidator uses the moderate level so documents written before a
// validator change are only checked when next updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Debug("validator ensured", zap.String("collection", name))
	return nil
}

// hasCode matches a command error by code or by any message fragment.
func hasCode(err error, code int32, fragments ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func isUnsupported(err error) bool {
	return hasCode(err, 59, "no such command") ||
		hasCode(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func optionalID() bson.M { return bson.M{"bsonType": bson.A{"objectId", "null"}} }

func enum[T ~string](vals ...T) bson.A {
	out := make(bson.A, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

func object(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   required,
		"properties": props,
	}}
}

func all() []collectionSchema {
	return []collectionSchema{
		{"provinces", provincesSchema()},
		{"districts", districtsSchema()},
		{"vacancies", vacanciesSchema()},
		{"candidates", candidatesSchema()},
		{"accounts", accountsSchema()},
		{"access_profiles", profilesSchema()},
		{"record_history", historySchema()},
		// free-form details; no validator
		{"audit_events", nil},
	}
}

func provincesSchema() bson.M {
	return object(bson.A{"name", "name_ci"}, bson.M{
		"name":      nonBlank,
		"name_ci":   nonBlank,
		"latitude":  bson.M{"bsonType": bson.A{"double", "null"}},
		"longitude": bson.M{"bsonType": bson.A{"double", "null"}},
	})
}

func districtsSchema() bson.M {
	return object(bson.A{"province_id", "name", "name_ci"}, bson.M{
		"province_id": bson.M{"bsonType": "objectId"},
		"name":        nonBlank,
		"name_ci":     nonBlank,
	})
}

func vacanciesSchema() bson.M {
	return object(bson.A{"title", "title_ci", "start_date", "end_date", "active"}, bson.M{
		"title":      nonBlank,
		"title_ci":   nonBlank,
		"start_date": bson.M{"bsonType": "date"},
		"end_date":   bson.M{"bsonType": "date"},
		"active":     bson.M{"bsonType": "bool"},
	})
}

func candidatesSchema() bson.M {
	return object(bson.A{"full_name", "national_id", "national_id_ci", "gender", "phone", "status", "created_at"}, bson.M{
		"full_name":      nonBlank,
		"national_id":    nonBlank,
		"national_id_ci": nonBlank,
		"gender":         bson.M{"enum": enum(models.GenderMale, models.GenderFemale)},
		"phone":          nonBlank,
		"status":         bson.M{"enum": enum(models.AllStatuses()...)},
		"vacancy_id":     optionalID(),
		"province_id":    optionalID(),
		"district_id":    optionalID(),
		"created_at":     bson.M{"bsonType": "date"},
	})
}

func accountsSchema() bson.M {
	return object(bson.A{"username", "username_ci", "password_hash", "is_superuser", "status"}, bson.M{
		"username":      nonBlank,
		"username_ci":   nonBlank,
		"password_hash": nonBlank,
		"is_superuser":  bson.M{"bsonType": "bool"},
		"status":        bson.M{"enum": bson.A{"active", "disabled"}},
	})
}

func profilesSchema() bson.M {
	return object(bson.A{"account_id", "level"}, bson.M{
		"account_id":  bson.M{"bsonType": "objectId"},
		"level":       bson.M{"enum": enum(models.LevelNational, models.LevelProvincial, models.LevelDistrict)},
		"province_id": optionalID(),
		"district_id": optionalID(),
	})
}

func historySchema() bson.M {
	return object(bson.A{"kind", "record_id", "action", "timestamp"}, bson.M{
		"kind":      bson.M{"enum": bson.A{models.HistoryKindCandidate, models.HistoryKindVacancy, models.HistoryKindProfile}},
		"record_id": bson.M{"bsonType": "objectId"},
		"action":    bson.M{"enum": bson.A{models.HistoryCreated, models.HistoryUpdated, models.HistoryDeleted}},
		"timestamp": bson.M{"bsonType": "date"},
	})
}
