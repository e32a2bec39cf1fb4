// internal/app/store/vacancies/vacancystore.go
package vacancystore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	"github.com/dalemusser/stratarecruit/internal/app/system/txn"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("vacancy not found")
	ErrTitleRequired = errors.New("vacancy title is required")
	ErrDateRange     = errors.New("vacancy end date is before its start date")
	// ErrVacancyInUse is returned by Delete while candidates reference the vacancy.
	ErrVacancyInUse = errors.New("vacancy has candidates and cannot be deleted")
)

// Input is the editable part of a vacancy.
type Input struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Active      bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.EndDate.Before(in.StartDate) {
		return ErrDateRange
	}
	return nil
}

type Store struct {
	db         *mongo.Database
	c          *mongo.Collection
	candidates *mongo.Collection
	history    *historystore.Store
	log        *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:         db,
		c:          db.Collection("vacancies"),
		candidates: db.Collection("candidates"),
		history:    historystore.New(db),
		log:        log,
	}
}

func snapshot(v models.Vacancy) map[string]string {
	return map[string]string{
		"title":       v.Title,
		"description": v.Description,
		"start_date":  v.StartDate.UTC().Format("2006-01-02"),
		"end_date":    v.EndDate.UTC().Format("2006-01-02"),
		"active":      strconv.FormatBool(v.Active),
	}
}

var trackedFields = []string{"title", "description", "start_date", "end_date", "active"}

func (s *Store) Create(ctx context.Context, in Input, actor historystore.Actor) (models.Vacancy, error) {
	if err := in.validate(); err != nil {
		return models.Vacancy{}, err
	}
	now := time.Now().UTC()
	v := models.Vacancy{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Active:      in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	v.TitleCI = text.Fold(v.Title)

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, v); err != nil {
			return err
		}
		changes := historystore.Diff(trackedFields, nil, snapshot(v))
		_, err := s.history.Append(ctx, models.HistoryKindVacancy, v.ID, models.HistoryCreated, actor, changes)
		return err
	})
	if err != nil {
		return models.Vacancy{}, err
	}
	return v, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Vacancy, error) {
	var v models.Vacancy
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return models.Vacancy{}, ErrNotFound
	}
	return v, err
}

// Update replaces the editable fields and records the changed ones.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in Input, actor historystore.Actor) (models.Vacancy, error) {
	if err := in.validate(); err != nil {
		return models.Vacancy{}, err
	}
	var updated models.Vacancy
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		before, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		updated = before
		updated.Title = strings.TrimSpace(in.Title)
		updated.TitleCI = text.Fold(updated.Title)
		updated.Description = in.Description
		updated.StartDate = in.StartDate.UTC()
		updated.EndDate = in.EndDate.UTC()
		updated.Active = in.Active
		updated.UpdatedAt = time.Now().UTC()

		changes := historystore.Diff(trackedFields, snapshot(before), snapshot(updated))
		if len(changes) == 0 {
			return nil
		}
		if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": id}, updated); err != nil {
			return err
		}
		_, err = s.history.Append(ctx, models.HistoryKindVacancy, id, models.HistoryUpdated, actor, changes)
		return err
	})
	if err != nil {
		return models.Vacancy{}, err
	}
	return updated, nil
}

// Delete removes a vacancy no candidate references.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, actor historystore.Actor) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		v, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := s.candidates.CountDocuments(ctx, bson.M{"vacancy_id": id})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrVacancyInUse
		}
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		changes := historystore.Diff(trackedFields, snapshot(v), nil)
		_, err = s.history.Append(ctx, models.HistoryKindVacancy, id, models.HistoryDeleted, actor, changes)
		return err
	})
}

// List returns every vacancy, newest start date first.
func (s *Store) List(ctx context.Context) ([]models.Vacancy, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "title_ci", Value: 1}}))
}

// ListOpen returns the active vacancies whose window contains now's day,
// ordered by title.
func (s *Store) ListOpen(ctx context.Context, now time.Time) ([]models.Vacancy, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	filter := bson.M{
		"active":     true,
		"start_date": bson.M{"$lt": day.Add(24 * time.Hour)},
		"end_date":   bson.M{"$gte": day},
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}}))
}

// TitlesByID maps vacancy IDs to titles. Unknown IDs are absent from the map.
func (s *Store) TitlesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"title": 1})
	rows, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.ID] = v.Title
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Vacancy, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Vacancy{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
