// internal/app/store/candidates/candidatestore.go
package candidatestore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	"github.com/dalemusser/stratarecruit/internal/app/system/paging"
	"github.com/dalemusser/stratarecruit/internal/app/system/phone"
	"github.com/dalemusser/stratarecruit/internal/app/system/txn"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound            = errors.New("candidate not found")
	ErrDuplicateNationalID = errors.New("a candidate with this national ID already exists")
	ErrNameRequired        = errors.New("full name is required")
	ErrNationalIDRequired  = errors.New("national ID is required")
	ErrPhoneRequired       = errors.New("phone number is required")
	ErrInvalidGender       = errors.New("gender must be M or F")
	ErrInvalidStatus       = errors.New("unknown candidate status")
)

// StatusAll disables the status filter in List.
const StatusAll = "ALL"

// Input holds the fields of a new application.
type Input struct {
	FullName   string
	NationalID string
	Gender     models.Gender
	Phone      string
	Address    string
	VacancyID  *primitive.ObjectID
	ProvinceID *primitive.ObjectID
	DistrictID *primitive.ObjectID
	Checklist  models.DocumentChecklist
	Status     models.CandidateStatus
}

func (in *Input) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	switch {
	case in.FullName == "":
		return ErrNameRequired
	case in.NationalID == "":
		return ErrNationalIDRequired
	case in.Phone == "":
		return ErrPhoneRequired
	case !in.Gender.Valid():
		return ErrInvalidGender
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ListFilter narrows List. Scope is required; a zero Status means pending.
type ListFilter struct {
	Scope      candidatepolicy.Scope
	Status     string
	VacancyID  *primitive.ObjectID
	Gender     models.Gender
	ProvinceID *primitive.ObjectID
}

func (f ListFilter) bson() (bson.M, error) {
	filter := candidatepolicy.Filter(f.Scope)
	conds := bson.A{filter}

	switch status := f.Status; status {
	case StatusAll:
	case "":
		conds = append(conds, bson.M{"status": models.StatusPending})
	case string(models.StatusDocsApproved):
		conds = append(conds, bson.M{"status": bson.M{"$in": ReachedDocsApproved()}})
	default:
		if !models.CandidateStatus(status).Valid() {
			return nil, ErrInvalidStatus
		}
		conds = append(conds, bson.M{"status": status})
	}
	if f.VacancyID != nil {
		conds = append(conds, bson.M{"vacancy_id": *f.VacancyID})
	}
	if f.Gender != "" {
		conds = append(conds, bson.M{"gender": f.Gender})
	}
	if f.ProvinceID != nil {
		conds = append(conds, bson.M{"province_id": *f.ProvinceID})
	}
	if len(conds) == 1 {
		return filter, nil
	}
	return bson.M{"$and": conds}, nil
}

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	history *historystore.Store
	log     *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:      db,
		c:       db.Collection("candidates"),
		history: historystore.New(db),
		log:     log,
	}
}

// Create stores a new application and its "created" history entry.
func (s *Store) Create(ctx context.Context, in Input, actor historystore.Actor) (models.Candidate, error) {
	if err := in.normalize(); err != nil {
		return models.Candidate{}, err
	}
	now := time.Now().UTC()
	c := models.Candidate{
		ID:           primitive.NewObjectID(),
		FullName:     in.FullName,
		FullNameCI:   text.Fold(in.FullName),
		NationalID:   in.NationalID,
		NationalIDCI: text.Fold(in.NationalID),
		Gender:       in.Gender,
		Phone:        in.Phone,
		Address:      in.Address,
		VacancyID:    in.VacancyID,
		ProvinceID:   in.ProvinceID,
		DistrictID:   in.DistrictID,
		Checklist:    in.Checklist,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, c); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrDuplicateNationalID
			}
			return err
		}
		changes := []models.FieldChange{{Field: "status", NewValue: string(c.Status)}}
		_, err := s.history.Append(ctx, models.HistoryKindCandidate, c.ID, models.HistoryCreated, actor, changes)
		return err
	})
	if err != nil {
		return models.Candidate{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Candidate, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByNationalID looks a candidate up by national ID, ignoring case.
func (s *Store) GetByNationalID(ctx context.Context, nationalID string) (models.Candidate, error) {
	return s.findOne(ctx, bson.M{"national_id_ci": text.Fold(strings.TrimSpace(nationalID))})
}

// GetByNationalIDAndPhone authenticates a portal login. Phones are compared
// after normalization, so "84 123 4567" matches "+258841234567".
func (s *Store) GetByNationalIDAndPhone(ctx context.Context, nationalID, phoneNumber string) (models.Candidate, error) {
	c, err := s.GetByNationalID(ctx, nationalID)
	if err != nil {
		return models.Candidate{}, err
	}
	if phoneNumber == "" || phone.Format(c.Phone) != phone.Format(phoneNumber) {
		return models.Candidate{}, ErrNotFound
	}
	return c, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Candidate, error) {
	var c models.Candidate
	err := s.c.FindOne(ctx, filter).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Candidate{}, ErrNotFound
	}
	return c, err
}

// List returns one page of candidates matching f, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, start int) ([]models.Candidate, bool, error) {
	filter, err := f.bson()
	if err != nil {
		return nil, false, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(paging.Skip(start)).
		SetLimit(paging.LimitPlusOne())
	rows, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	hasNext := paging.TrimPage(&rows)
	return rows, hasNext, nil
}

// Count returns how many candidates match f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	filter, err := f.bson()
	if err != nil {
		return 0, err
	}
	return s.c.CountDocuments(ctx, filter)
}

// ListVisible returns every candidate inside scope, newest first. A Denied
// scope returns an empty slice.
func (s *Store) ListVisible(ctx context.Context, scope candidatepolicy.Scope) ([]models.Candidate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, candidatepolicy.Filter(scope), opts)
}

// ListByIDs returns the candidates with the given IDs that are inside scope.
func (s *Store) ListByIDs(ctx context.Context, scope candidatepolicy.Scope, ids []primitive.ObjectID) ([]models.Candidate, error) {
	if len(ids) == 0 {
		return []models.Candidate{}, nil
	}
	filter := bson.M{"$and": bson.A{candidatepolicy.Filter(scope), bson.M{"_id": bson.M{"$in": ids}}}}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
}

// CountByVacancy returns how many candidates applied to a vacancy.
func (s *Store) CountByVacancy(ctx context.Context, vacancyID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"vacancy_id": vacancyID})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Candidate, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Candidate{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionOptions carries action-specific data.
type TransitionOptions struct {
	// InterviewAt is recorded by ActionSchedule when set.
	InterviewAt *time.Time
}

// Transition applies a workflow action and records the status change. It
// returns the status before the change and the updated candidate.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, a Action, opts TransitionOptions, actor historystore.Actor) (models.CandidateStatus, models.Candidate, error) {
	var from models.CandidateStatus
	var updated models.Candidate
	err := s.mutate(ctx, id, actor, func(c *models.Candidate) error {
		next, err := Next(c.Status, a)
		if err != nil {
			return err
		}
		from = c.Status
		c.Status = next
		if a == ActionSchedule && opts.InterviewAt != nil {
			at := opts.InterviewAt.UTC()
			c.InterviewAt = &at
		}
		return nil
	}, &updated)
	return from, updated, err
}

// UpdateChecklist replaces the document checklist.
func (s *Store) UpdateChecklist(ctx context.Context, id primitive.ObjectID, checklist models.DocumentChecklist, actor historystore.Actor) (models.Candidate, error) {
	var updated models.Candidate
	err := s.mutate(ctx, id, actor, func(c *models.Candidate) error {
		c.Checklist = checklist
		return nil
	}, &updated)
	return updated, err
}

// UpdateNotes replaces the staff notes. Callers sanitize notes first.
func (s *Store) UpdateNotes(ctx context.Context, id primitive.ObjectID, notes string, actor historystore.Actor) (models.Candidate, error) {
	var updated models.Candidate
	err := s.mutate(ctx, id, actor, func(c *models.Candidate) error {
		c.Notes = notes
		return nil
	}, &updated)
	return updated, err
}

// mutate loads, edits and saves a candidate with its history entry in one
// transaction. No entry is written when nothing changed.
func (s *Store) mutate(ctx context.Context, id primitive.ObjectID, actor historystore.Actor, edit func(*models.Candidate) error, out *models.Candidate) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		before, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		after := before
		if err := edit(&after); err != nil {
			return err
		}
		changes := historystore.Diff(trackedFields, snapshot(before), snapshot(after))
		*out = after
		if len(changes) == 0 {
			return nil
		}
		after.UpdatedAt = time.Now().UTC()
		if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": id}, after); err != nil {
			return err
		}
		*out = after
		_, err = s.history.Append(ctx, models.HistoryKindCandidate, id, models.HistoryUpdated, actor, changes)
		return err
	})
}

var trackedFields = []string{
	"status",
	"interview_at",
	"notes",
	"checklist.id_document",
	"checklist.cv",
	"checklist.certificate",
	"checklist.tax_number",
	"checklist.criminal_record",
	"checklist.medical_certificate",
	"checklist.signed_request",
}

func snapshot(c models.Candidate) map[string]string {
	interview := ""
	if c.InterviewAt != nil {
		interview = c.InterviewAt.UTC().Format(time.RFC3339)
	}
	b := strconv.FormatBool
	return map[string]string{
		"status":                        string(c.Status),
		"interview_at":                  interview,
		"notes":                         c.Notes,
		"checklist.id_document":         b(c.Checklist.IDDocument),
		"checklist.cv":                  b(c.Checklist.CV),
		"checklist.certificate":         b(c.Checklist.Certificate),
		"checklist.tax_number":          b(c.Checklist.TaxNumber),
		"checklist.criminal_record":     b(c.Checklist.CriminalRecord),
		"checklist.medical_certificate": b(c.Checklist.MedicalCertificate),
		"checklist.signed_request":      b(c.Checklist.SignedRequest),
	}
}
