package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the password of every account created by Fixtures.
const FixturePassword = "fixture-pass"

var seq atomic.Int64

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateProvince creates a province without coordinates.
func (f *Fixtures) CreateProvince(ctx context.Context, name string) models.Province {
	f.t.Helper()
	p := models.Province{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "provinces", p)
	return p
}

// CreateDistrict creates a district inside provinceID.
func (f *Fixtures) CreateDistrict(ctx context.Context, provinceID primitive.ObjectID, name string) models.District {
	f.t.Helper()
	d := models.District{
		ID:         primitive.NewObjectID(),
		ProvinceID: provinceID,
		Name:       name,
		NameCI:     text.Fold(name),
		CreatedAt:  time.Now().UTC(),
	}
	f.insert(ctx, "districts", d)
	return d
}

// CreateVacancy creates an active vacancy open from a month ago to a month
// from now.
func (f *Fixtures) CreateVacancy(ctx context.Context, title string) models.Vacancy {
	f.t.Helper()
	now := time.Now().UTC()
	v := models.Vacancy{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 1, 0),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "vacancies", v)
	return v
}

// CandidateOpts overrides CreateCandidate defaults. Zero fields keep the
// default: a pending female candidate with a generated national ID.
type CandidateOpts struct {
	FullName   string
	NationalID string
	Phone      string
	Gender     models.Gender
	Status     models.CandidateStatus
	VacancyID  *primitive.ObjectID
	ProvinceID *primitive.ObjectID
	DistrictID *primitive.ObjectID
	Checklist  models.DocumentChecklist
	CreatedAt  time.Time
}

// CreateCandidate inserts a candidate directly, without history.
func (f *Fixtures) CreateCandidate(ctx context.Context, o CandidateOpts) models.Candidate {
	f.t.Helper()
	n := seq.Add(1)
	if o.FullName == "" {
		o.FullName = fmt.Sprintf("Candidate %d", n)
	}
	if o.NationalID == "" {
		o.NationalID = fmt.Sprintf("1101%08dA", n)
	}
	if o.Phone == "" {
		o.Phone = "841234567"
	}
	if o.Gender == "" {
		o.Gender = models.GenderFemale
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	c := models.Candidate{
		ID:           primitive.NewObjectID(),
		FullName:     o.FullName,
		FullNameCI:   text.Fold(o.FullName),
		NationalID:   o.NationalID,
		NationalIDCI: text.Fold(o.NationalID),
		Gender:       o.Gender,
		Phone:        o.Phone,
		VacancyID:    o.VacancyID,
		ProvinceID:   o.ProvinceID,
		DistrictID:   o.DistrictID,
		Checklist:    o.Checklist,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.CreatedAt,
	}
	f.insert(ctx, "candidates", c)
	return c
}

// AccountOpts describes an account for CreateAccount. Superusers and
// NoProfile accounts get no access profile; a zero Level stores the default
// unscoped district profile.
type AccountOpts struct {
	Username    string
	IsSuperuser bool
	Level       models.Level
	ProvinceID  *primitive.ObjectID
	DistrictID  *primitive.ObjectID
	NoProfile   bool
	Disabled    bool
}

// CreateAccount inserts an account with FixturePassword and, for staff, its
// access profile. The profile is nil for superusers and NoProfile accounts.
func (f *Fixtures) CreateAccount(ctx context.Context, o AccountOpts) (models.Account, *models.AccessProfile) {
	f.t.Helper()
	n := seq.Add(1)
	if o.Username == "" {
		o.Username = fmt.Sprintf("staff%d", n)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	status := "active"
	if o.Disabled {
		status = "disabled"
	}
	a := models.Account{
		ID:           primitive.NewObjectID(),
		Username:     o.Username,
		UsernameCI:   text.Fold(o.Username),
		FullName:     "Test " + o.Username,
		PasswordHash: string(hash),
		IsSuperuser:  o.IsSuperuser,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "accounts", a)
	if o.IsSuperuser || o.NoProfile {
		return a, nil
	}
	if o.Level == "" {
		o.Level = models.LevelDistrict
	}
	ap := models.AccessProfile{
		ID:         primitive.NewObjectID(),
		AccountID:  a.ID,
		Level:      o.Level,
		ProvinceID: o.ProvinceID,
		DistrictID: o.DistrictID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "access_profiles", ap)
	return a, &ap
}
