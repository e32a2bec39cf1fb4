// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"strings"
	"time"

	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	"github.com/dalemusser/stratarecruit/internal/app/system/txn"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 12

// MinPasswordLength is enforced on create.
const MinPasswordLength = 8

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound         = errors.New("account not found")
	ErrProfileNotFound  = errors.New("access profile not found")
	ErrUsernameTaken    = errors.New("an account with this username already exists")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrUnknownUsername and ErrWrongPassword are distinct so failed logins
	// can be audited precisely. Handlers must report both the same way.
	ErrUnknownUsername = errors.New("unknown username")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrInvalidLevel    = errors.New("level must be NATIONAL, PROVINCIAL or DISTRICT")
	// ErrInvalidProfile means the scope does not fit the level.
	ErrInvalidProfile = errors.New("province and district do not match the access level")
)

// PairValidator checks that a district belongs to a province.
type PairValidator interface {
	ValidatePair(ctx context.Context, provinceID, districtID *primitive.ObjectID) error
}

// NewAccount holds the fields of an account to create.
type NewAccount struct {
	Username    string
	FullName    string
	Password    string
	IsSuperuser bool
}

// ProfileInput is a requested level and scope.
type ProfileInput struct {
	Level      models.Level
	ProvinceID *primitive.ObjectID
	DistrictID *primitive.ObjectID
}

// Managed pairs an account with its profile for listings.
type Managed struct {
	Account models.Account       `json:"account"`
	Profile models.AccessProfile `json:"profile"`
}

type Store struct {
	db       *mongo.Database
	accounts *mongo.Collection
	profiles *mongo.Collection
	history  *historystore.Store
	geo      PairValidator
	log      *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:       db,
		accounts: db.Collection("accounts"),
		profiles: db.Collection("access_profiles"),
		history:  historystore.New(db),
		geo:      geographystore.New(db),
		log:      log,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Create inserts an account. It does not create an access profile; call
// EnsureProfile for staff accounts.
func (s *Store) Create(ctx context.Context, in NewAccount) (models.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.Account{}, ErrUsernameRequired
	}
	if len(in.Password) < MinPasswordLength {
		return models.Account{}, ErrPasswordTooShort
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.Account{}, err
	}
	now := time.Now().UTC()
	a := models.Account{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		IsSuperuser:  in.IsSuperuser,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.FullName == "" {
		a.FullName = username
	}
	if _, err := s.accounts.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrUsernameTaken
		}
		return models.Account{}, err
	}
	return a, nil
}

// CreateStaff creates a non-superuser account with its profile set to in,
// all in one transaction.
func (s *Store) CreateStaff(ctx context.Context, acct NewAccount, in ProfileInput, actor historystore.Actor) (models.Account, models.AccessProfile, error) {
	acct.IsSuperuser = false
	if err := s.validateProfile(ctx, &in); err != nil {
		return models.Account{}, models.AccessProfile{}, err
	}
	var a models.Account
	var ap models.AccessProfile
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var err error
		if a, err = s.Create(ctx, acct); err != nil {
			return err
		}
		if _, _, err = s.EnsureProfile(ctx, a.ID, actor); err != nil {
			return err
		}
		ap, err = s.UpdateProfile(ctx, a.ID, in, actor)
		return err
	})
	if err != nil {
		return models.Account{}, models.AccessProfile{}, err
	}
	return a, ap, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	return s.findAccount(ctx, bson.M{"username_ci": text.Fold(strings.TrimSpace(username))})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (models.Account, error) {
	var a models.Account
	err := s.accounts.FindOne(ctx, filter).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return models.Account{}, ErrNotFound
	}
	return a, err
}

// NamesByID maps account IDs to display names. Unknown IDs are absent.
func (s *Store) NamesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.accounts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"full_name": 1}))
	if err != nil {
		return nil, err
	}
	var rows []models.Account
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a.FullName
	}
	return out, nil
}

// Authenticate checks a username and password. The returned account is set
// for ErrWrongPassword and ErrAccountDisabled so the failure can be audited
// against it.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.Account, error) {
	a, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return models.Account{}, ErrUnknownUsername
	}
	if err != nil {
		return models.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return a, ErrWrongPassword
	}
	if a.Status != StatusActive {
		return a, ErrAccountDisabled
	}
	return a, nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.accounts.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSuperuser creates the named superuser or promotes an existing
// account. An existing password is left unchanged.
func (s *Store) EnsureSuperuser(ctx context.Context, username, password string) (models.Account, bool, error) {
	a, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		a, err = s.Create(ctx, NewAccount{Username: username, Password: password, IsSuperuser: true})
		if err != nil {
			return models.Account{}, false, err
		}
		return a, true, nil
	}
	if err != nil {
		return models.Account{}, false, err
	}
	if a.IsSuperuser && a.Status == StatusActive {
		return a, false, nil
	}
	set := bson.M{"is_superuser": true, "status": StatusActive, "updated_at": time.Now().UTC()}
	if _, err := s.accounts.UpdateByID(ctx, a.ID, bson.M{"$set": set}); err != nil {
		return models.Account{}, false, err
	}
	a.IsSuperuser = true
	a.Status = StatusActive
	return a, false, nil
}

// EnsureProfile returns the account's profile, creating the default one
// (district level, no scope, so nothing is visible) when missing. A created
// profile gets its first history entry.
func (s *Store) EnsureProfile(ctx context.Context, accountID primitive.ObjectID, actor historystore.Actor) (models.AccessProfile, bool, error) {
	var ap models.AccessProfile
	var created bool
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		now := time.Now().UTC()
		def := models.AccessProfile{
			ID:        primitive.NewObjectID(),
			AccountID: accountID,
			Level:     models.LevelDistrict,
			CreatedAt: now,
			UpdatedAt: now,
		}
		res, err := s.profiles.UpdateOne(ctx,
			bson.M{"account_id": accountID},
			bson.M{"$setOnInsert": def},
			options.Update().SetUpsert(true))
		if err != nil && !wafflemongo.IsDup(err) {
			return err
		}
		if ap, err = s.GetProfile(ctx, accountID); err != nil {
			return err
		}
		created = res != nil && res.UpsertedCount > 0
		if !created {
			return nil
		}
		changes := historystore.Diff(profileFields, profileSnapshot(models.AccessProfile{}), profileSnapshot(ap))
		_, err = s.history.Append(ctx, models.HistoryKindProfile, ap.ID, models.HistoryCreated, actor, changes)
		return err
	})
	if err != nil {
		return models.AccessProfile{}, false, err
	}
	return ap, created, nil
}

func (s *Store) GetProfile(ctx context.Context, accountID primitive.ObjectID) (models.AccessProfile, error) {
	var ap models.AccessProfile
	err := s.profiles.FindOne(ctx, bson.M{"account_id": accountID}).Decode(&ap)
	if err == mongo.ErrNoDocuments {
		return models.AccessProfile{}, ErrProfileNotFound
	}
	return ap, err
}

// validateProfile enforces the level invariants:
//   - national: no scope (any supplied scope is cleared)
//   - provincial: province set, no district
//   - district: both set and the district inside the province
func (s *Store) validateProfile(ctx context.Context, in *ProfileInput) error {
	switch in.Level {
	case models.LevelNational:
		in.ProvinceID, in.DistrictID = nil, nil
		return nil
	case models.LevelProvincial:
		if in.ProvinceID == nil || in.DistrictID != nil {
			return ErrInvalidProfile
		}
	case models.LevelDistrict:
		if in.ProvinceID == nil || in.DistrictID == nil {
			return ErrInvalidProfile
		}
	default:
		return ErrInvalidLevel
	}
	return s.geo.ValidatePair(ctx, in.ProvinceID, in.DistrictID)
}

// UpdateProfile sets the level and scope of an existing profile and records
// the change.
func (s *Store) UpdateProfile(ctx context.Context, accountID primitive.ObjectID, in ProfileInput, actor historystore.Actor) (models.AccessProfile, error) {
	if err := s.validateProfile(ctx, &in); err != nil {
		return models.AccessProfile{}, err
	}
	var updated models.AccessProfile
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		before, err := s.GetProfile(ctx, accountID)
		if err != nil {
			return err
		}
		updated = before
		updated.Level = in.Level
		updated.ProvinceID = in.ProvinceID
		updated.DistrictID = in.DistrictID
		changes := historystore.Diff(profileFields, profileSnapshot(before), profileSnapshot(updated))
		if len(changes) == 0 {
			return nil
		}
		updated.UpdatedAt = time.Now().UTC()
		if _, err := s.profiles.ReplaceOne(ctx, bson.M{"_id": before.ID}, updated); err != nil {
			return err
		}
		_, err = s.history.Append(ctx, models.HistoryKindProfile, before.ID, models.HistoryUpdated, actor, changes)
		return err
	})
	if err != nil {
		return models.AccessProfile{}, err
	}
	return updated, nil
}

var profileFields = []string{"level", "province_id", "district_id"}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func profileSnapshot(ap models.AccessProfile) map[string]string {
	return map[string]string{
		"level":       string(ap.Level),
		"province_id": hexOrEmpty(ap.ProvinceID),
		"district_id": hexOrEmpty(ap.DistrictID),
	}
}

// ListManaged returns the non-superuser accounts whose profile has one of
// levels, optionally restricted to a province, ordered by username.
func (s *Store) ListManaged(ctx context.Context, levels []models.Level, provinceID *primitive.ObjectID) ([]Managed, error) {
	out := []Managed{}
	if len(levels) == 0 {
		return out, nil
	}
	filter := bson.M{"level": bson.M{"$in": levels}}
	if provinceID != nil {
		filter["province_id"] = *provinceID
	}
	cur, err := s.profiles.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var profiles []models.AccessProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return out, nil
	}

	byAccount := make(map[primitive.ObjectID]models.AccessProfile, len(profiles))
	ids := make([]primitive.ObjectID, 0, len(profiles))
	for _, ap := range profiles {
		byAccount[ap.AccountID] = ap
		ids = append(ids, ap.AccountID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "username_ci", Value: 1}})
	acur, err := s.accounts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "is_superuser": false}, opts)
	if err != nil {
		return nil, err
	}
	defer acur.Close(ctx)
	var accounts []models.Account
	if err := acur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out = append(out, Managed{Account: a, Profile: byAccount[a.ID]})
	}
	return out, nil
}
