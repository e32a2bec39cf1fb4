package accountstore_test

import (
	"errors"
	"testing"

	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/stratarecruit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestCreate_And_Authenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, accountstore.NewAccount{Username: "Gaza.Admin", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.PasswordHash == "" || a.PasswordHash == "s3cret-pass" {
		t.Error("password not hashed")
	}
	if a.FullName != "Gaza.Admin" {
		t.Errorf("FullName = %q, want username fallback", a.FullName)
	}

	if _, err := store.Create(ctx, accountstore.NewAccount{Username: "gaza.admin", Password: "another-pass"}); !errors.Is(err, accountstore.ErrUsernameTaken) {
		t.Errorf("duplicate err = %v, want ErrUsernameTaken", err)
	}
	if _, err := store.Create(ctx, accountstore.NewAccount{Username: "short", Password: "123"}); !errors.Is(err, accountstore.ErrPasswordTooShort) {
		t.Errorf("short password err = %v", err)
	}
	if _, err := store.Create(ctx, accountstore.NewAccount{Username: " ", Password: "long-enough"}); !errors.Is(err, accountstore.ErrUsernameRequired) {
		t.Errorf("blank username err = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"ok case-insensitive", "GAZA.ADMIN", "s3cret-pass", nil},
		{"wrong password", "gaza.admin", "nope-nope", accountstore.ErrWrongPassword},
		{"unknown", "nobody", "s3cret-pass", accountstore.ErrUnknownUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Authenticate(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate err = %v, want %v", err, tt.want)
			}
		})
	}

	if err := store.SetStatus(ctx, a.ID, accountstore.StatusDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, err := store.Authenticate(ctx, "gaza.admin", "s3cret-pass")
	if !errors.Is(err, accountstore.ErrAccountDisabled) || got.ID != a.ID {
		t.Errorf("disabled = %v, %v", got.ID, err)
	}
}

func TestEnsureProfile_DefaultsToUnscopedDistrict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, accountstore.NewAccount{Username: "new.staff", Password: "password1"})

	ap, created, err := store.EnsureProfile(ctx, a.ID, historystore.Actor{Name: "Ana Sitoe"})
	if err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}
	if !created {
		t.Error("created = false on first call")
	}
	if ap.Level != models.LevelDistrict || ap.ProvinceID != nil || ap.DistrictID != nil {
		t.Errorf("default profile = %+v", ap)
	}

	again, created, err := store.EnsureProfile(ctx, a.ID, historystore.Actor{Name: "Ana Sitoe"})
	if err != nil {
		t.Fatalf("EnsureProfile again failed: %v", err)
	}
	if created || again.ID != ap.ID {
		t.Errorf("second EnsureProfile created=%v id=%s, want same profile", created, again.ID.Hex())
	}

	entries, err := historystore.New(db).ByRecord(ctx, models.HistoryKindProfile, ap.ID)
	if err != nil {
		t.Fatalf("ByRecord failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1 (created only)", len(entries))
	}
	e := entries[0]
	if e.Action != models.HistoryCreated || e.ActorName != "Ana Sitoe" {
		t.Errorf("entry action=%q actor=%q", e.Action, e.ActorName)
	}
	want := models.FieldChange{Field: "level", OldValue: "", NewValue: string(models.LevelDistrict)}
	if len(e.Changes) != 1 || e.Changes[0] != want {
		t.Errorf("changes = %+v, want [%+v]", e.Changes, want)
	}
}

func TestUpdateProfile_Invariants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	geo := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gaza, _ := geo.CreateProvince(ctx, "Gaza", nil, nil)
	sofala, _ := geo.CreateProvince(ctx, "Sofala", nil, nil)
	xai, _ := geo.CreateDistrict(ctx, gaza.ID, "Xai-Xai")

	a, _ := store.Create(ctx, accountstore.NewAccount{Username: "officer", Password: "password1"})
	store.EnsureProfile(ctx, a.ID, historystore.System)

	tests := []struct {
		name string
		in   accountstore.ProfileInput
		want error
	}{
		{"bad level", accountstore.ProfileInput{Level: "CENTRAL"}, accountstore.ErrInvalidLevel},
		{"provincial without province", accountstore.ProfileInput{Level: models.LevelProvincial}, accountstore.ErrInvalidProfile},
		{"provincial with district", accountstore.ProfileInput{Level: models.LevelProvincial, ProvinceID: &gaza.ID, DistrictID: &xai.ID}, accountstore.ErrInvalidProfile},
		{"district without district", accountstore.ProfileInput{Level: models.LevelDistrict, ProvinceID: &gaza.ID}, accountstore.ErrInvalidProfile},
		{"district in wrong province", accountstore.ProfileInput{Level: models.LevelDistrict, ProvinceID: &sofala.ID, DistrictID: &xai.ID}, geographystore.ErrInconsistentGeography},
		{"district ok", accountstore.ProfileInput{Level: models.LevelDistrict, ProvinceID: &gaza.ID, DistrictID: &xai.ID}, nil},
		{"provincial ok", accountstore.ProfileInput{Level: models.LevelProvincial, ProvinceID: &gaza.ID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.UpdateProfile(ctx, a.ID, tt.in, historystore.System)
			if !errors.Is(err, tt.want) {
				t.Errorf("UpdateProfile err = %v, want %v", err, tt.want)
			}
		})
	}

	ap, err := store.UpdateProfile(ctx, a.ID, accountstore.ProfileInput{Level: models.LevelNational, ProvinceID: &gaza.ID}, historystore.System)
	if err != nil {
		t.Fatalf("national update failed: %v", err)
	}
	if ap.ProvinceID != nil || ap.DistrictID != nil {
		t.Errorf("national profile kept scope: %+v", ap)
	}

	if _, err := store.UpdateProfile(ctx, primitive.NewObjectID(), accountstore.ProfileInput{Level: models.LevelNational}, historystore.System); !errors.Is(err, accountstore.ErrProfileNotFound) {
		t.Errorf("missing profile err = %v", err)
	}
}

func TestCreateStaff_And_ListManaged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	geo := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gaza, _ := geo.CreateProvince(ctx, "Gaza", nil, nil)
	sofala, _ := geo.CreateProvince(ctx, "Sofala", nil, nil)
	xai, _ := geo.CreateDistrict(ctx, gaza.ID, "Xai-Xai")
	beira, _ := geo.CreateDistrict(ctx, sofala.ID, "Beira")

	mk := func(username string, in accountstore.ProfileInput) {
		t.Helper()
		if _, _, err := store.CreateStaff(ctx, accountstore.NewAccount{Username: username, Password: "password1"}, in, historystore.System); err != nil {
			t.Fatalf("CreateStaff %s failed: %v", username, err)
		}
	}
	mk("national", accountstore.ProfileInput{Level: models.LevelNational})
	mk("prov.gaza", accountstore.ProfileInput{Level: models.LevelProvincial, ProvinceID: &gaza.ID})
	mk("dist.xai", accountstore.ProfileInput{Level: models.LevelDistrict, ProvinceID: &gaza.ID, DistrictID: &xai.ID})
	mk("dist.beira", accountstore.ProfileInput{Level: models.LevelDistrict, ProvinceID: &sofala.ID, DistrictID: &beira.ID})
	store.EnsureSuperuser(ctx, "root", "password1")

	// invalid profile rolls back nothing visible
	_, _, err := store.CreateStaff(ctx, accountstore.NewAccount{Username: "bad", Password: "password1"}, accountstore.ProfileInput{Level: models.LevelProvincial}, historystore.System)
	if !errors.Is(err, accountstore.ErrInvalidProfile) {
		t.Errorf("invalid staff err = %v", err)
	}
	if _, err := store.GetByUsername(ctx, "bad"); !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("account created despite invalid profile: %v", err)
	}

	gazaDistricts, err := store.ListManaged(ctx, []models.Level{models.LevelDistrict}, &gaza.ID)
	if err != nil {
		t.Fatalf("ListManaged failed: %v", err)
	}
	if len(gazaDistricts) != 1 || gazaDistricts[0].Account.Username != "dist.xai" {
		t.Errorf("gaza districts = %+v", gazaDistricts)
	}

	top, _ := store.ListManaged(ctx, []models.Level{models.LevelNational, models.LevelProvincial}, nil)
	if len(top) != 2 || top[0].Account.Username != "national" || top[1].Account.Username != "prov.gaza" {
		t.Errorf("national+provincial = %+v", top)
	}

	none, _ := store.ListManaged(ctx, nil, nil)
	if len(none) != 0 {
		t.Errorf("no levels = %d rows", len(none))
	}
}

func TestEnsureSuperuser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, created, err := store.EnsureSuperuser(ctx, "admin", "bootstrap-pass")
	if err != nil || !created || !a.IsSuperuser {
		t.Fatalf("first EnsureSuperuser = %+v, %v, %v", a, created, err)
	}
	again, created, err := store.EnsureSuperuser(ctx, "ADMIN", "other-pass")
	if err != nil || created || again.ID != a.ID {
		t.Errorf("second EnsureSuperuser = %s, %v, %v", again.ID.Hex(), created, err)
	}
	// password unchanged
	if _, err := store.Authenticate(ctx, "admin", "bootstrap-pass"); err != nil {
		t.Errorf("original password rejected: %v", err)
	}

	staff, _ := store.Create(ctx, accountstore.NewAccount{Username: "promoted", Password: "password1"})
	p, created, err := store.EnsureSuperuser(ctx, "promoted", "ignored-pass")
	if err != nil || created || p.ID != staff.ID || !p.IsSuperuser {
		t.Errorf("promote = %+v, %v, %v", p, created, err)
	}
	stored, _ := store.GetByID(ctx, staff.ID)
	if !stored.IsSuperuser {
		t.Error("promotion not persisted")
	}
}

func TestNamesByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, accountstore.NewAccount{Username: "ana", FullName: "Ana Machel", Password: "long-enough"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	missing := primitive.NewObjectID()

	names, err := store.NamesByID(ctx, []primitive.ObjectID{a.ID, missing})
	if err != nil {
		t.Fatalf("NamesByID failed: %v", err)
	}
	if len(names) != 1 || names[a.ID] != "Ana Machel" {
		t.Errorf("names = %v", names)
	}

	empty, err := store.NamesByID(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty lookup = %v, %v", empty, err)
	}
}
