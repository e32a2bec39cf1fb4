package geographystore_test

import (
	"errors"
	"testing"

	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	"github.com/dalemusser/stratarecruit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSeed_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	want := geographystore.SeedSize()
	if first != want {
		t.Errorf("first Seed = %+v, want %+v", first, want)
	}
	if want.Provinces != 11 {
		t.Errorf("seed provinces = %d, want 11", want.Provinces)
	}

	second, err := store.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if second != (geographystore.SeedResult{}) {
		t.Errorf("second Seed = %+v, want nothing created", second)
	}

	provinces, err := store.ListProvinces(ctx)
	if err != nil {
		t.Fatalf("ListProvinces failed: %v", err)
	}
	if len(provinces) != 11 {
		t.Errorf("provinces = %d, want 11", len(provinces))
	}
	if provinces[0].Latitude == nil {
		t.Error("seeded province has no latitude")
	}
}

func TestCreateProvince_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.CreateProvince(ctx, "Gaza", nil, nil); err != nil {
		t.Fatalf("CreateProvince failed: %v", err)
	}
	if _, err := store.CreateProvince(ctx, "GAZA", nil, nil); !errors.Is(err, geographystore.ErrDuplicateProvince) {
		t.Errorf("duplicate err = %v, want ErrDuplicateProvince", err)
	}
}

func TestDistricts_UniquePerProvince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	manica, _ := store.CreateProvince(ctx, "Manica", nil, nil)
	sofala, _ := store.CreateProvince(ctx, "Sofala", nil, nil)

	if _, err := store.CreateDistrict(ctx, manica.ID, "Manica"); err != nil {
		t.Fatalf("CreateDistrict failed: %v", err)
	}
	if _, err := store.CreateDistrict(ctx, manica.ID, "manica"); !errors.Is(err, geographystore.ErrDuplicateDistrict) {
		t.Errorf("duplicate err = %v, want ErrDuplicateDistrict", err)
	}
	if _, err := store.CreateDistrict(ctx, sofala.ID, "Manica"); err != nil {
		t.Errorf("same name in other province failed: %v", err)
	}
	if _, err := store.CreateDistrict(ctx, primitive.NewObjectID(), "Nowhere"); !errors.Is(err, geographystore.ErrProvinceNotFound) {
		t.Errorf("unknown province err = %v, want ErrProvinceNotFound", err)
	}

	list, err := store.ListDistricts(ctx, manica.ID)
	if err != nil {
		t.Fatalf("ListDistricts failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Manica districts = %d, want 1", len(list))
	}
}

func TestValidatePair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := geographystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gaza, _ := store.CreateProvince(ctx, "Gaza", nil, nil)
	niassa, _ := store.CreateProvince(ctx, "Niassa", nil, nil)
	xai, _ := store.CreateDistrict(ctx, gaza.ID, "Xai-Xai")
	missing := primitive.NewObjectID()

	tests := []struct {
		name     string
		province *primitive.ObjectID
		district *primitive.ObjectID
		want     error
	}{
		{"none", nil, nil, nil},
		{"province only", &gaza.ID, nil, nil},
		{"consistent", &gaza.ID, &xai.ID, nil},
		{"wrong province", &niassa.ID, &xai.ID, geographystore.ErrInconsistentGeography},
		{"district without province", nil, &xai.ID, geographystore.ErrInconsistentGeography},
		{"unknown province", &missing, nil, geographystore.ErrProvinceNotFound},
		{"unknown district", &gaza.ID, &missing, geographystore.ErrDistrictNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ValidatePair(ctx, tt.province, tt.district)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidatePair err = %v, want %v", err, tt.want)
			}
		})
	}
}
