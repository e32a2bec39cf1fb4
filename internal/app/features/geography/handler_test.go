package geography_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/stratarecruit/internal/app/features/geography"
	"github.com/dalemusser/stratarecruit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeProvincesAndDistricts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sofala := fixtures.CreateProvince(ctx, "Sofala")
	gaza := fixtures.CreateProvince(ctx, "Gaza")
	fixtures.CreateDistrict(ctx, gaza.ID, "Xai-Xai")
	fixtures.CreateDistrict(ctx, gaza.ID, "Bilene")
	fixtures.CreateDistrict(ctx, sofala.ID, "Beira")

	router := geography.Routes(geography.NewHandler(db, zap.NewNop()))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusOK)
	var provinces struct {
		Provinces []struct{ Name string } `json:"provinces"`
	}
	rec.DecodeJSON(t, &provinces)
	if len(provinces.Provinces) != 2 || provinces.Provinces[0].Name != "Gaza" {
		t.Errorf("provinces = %+v, want Gaza first", provinces.Provinces)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"+gaza.ID.Hex()+"/districts"))
	rec.AssertStatus(t, http.StatusOK)
	var districts struct {
		Districts []struct{ Name string } `json:"districts"`
	}
	rec.DecodeJSON(t, &districts)
	if len(districts.Districts) != 2 || districts.Districts[0].Name != "Bilene" {
		t.Errorf("districts = %+v, want [Bilene Xai-Xai]", districts.Districts)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"+primitive.NewObjectID().Hex()+"/districts"))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/bad/districts"))
	rec.AssertStatus(t, http.StatusBadRequest)
}
