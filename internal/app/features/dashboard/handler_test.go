package dashboard_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/features/dashboard"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/stratarecruit/internal/testutil"
	"go.uber.org/zap"
)

type body struct {
	LevelLabel   string `json:"level_label"`
	IsNational   bool   `json:"is_national"`
	IsProvincial bool   `json:"is_provincial"`
	General      struct {
		Total        int `json:"total"`
		PendingCount int `json:"pending_count"`
	} `json:"general"`
	Admission struct {
		TotalAdmitted  int `json:"total_admitted"`
		AdmittedFemale int `json:"admitted_female"`
	} `json:"admission"`
	Geography struct {
		Provinces []struct {
			Name  string `json:"name"`
			Total int    `json:"total"`
		} `json:"province_details"`
		Districts []struct {
			Name  string `json:"name"`
			Total int    `json:"total"`
		} `json:"district_details"`
	} `json:"geography"`
	RecentPending []models.Candidate `json:"recent_pending"`
}

func TestServeDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gaza := fixtures.CreateProvince(ctx, "Gaza")
	sofala := fixtures.CreateProvince(ctx, "Sofala")
	bilene := fixtures.CreateDistrict(ctx, gaza.ID, "Bilene")
	beira := fixtures.CreateDistrict(ctx, sofala.ID, "Beira")

	base := time.Now().UTC().Add(-time.Hour)
	for i, st := range []models.CandidateStatus{models.StatusPending, models.StatusPending, models.StatusPending, models.StatusHired} {
		fixtures.CreateCandidate(ctx, testutil.CandidateOpts{
			ProvinceID: &gaza.ID, DistrictID: &bilene.ID, Status: st,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	fixtures.CreateCandidate(ctx, testutil.CandidateOpts{ProvinceID: &sofala.ID, DistrictID: &beira.ID})

	router := dashboard.Routes(dashboard.NewHandler(db, candidatepolicy.New(), 2, zap.NewNop()), testutil.SessionManager(t))
	get := func(u testutil.TestUser) body {
		t.Helper()
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", u))
		rec.AssertStatus(t, http.StatusOK)
		var b body
		rec.DecodeJSON(t, &b)
		return b
	}

	t.Run("national", func(t *testing.T) {
		b := get(testutil.NationalUser())
		if b.LevelLabel != "National" || !b.IsNational || b.IsProvincial {
			t.Errorf("header = %q national=%v provincial=%v", b.LevelLabel, b.IsNational, b.IsProvincial)
		}
		if b.General.Total != 5 || b.General.PendingCount != 4 {
			t.Errorf("general = %+v", b.General)
		}
		if b.Admission.TotalAdmitted != 1 || b.Admission.AdmittedFemale != 1 {
			t.Errorf("admission = %+v", b.Admission)
		}
		if len(b.Geography.Provinces) != 2 || b.Geography.Provinces[0].Name != "Gaza" {
			t.Errorf("provinces = %+v", b.Geography.Provinces)
		}
		if len(b.RecentPending) != 2 {
			t.Errorf("recent pending = %d, want 2 (configured limit)", len(b.RecentPending))
		}
	})

	t.Run("provincial", func(t *testing.T) {
		b := get(testutil.ProvincialUser(gaza.ID))
		if b.LevelLabel != "Provincial - Gaza" || b.IsNational || !b.IsProvincial {
			t.Errorf("header = %q national=%v provincial=%v", b.LevelLabel, b.IsNational, b.IsProvincial)
		}
		if b.General.Total != 4 {
			t.Errorf("total = %d, want 4", b.General.Total)
		}
		if b.Geography.Provinces != nil {
			t.Error("provincial view should not include province details")
		}
		if len(b.Geography.Districts) != 1 || b.Geography.Districts[0].Name != "Bilene" {
			t.Errorf("districts = %+v", b.Geography.Districts)
		}
	})

	t.Run("no profile", func(t *testing.T) {
		b := get(testutil.NoProfileUser())
		if b.LevelLabel != "No profile" || b.General.Total != 0 || len(b.RecentPending) != 0 {
			t.Errorf("no profile dashboard = %+v", b)
		}
	})

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
