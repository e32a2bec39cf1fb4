package candidates_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/stratarecruit/internal/app/features/candidates"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/app/system/events"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/stratarecruit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, ev events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type env struct {
	router   http.Handler
	fixtures *testutil.Fixtures
	pub      *recordingPublisher

	gaza, sofala   models.Province
	xaiXai, bilene models.District
	beira          models.District
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := &env{fixtures: testutil.NewFixtures(t, db), pub: &recordingPublisher{}}
	e.gaza = e.fixtures.CreateProvince(ctx, "Gaza")
	e.sofala = e.fixtures.CreateProvince(ctx, "Sofala")
	e.xaiXai = e.fixtures.CreateDistrict(ctx, e.gaza.ID, "Xai-Xai")
	e.bilene = e.fixtures.CreateDistrict(ctx, e.gaza.ID, "Bilene")
	e.beira = e.fixtures.CreateDistrict(ctx, e.sofala.ID, "Beira")

	h := candidates.NewHandler(db, candidatepolicy.New(), e.pub, zap.NewNop())
	e.router = candidates.Routes(h, testutil.SessionManager(t))
	return e
}

func (e *env) candidateIn(t *testing.T, d models.District, status models.CandidateStatus) models.Candidate {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	return e.fixtures.CreateCandidate(ctx, testutil.CandidateOpts{
		ProvinceID: &d.ProvinceID,
		DistrictID: &d.ID,
		Status:     status,
	})
}

func (e *env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func application(nid string, vacancyID, provinceID, districtID primitive.ObjectID) map[string]any {
	return map[string]any{
		"full_name":   "Maria Cossa",
		"national_id": nid,
		"gender":      "F",
		"phone":       "84 123 4567",
		"vacancy_id":  vacancyID.Hex(),
		"province_id": provinceID.Hex(),
		"district_id": districtID.Hex(),
	}
}

func TestApply(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	v := e.fixtures.CreateVacancy(ctx, "Brigadista")

	body := application("110100000001A", v.ID, e.gaza.ID, e.xaiXai.ID)
	body["checklist"] = map[string]bool{"id_document": true}
	rec := e.do(testutil.NewJSONRequest("POST", "/apply", body))
	rec.AssertStatus(t, http.StatusCreated)
	var c models.Candidate
	rec.DecodeJSON(t, &c)
	if c.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING", c.Status)
	}
	if c.Phone != "84 123 4567" {
		t.Errorf("phone = %q, want it stored as entered", c.Phone)
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/apply", application("110100000001a", v.ID, e.gaza.ID, e.xaiXai.ID)))
	rec.AssertStatus(t, http.StatusConflict)

	rec = e.do(testutil.NewJSONRequest("POST", "/apply", application("110100000002B", v.ID, e.gaza.ID, e.beira.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)

	if _, err := e.fixtures.DB().Collection("vacancies").UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$set": bson.M{"active": false}}); err != nil {
		t.Fatalf("close vacancy: %v", err)
	}
	rec = e.do(testutil.NewJSONRequest("POST", "/apply", application("110100000003C", v.ID, e.gaza.ID, e.xaiXai.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "not open")
}

func TestRegister(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	v := e.fixtures.CreateVacancy(ctx, "Supervisor")

	district := testutil.DistrictUser(e.gaza.ID, e.xaiXai.ID)
	body := application("220100000001A", v.ID, e.gaza.ID, e.xaiXai.ID)
	body["checklist"] = map[string]bool{"id_document": true, "cv": true}
	rec := e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), district))
	rec.AssertStatus(t, http.StatusCreated)
	var c models.Candidate
	rec.DecodeJSON(t, &c)
	if c.Status != models.StatusDocsApproved || !c.Checklist.CV {
		t.Errorf("registered candidate = %+v, want DOCS_APPROVED with CV", c)
	}

	body = application("220100000002B", v.ID, e.gaza.ID, e.xaiXai.ID)
	rec = e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), district))
	rec.AssertStatus(t, http.StatusCreated)
	rec.DecodeJSON(t, &c)
	if c.Status != models.StatusPending {
		t.Errorf("status without ID document = %s, want PENDING", c.Status)
	}

	tests := []struct {
		name string
		user testutil.TestUser
		body map[string]any
	}{
		{"other district", district, application("220100000003C", v.ID, e.gaza.ID, e.bilene.ID)},
		{"national oversees only", testutil.NationalUser(), application("220100000004D", v.ID, e.gaza.ID, e.xaiXai.ID)},
		{"superuser", testutil.Superuser(), application("220100000005E", v.ID, e.gaza.ID, e.xaiXai.ID)},
		{"other province", testutil.ProvincialUser(e.sofala.ID), application("220100000006F", v.ID, e.gaza.ID, e.xaiXai.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.WithUser(testutil.NewJSONRequest("POST", "/", tt.body), tt.user))
			rec.AssertStatus(t, http.StatusForbidden)
		})
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/", application("220100000007G", v.ID, e.gaza.ID, e.xaiXai.ID)))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

type listBody struct {
	Candidates []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"candidates"`
	Total int64 `json:"total"`
}

func TestList_ScopeAndFilters(t *testing.T) {
	e := setup(t)
	e.candidateIn(t, e.xaiXai, models.StatusPending)
	e.candidateIn(t, e.bilene, models.StatusPending)
	e.candidateIn(t, e.bilene, models.StatusHired)
	e.candidateIn(t, e.beira, models.StatusPending)

	tests := []struct {
		name  string
		user  testutil.TestUser
		query string
		want  int
	}{
		{"national default pending", testutil.NationalUser(), "", 3},
		{"national all", testutil.NationalUser(), "?status=ALL", 4},
		{"national province filter", testutil.NationalUser(), "?status=ALL&province_id=" + e.sofala.ID.Hex(), 1},
		{"provincial", testutil.ProvincialUser(e.gaza.ID), "?status=ALL", 3},
		{"provincial ignores province filter", testutil.ProvincialUser(e.gaza.ID), "?status=ALL&province_id=" + e.sofala.ID.Hex(), 3},
		{"district", testutil.DistrictUser(e.gaza.ID, e.bilene.ID), "?status=all", 2},
		{"docs approved includes later stages", testutil.Superuser(), "?status=DOCS_APPROVED", 1},
		{"no profile", testutil.NoProfileUser(), "?status=ALL", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewAuthenticatedRequest("GET", "/"+tt.query, tt.user))
			rec.AssertStatus(t, http.StatusOK)
			var body listBody
			rec.DecodeJSON(t, &body)
			if len(body.Candidates) != tt.want || body.Total != int64(tt.want) {
				t.Errorf("got %d rows (total %d), want %d", len(body.Candidates), body.Total, tt.want)
			}
		})
	}

	rec := e.do(testutil.NewAuthenticatedRequest("GET", "/?status=NOPE", testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/?gender=X", testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec = e.do(testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestDetailAndLookup(t *testing.T) {
	e := setup(t)
	c := e.candidateIn(t, e.xaiXai, models.StatusPending)

	rec := e.do(testutil.NewAuthenticatedRequest("GET", "/"+c.ID.Hex(), testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusOK)
	var detail struct {
		CanManage bool   `json:"can_manage"`
		Province  string `json:"province"`
		District  string `json:"district"`
	}
	rec.DecodeJSON(t, &detail)
	if detail.CanManage || detail.Province != "Gaza" || detail.District != "Xai-Xai" {
		t.Errorf("national detail = %+v", detail)
	}

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/"+c.ID.Hex(), testutil.DistrictUser(e.gaza.ID, e.xaiXai.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &detail)
	if !detail.CanManage {
		t.Error("district staff should manage candidates in their district")
	}

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/"+c.ID.Hex(), testutil.DistrictUser(e.gaza.ID, e.bilene.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/"+primitive.NewObjectID().Hex(), testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/lookup?national_id="+strings.ToLower(c.NationalID), testutil.ProvincialUser(e.gaza.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, c.ID.Hex())

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/lookup?national_id="+c.NationalID, testutil.ProvincialUser(e.sofala.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(testutil.NewAuthenticatedRequest("GET", "/lookup", testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestTransitions(t *testing.T) {
	e := setup(t)
	c := e.candidateIn(t, e.xaiXai, models.StatusPending)
	staff := testutil.DistrictUser(e.gaza.ID, e.xaiXai.ID)
	path := "/" + c.ID.Hex()

	rec := e.do(testutil.NewAuthenticatedRequest("POST", path+"/approve", testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/hire", staff))
	rec.AssertStatus(t, http.StatusConflict)

	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/promote", staff))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/approve", staff))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.do(testutil.WithUser(testutil.NewJSONRequest("POST", path+"/schedule", map[string]string{
		"interview_at": "2026-11-02T09:00:00Z",
	}), staff))
	rec.AssertStatus(t, http.StatusOK)
	var scheduled struct {
		Candidate    models.Candidate `json:"candidate"`
		From         string           `json:"from"`
		To           string           `json:"to"`
		Phone        string           `json:"phone"`
		WhatsAppLink string           `json:"whatsapp_link"`
	}
	rec.DecodeJSON(t, &scheduled)
	if scheduled.From != "DOCS_APPROVED" || scheduled.To != "INTERVIEW_SCHEDULED" {
		t.Errorf("transition %s -> %s", scheduled.From, scheduled.To)
	}
	if scheduled.Candidate.InterviewAt == nil {
		t.Error("interview time not recorded")
	}
	if scheduled.Phone != "+258841234567" || !strings.HasPrefix(scheduled.WhatsAppLink, "https://wa.me/258841234567") {
		t.Errorf("phone = %q, link = %q", scheduled.Phone, scheduled.WhatsAppLink)
	}

	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/pass", staff))
	rec.AssertStatus(t, http.StatusOK)
	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/hire", staff))
	rec.AssertStatus(t, http.StatusOK)

	// re-approving after hire is allowed; approving twice is a no-op
	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/approve", staff))
	rec.AssertStatus(t, http.StatusOK)
	rec = e.do(testutil.NewAuthenticatedRequest("POST", path+"/approve", staff))
	rec.AssertStatus(t, http.StatusOK)

	e.pub.mu.Lock()
	defer e.pub.mu.Unlock()
	wantTo := []string{"DOCS_APPROVED", "INTERVIEW_SCHEDULED", "INTERVIEW_PASSED", "HIRED", "DOCS_APPROVED"}
	if len(e.pub.events) != len(wantTo) {
		t.Fatalf("published %d events, want %d", len(e.pub.events), len(wantTo))
	}
	for i, ev := range e.pub.events {
		if ev.To != wantTo[i] || ev.CandidateID != c.ID.Hex() || ev.ActorID != staff.ID {
			t.Errorf("event %d = %+v, want to=%s", i, ev, wantTo[i])
		}
	}
}

func TestChecklistNotesAndHistory(t *testing.T) {
	e := setup(t)
	c := e.candidateIn(t, e.bilene, models.StatusPending)
	staff := testutil.ProvincialUser(e.gaza.ID)
	path := "/" + c.ID.Hex()

	rec := e.do(testutil.WithUser(testutil.NewJSONRequest("PUT", path+"/checklist", models.DocumentChecklist{IDDocument: true, TaxNumber: true}), staff))
	rec.AssertStatus(t, http.StatusOK)
	var updated models.Candidate
	rec.DecodeJSON(t, &updated)
	if !updated.Checklist.IDDocument || !updated.Checklist.TaxNumber || updated.Checklist.CV {
		t.Errorf("checklist = %+v", updated.Checklist)
	}
	if updated.Status != models.StatusPending {
		t.Errorf("checklist update changed status to %s", updated.Status)
	}

	rec = e.do(testutil.WithUser(testutil.NewJSONRequest("PUT", path+"/notes", map[string]string{
		"notes": `<p>Called twice</p><script>alert(1)</script>`,
	}), staff))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &updated)
	if strings.Contains(updated.Notes, "script") || !strings.Contains(updated.Notes, "Called twice") {
		t.Errorf("notes = %q", updated.Notes)
	}

	rec = e.do(testutil.WithUser(testutil.NewJSONRequest("PUT", path+"/notes", map[string]string{"notes": "x"}), testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(testutil.NewAuthenticatedRequest("GET", path+"/history", testutil.NationalUser()))
	rec.AssertStatus(t, http.StatusOK)
	var history struct {
		Entries []models.HistoryEntry `json:"entries"`
	}
	rec.DecodeJSON(t, &history)
	if len(history.Entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history.Entries))
	}
	if history.Entries[0].ActorName != staff.Name {
		t.Errorf("actor = %q, want %q", history.Entries[0].ActorName, staff.Name)
	}
}
