// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/area"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/app/stats"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler builds the report data sets. Candidate reports cover exactly the
// candidates the user can see.
type Handler struct {
	Sources stats.Sources
	Geo     *geographystore.Store
	History *historystore.Store
	Policy  candidatepolicy.Resolver
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, policy candidatepolicy.Resolver, logger *zap.Logger) *Handler {
	geo := geographystore.New(db)
	return &Handler{
		Sources: stats.Sources{
			Candidates: candidatestore.New(db, logger),
			Vacancies:  vacancystore.New(db, logger),
			Geography:  geo,
		},
		Geo:     geo,
		History: historystore.New(db),
		Policy:  policy,
		Log:     logger,
	}
}

// ServeReport handles GET /reports/{kind}.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.Principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	kind := Kind(chi.URLParam(r, "kind"))
	title, known := titles[kind]
	if !known {
		httpjson.NotFound(w, "unknown report")
		return
	}
	if kind == KindAudit && !p.IsSuperuser {
		httpjson.Forbidden(w, "only superusers can view the audit report")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	areaLabel, err := area.Label(ctx, h.Geo, p)
	if err != nil {
		httpjson.ServerError(w, h.Log, "report area label", err)
		return
	}
	rep := Report{Kind: kind, Title: title, Area: areaLabel, GeneratedAt: time.Now().UTC()}

	switch kind {
	case KindAudit:
		rep.Rows, err = h.auditRows(ctx)
	case KindStatistics:
		var g stats.General
		g, err = stats.New(p, h.Policy, h.Sources).GeneralStatistics(ctx)
		rep.Statistics = &g
		rep.Rows = []CandidateRow{}
	default:
		rep.Rows, err = h.candidateRows(ctx, p, kind)
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "build report", err, zap.String("kind", string(kind)))
		return
	}
	httpjson.OK(w, rep)
}

func keep(kind Kind, c models.Candidate) bool {
	switch kind {
	case KindPending:
		return c.Status == models.StatusPending
	case KindRejected:
		return c.Status == models.StatusDocsRejected
	}
	return true
}

func (h *Handler) candidateRows(ctx context.Context, p candidatepolicy.Principal, kind Kind) ([]CandidateRow, error) {
	visible, err := stats.New(p, h.Policy, h.Sources).Visible(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]models.Candidate, 0, len(visible))
	var vacancyIDs []primitive.ObjectID
	for _, c := range visible {
		if !keep(kind, c) {
			continue
		}
		list = append(list, c)
		if c.VacancyID != nil {
			vacancyIDs = append(vacancyIDs, *c.VacancyID)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return text.Fold(list[i].FullName) < text.Fold(list[j].FullName)
	})

	vacancies := map[primitive.ObjectID]string{}
	if len(vacancyIDs) > 0 {
		if vacancies, err = h.Sources.Vacancies.TitlesByID(ctx, vacancyIDs); err != nil {
			return nil, err
		}
	}
	provinces, districts, err := h.geoNames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]CandidateRow, 0, len(list))
	for _, c := range list {
		row := CandidateRow{
			FullName:   c.FullName,
			NationalID: c.NationalID,
			Gender:     c.Gender.Label(),
			Phone:      c.Phone,
			Status:     c.Status.Label(),
			AppliedOn:  c.CreatedAt.Format("02/01/2006"),
		}
		if c.VacancyID != nil {
			row.Vacancy = vacancies[*c.VacancyID]
		}
		if c.ProvinceID != nil {
			row.Province = provinces[*c.ProvinceID]
		}
		if c.DistrictID != nil {
			row.District = districts[*c.DistrictID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (h *Handler) geoNames(ctx context.Context) (map[primitive.ObjectID]string, map[primitive.ObjectID]string, error) {
	ps, err := h.Geo.ListProvinces(ctx)
	if err != nil {
		return nil, nil, err
	}
	ds, err := h.Geo.ListAllDistricts(ctx)
	if err != nil {
		return nil, nil, err
	}
	provinces := make(map[primitive.ObjectID]string, len(ps))
	for _, p := range ps {
		provinces[p.ID] = p.Name
	}
	districts := make(map[primitive.ObjectID]string, len(ds))
	for _, d := range ds {
		districts[d.ID] = d.Name
	}
	return provinces, districts, nil
}

var actionLabels = map[string]string{
	models.HistoryCreated: "Created",
	models.HistoryUpdated: "Updated",
	models.HistoryDeleted: "Deleted",
}

func (h *Handler) auditRows(ctx context.Context) ([]AuditRow, error) {
	entries, err := h.History.Recent(ctx, models.HistoryKindCandidate, AuditLimit)
	if err != nil {
		return nil, err
	}
	rows := make([]AuditRow, 0, len(entries))
	for _, e := range entries {
		row := AuditRow{Timestamp: e.Timestamp, Actor: e.ActorName, Action: actionLabels[e.Action]}
		if row.Action == "" {
			row.Action = e.Action
		}
		row.Changes = make([]string, 0, len(e.Changes))
		for _, ch := range e.Changes {
			row.Changes = append(row.Changes, fmt.Sprintf("%s: %q -> %q", ch.Field, ch.OldValue, ch.NewValue))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
