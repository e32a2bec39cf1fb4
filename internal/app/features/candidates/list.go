// internal/app/features/candidates/list.go
package candidates

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/paging"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listItem struct {
	models.Candidate
	StatusLabel  string `json:"status_label"`
	VacancyTitle string `json:"vacancy_title,omitempty"`
}

type listResponse struct {
	Candidates []listItem   `json:"candidates"`
	Total      int64        `json:"total"`
	Status     string       `json:"status"`
	Range      paging.Range `json:"range"`
}

// parseFilter reads status, vacancy_id, gender and province_id from the
// query string. province_id applies only to national viewers.
func parseFilter(r *http.Request, p candidatepolicy.Principal, scope candidatepolicy.Scope) (candidatestore.ListFilter, error) {
	f := candidatestore.ListFilter{
		Scope:  scope,
		Status: strings.ToUpper(strings.TrimSpace(query.Get(r, "status"))),
	}
	vacancyID, err := params.OptionalID(query.Get(r, "vacancy_id"))
	if err != nil {
		return f, errors.New("invalid vacancy_id")
	}
	f.VacancyID = vacancyID

	if g := models.Gender(strings.ToUpper(strings.TrimSpace(query.Get(r, "gender")))); g != "" {
		if !g.Valid() {
			return f, candidatestore.ErrInvalidGender
		}
		f.Gender = g
	}

	if candidatepolicy.IsNational(p) {
		provinceID, err := params.OptionalID(query.Get(r, "province_id"))
		if err != nil {
			return f, errors.New("invalid province_id")
		}
		f.ProvinceID = provinceID
	}
	return f, nil
}

// ServeList lists the visible candidates, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r, p, h.Policy.Scope(p))
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, hasNext, err := h.Candidates.List(ctx, f, start)
	if errors.Is(err, candidatestore.ErrInvalidStatus) {
		httpjson.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "list candidates", err)
		return
	}
	total, err := h.Candidates.Count(ctx, f)
	if err != nil {
		httpjson.ServerError(w, h.Log, "count candidates", err)
		return
	}
	titles, err := h.vacancyTitles(ctx, rows)
	if err != nil {
		httpjson.ServerError(w, h.Log, "vacancy titles", err)
		return
	}

	items := make([]listItem, 0, len(rows))
	for _, c := range rows {
		it := listItem{Candidate: c, StatusLabel: c.Status.Label()}
		if c.VacancyID != nil {
			it.VacancyTitle = titles[*c.VacancyID]
		}
		items = append(items, it)
	}
	status := f.Status
	if status == "" {
		status = string(models.StatusPending)
	}
	httpjson.OK(w, listResponse{
		Candidates: items,
		Total:      total,
		Status:     status,
		Range:      paging.ComputeRange(start, len(items), hasNext),
	})
}

func (h *Handler) vacancyTitles(ctx context.Context, rows []models.Candidate) (map[primitive.ObjectID]string, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, c := range rows {
		if c.VacancyID != nil && !seen[*c.VacancyID] {
			seen[*c.VacancyID] = true
			ids = append(ids, *c.VacancyID)
		}
	}
	if len(ids) == 0 {
		return map[primitive.ObjectID]string{}, nil
	}
	return h.Vacancies.TitlesByID(ctx, ids)
}

type detailResponse struct {
	Candidate    models.Candidate `json:"candidate"`
	StatusLabel  string           `json:"status_label"`
	VacancyTitle string           `json:"vacancy_title,omitempty"`
	Province     string           `json:"province,omitempty"`
	District     string           `json:"district,omitempty"`
	CanManage    bool             `json:"can_manage"`
}

func (h *Handler) detail(ctx context.Context, p candidatepolicy.Principal, c models.Candidate) (detailResponse, error) {
	out := detailResponse{
		Candidate:   c,
		StatusLabel: c.Status.Label(),
		CanManage:   h.Policy.CanManage(p, c),
	}
	if c.VacancyID != nil {
		v, err := h.Vacancies.Get(ctx, *c.VacancyID)
		switch {
		case err == nil:
			out.VacancyTitle = v.Title
		case !errors.Is(err, vacancystore.ErrNotFound):
			return out, err
		}
	}
	prov, dist, err := h.Geo.Names(ctx, c.ProvinceID, c.DistrictID)
	if err != nil {
		return out, err
	}
	out.Province, out.District = prov, dist
	return out, nil
}

// ServeDetail shows one candidate with the viewer's canManage flag.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.load(ctx, w, r, p)
	if !ok {
		return
	}
	out, err := h.detail(ctx, p, c)
	if err != nil {
		httpjson.ServerError(w, h.Log, "candidate detail", err)
		return
	}
	httpjson.OK(w, out)
}

// ServeLookup finds a candidate by national ID, ignoring case.
func (h *Handler) ServeLookup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	nid := strings.TrimSpace(query.Get(r, "national_id"))
	if nid == "" {
		httpjson.BadRequest(w, "national_id is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Candidates.GetByNationalID(ctx, nid)
	if errors.Is(err, candidatestore.ErrNotFound) {
		httpjson.NotFound(w, "candidate not found")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "lookup candidate", err)
		return
	}
	if !h.Policy.CanView(p, c) {
		httpjson.Forbidden(w, "you do not have access to this candidate")
		return
	}
	out, err := h.detail(ctx, p, c)
	if err != nil {
		httpjson.ServerError(w, h.Log, "candidate detail", err)
		return
	}
	httpjson.OK(w, out)
}

type historyResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
}

// ServeHistory lists the candidate's change history, newest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.load(ctx, w, r, p)
	if !ok {
		return
	}
	entries, err := h.History.ByRecord(ctx, models.HistoryKindCandidate, c.ID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "candidate history", err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	httpjson.OK(w, historyResponse{Entries: entries})
}
