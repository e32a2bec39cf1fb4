// Package stats builds the dashboard and report figures for one staff user.
//
// Every figure is computed over the candidates the user can see, as decided by
// candidatepolicy. Nothing is cached: each call reloads the visible set so the
// counts always reflect the database at call time.
package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRecentLimit is used by RecentPending when limit <= 0.
const DefaultRecentLimit = 5

// CandidateSource loads the candidates inside a scope.
type CandidateSource interface {
	ListVisible(ctx context.Context, scope candidatepolicy.Scope) ([]models.Candidate, error)
}

// VacancyLookup resolves vacancy titles.
type VacancyLookup interface {
	TitlesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// GeoLookup lists the geographic hierarchy.
type GeoLookup interface {
	ListProvinces(ctx context.Context) ([]models.Province, error)
	ListAllDistricts(ctx context.Context) ([]models.District, error)
}

// Sources groups the read dependencies of an Aggregator.
type Sources struct {
	Candidates CandidateSource
	Vacancies  VacancyLookup
	Geography  GeoLookup
}

// Aggregator computes statistics for a single principal.
type Aggregator struct {
	principal candidatepolicy.Principal
	resolver  candidatepolicy.Resolver
	src       Sources
}

// New returns an Aggregator scoped to p.
func New(p candidatepolicy.Principal, r candidatepolicy.Resolver, src Sources) *Aggregator {
	return &Aggregator{principal: p, resolver: r, src: src}
}

// LabelCount is one bar of a breakdown chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// General holds the headline counts.
type General struct {
	Total        int          `json:"total"`
	PendingCount int          `json:"pending_count"`
	ByVacancy    []LabelCount `json:"by_vacancy"`
	ByStatus     []LabelCount `json:"by_status"`
}

// Admission holds admitted counts split by gender.
type Admission struct {
	TotalAdmitted  int `json:"total_admitted"`
	AdmittedMale   int `json:"admitted_male"`
	AdmittedFemale int `json:"admitted_female"`
}

// GenderSplit counts male and female candidates.
type GenderSplit struct {
	Male   int `json:"m"`
	Female int `json:"f"`
}

// DistrictCount is the nested district line inside a province.
type DistrictCount struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Admitted int                `json:"admitted"`
	Total    int                `json:"total"`
}

// ProvinceDetail is one province row of the national view.
type ProvinceDetail struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Latitude       *float64           `json:"lat"`
	Longitude      *float64           `json:"lon"`
	Total          int                `json:"total"`
	AdmittedTotal  int                `json:"admitted_total"`
	NotAdmitted    int                `json:"not_admitted_total"`
	Gender         GenderSplit        `json:"gender_general"`
	GenderAdmitted GenderSplit        `json:"gender_admitted"`
	Districts      []DistrictCount    `json:"districts_stats"`
}

// DistrictDetail is one district row of the provincial view.
type DistrictDetail struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Total          int                `json:"total"`
	AdmittedTotal  int                `json:"admitted_total"`
	NotAdmitted    int                `json:"not_admitted_total"`
	Gender         GenderSplit        `json:"gender_general"`
	GenderAdmitted GenderSplit        `json:"gender_admitted"`
}

// Geographic holds the sections requested from GeographicDistribution.
// A nil slice means the section was not requested.
type Geographic struct {
	Provinces []ProvinceDetail `json:"province_details"`
	Districts []DistrictDetail `json:"district_details"`
}

func (a *Aggregator) visible(ctx context.Context) ([]models.Candidate, error) {
	scope := a.resolver.Scope(a.principal)
	if _, denied := scope.(candidatepolicy.Denied); denied {
		return nil, nil
	}
	list, err := a.src.Candidates.ListVisible(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load visible candidates: %w", err)
	}
	return list, nil
}

// Visible returns the principal's visible candidates.
func (a *Aggregator) Visible(ctx context.Context) ([]models.Candidate, error) {
	return a.visible(ctx)
}

// GeneralStatistics returns totals and the vacancy and status breakdowns.
func (a *Aggregator) GeneralStatistics(ctx context.Context) (General, error) {
	list, err := a.visible(ctx)
	if err != nil {
		return General{}, err
	}

	out := General{Total: len(list), ByVacancy: []LabelCount{}, ByStatus: []LabelCount{}}

	byVacancy := map[primitive.ObjectID]int{}
	byStatus := map[models.CandidateStatus]int{}
	for _, c := range list {
		if c.Status == models.StatusPending {
			out.PendingCount++
		}
		byStatus[c.Status]++
		if c.VacancyID != nil {
			byVacancy[*c.VacancyID]++
		}
	}

	if len(byVacancy) > 0 {
		ids := make([]primitive.ObjectID, 0, len(byVacancy))
		for id := range byVacancy {
			ids = append(ids, id)
		}
		titles, err := a.src.Vacancies.TitlesByID(ctx, ids)
		if err != nil {
			return General{}, fmt.Errorf("load vacancy titles: %w", err)
		}
		for id, n := range byVacancy {
			label, ok := titles[id]
			if !ok {
				label = id.Hex()
			}
			out.ByVacancy = append(out.ByVacancy, LabelCount{Label: label, Count: n})
		}
		sort.Slice(out.ByVacancy, func(i, j int) bool {
			if out.ByVacancy[i].Count != out.ByVacancy[j].Count {
				return out.ByVacancy[i].Count > out.ByVacancy[j].Count
			}
			return out.ByVacancy[i].Label < out.ByVacancy[j].Label
		})
	}

	// known statuses in lifecycle order, then anything unrecognized
	for _, s := range models.AllStatuses() {
		if n, ok := byStatus[s]; ok {
			out.ByStatus = append(out.ByStatus, LabelCount{Label: s.Label(), Count: n})
			delete(byStatus, s)
		}
	}
	var unknown []LabelCount
	for s, n := range byStatus {
		unknown = append(unknown, LabelCount{Label: s.Label(), Count: n})
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].Label < unknown[j].Label })
	out.ByStatus = append(out.ByStatus, unknown...)

	return out, nil
}

// AdmissionDetails counts admitted candidates by gender.
func (a *Aggregator) AdmissionDetails(ctx context.Context) (Admission, error) {
	list, err := a.visible(ctx)
	if err != nil {
		return Admission{}, err
	}

	var out Admission
	for _, c := range list {
		if !c.Status.Admitted() {
			continue
		}
		out.TotalAdmitted++
		switch c.Gender {
		case models.GenderMale:
			out.AdmittedMale++
		case models.GenderFemale:
			out.AdmittedFemale++
		}
	}
	return out, nil
}

type tally struct {
	total, admitted int
	gender, genAdm  GenderSplit
}

func (t *tally) add(c models.Candidate) {
	t.total++
	adm := c.Status.Admitted()
	if adm {
		t.admitted++
	}
	switch c.Gender {
	case models.GenderMale:
		t.gender.Male++
		if adm {
			t.genAdm.Male++
		}
	case models.GenderFemale:
		t.gender.Female++
		if adm {
			t.genAdm.Female++
		}
	}
}

// GeographicDistribution builds the province and district rollups.
//
// isNational requests the per-province section. isProvincial requests the
// per-district section for profile's province and is ignored when the profile
// has no province. The caller decides the flags; they are not checked against
// the principal.
func (a *Aggregator) GeographicDistribution(ctx context.Context, isNational, isProvincial bool, profile *models.AccessProfile) (Geographic, error) {
	var out Geographic
	wantDistricts := isProvincial && profile != nil && profile.ProvinceID != nil
	if !isNational && !wantDistricts {
		return out, nil
	}

	list, err := a.visible(ctx)
	if err != nil {
		return Geographic{}, err
	}
	districts, err := a.src.Geography.ListAllDistricts(ctx)
	if err != nil {
		return Geographic{}, fmt.Errorf("load districts: %w", err)
	}

	districtByID := make(map[primitive.ObjectID]models.District, len(districts))
	for _, d := range districts {
		districtByID[d.ID] = d
	}

	byProvince := map[primitive.ObjectID]*tally{}
	byDistrict := map[primitive.ObjectID]*tally{}
	for _, c := range list {
		if c.ProvinceID != nil {
			t := byProvince[*c.ProvinceID]
			if t == nil {
				t = &tally{}
				byProvince[*c.ProvinceID] = t
			}
			t.add(c)
		}
		if c.DistrictID != nil {
			t := byDistrict[*c.DistrictID]
			if t == nil {
				t = &tally{}
				byDistrict[*c.DistrictID] = t
			}
			t.add(c)
		}
	}

	if isNational {
		provinces, err := a.src.Geography.ListProvinces(ctx)
		if err != nil {
			return Geographic{}, fmt.Errorf("load provinces: %w", err)
		}

		nested := map[primitive.ObjectID][]DistrictCount{}
		for id, t := range byDistrict {
			d, ok := districtByID[id]
			if !ok {
				continue
			}
			nested[d.ProvinceID] = append(nested[d.ProvinceID], DistrictCount{
				ID: d.ID, Name: d.Name, Admitted: t.admitted, Total: t.total,
			})
		}

		out.Provinces = []ProvinceDetail{}
		for _, p := range provinces {
			t, ok := byProvince[p.ID]
			if !ok || t.total == 0 {
				continue
			}
			ds := nested[p.ID]
			if ds == nil {
				ds = []DistrictCount{}
			}
			sort.Slice(ds, func(i, j int) bool {
				if ds[i].Admitted != ds[j].Admitted {
					return ds[i].Admitted > ds[j].Admitted
				}
				return ds[i].Name < ds[j].Name
			})
			out.Provinces = append(out.Provinces, ProvinceDetail{
				ID:             p.ID,
				Name:           p.Name,
				Latitude:       p.Latitude,
				Longitude:      p.Longitude,
				Total:          t.total,
				AdmittedTotal:  t.admitted,
				NotAdmitted:    t.total - t.admitted,
				Gender:         t.gender,
				GenderAdmitted: t.genAdm,
				Districts:      ds,
			})
		}
		sort.SliceStable(out.Provinces, func(i, j int) bool {
			if out.Provinces[i].Total != out.Provinces[j].Total {
				return out.Provinces[i].Total > out.Provinces[j].Total
			}
			return out.Provinces[i].Name < out.Provinces[j].Name
		})
	}

	if wantDistricts {
		out.Districts = []DistrictDetail{}
		for id, t := range byDistrict {
			d, ok := districtByID[id]
			if !ok || d.ProvinceID != *profile.ProvinceID || t.total == 0 {
				continue
			}
			out.Districts = append(out.Districts, DistrictDetail{
				ID:             d.ID,
				Name:           d.Name,
				Total:          t.total,
				AdmittedTotal:  t.admitted,
				NotAdmitted:    t.total - t.admitted,
				Gender:         t.gender,
				GenderAdmitted: t.genAdm,
			})
		}
		sort.Slice(out.Districts, func(i, j int) bool {
			if out.Districts[i].Total != out.Districts[j].Total {
				return out.Districts[i].Total > out.Districts[j].Total
			}
			return out.Districts[i].Name < out.Districts[j].Name
		})
	}

	return out, nil
}

// RecentPending returns up to limit pending candidates, newest first.
func (a *Aggregator) RecentPending(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	list, err := a.visible(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]models.Candidate, 0, len(list))
	for _, c := range list {
		if c.Status == models.StatusPending {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		}
		return pending[i].ID.Hex() > pending[j].ID.Hex()
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
