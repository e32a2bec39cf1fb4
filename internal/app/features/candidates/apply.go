// internal/app/features/candidates/apply.go
package candidates

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.uber.org/zap"
)

type applicationRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	VacancyID  string `json:"vacancy_id"`
	ProvinceID string `json:"province_id"`
	DistrictID string `json:"district_id"`

	// Checklist is only honored for staff registration.
	Checklist *models.DocumentChecklist `json:"checklist,omitempty"`
}

func (req applicationRequest) input() (candidatestore.Input, error) {
	vacancyID, err := params.OptionalID(req.VacancyID)
	if err != nil {
		return candidatestore.Input{}, errors.New("invalid vacancy_id")
	}
	provinceID, err := params.OptionalID(req.ProvinceID)
	if err != nil {
		return candidatestore.Input{}, errors.New("invalid province_id")
	}
	districtID, err := params.OptionalID(req.DistrictID)
	if err != nil {
		return candidatestore.Input{}, errors.New("invalid district_id")
	}
	return candidatestore.Input{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Gender:     models.Gender(req.Gender),
		Phone:      req.Phone,
		Address:    req.Address,
		VacancyID:  vacancyID,
		ProvinceID: provinceID,
		DistrictID: districtID,
	}, nil
}

// checkVacancy verifies that a chosen vacancy exists and, for public
// applications, is open today.
func (h *Handler) checkVacancy(ctx context.Context, w http.ResponseWriter, in candidatestore.Input, mustBeOpen bool) bool {
	if in.VacancyID == nil {
		return true
	}
	v, err := h.Vacancies.Get(ctx, *in.VacancyID)
	if errors.Is(err, vacancystore.ErrNotFound) {
		httpjson.BadRequest(w, "vacancy not found")
		return false
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "get vacancy", err, zap.String("vacancy_id", in.VacancyID.Hex()))
		return false
	}
	if mustBeOpen && !v.OpenOn(h.now()) {
		httpjson.BadRequest(w, "vacancy is not open for applications")
		return false
	}
	return true
}

// HandleApply handles the public application form. The status is always
// pending and any checklist in the body is ignored.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in.Status = models.StatusPending

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.checkVacancy(ctx, w, in, true) {
		return
	}
	if h.writeInputError(w, h.Geo.ValidatePair(ctx, in.ProvinceID, in.DistrictID), "validate geography") {
		return
	}
	c, err := h.Candidates.Create(ctx, in, applicant)
	if h.writeInputError(w, err, "create candidate") {
		return
	}
	h.Log.Info("application received", zap.String("candidate_id", c.ID.Hex()))
	httpjson.Created(w, c)
}

// HandleRegister handles manual registration by staff who manage the
// candidate's area. The status follows the ID document flag.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req applicationRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	if req.Checklist != nil {
		in.Checklist = *req.Checklist
	}
	in.Status = candidatestore.InitialStatus(in.Checklist)

	target := models.Candidate{ProvinceID: in.ProvinceID, DistrictID: in.DistrictID}
	if !h.Policy.CanManage(p, target) {
		httpjson.Forbidden(w, "you cannot register candidates in this area")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.checkVacancy(ctx, w, in, false) {
		return
	}
	if h.writeInputError(w, h.Geo.ValidatePair(ctx, in.ProvinceID, in.DistrictID), "validate geography") {
		return
	}
	c, err := h.Candidates.Create(ctx, in, authz.Actor(r))
	if h.writeInputError(w, err, "register candidate") {
		return
	}
	httpjson.Created(w, c)
}
