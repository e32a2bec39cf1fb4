// internal/app/features/candidates/handler.go
package candidates

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/events"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// applicant is the history actor for public applications.
var applicant = historystore.Actor{Name: "applicant"}

type Handler struct {
	Candidates *candidatestore.Store
	Vacancies  *vacancystore.Store
	Geo        *geographystore.Store
	History    *historystore.Store
	Policy     candidatepolicy.Resolver
	Events     events.Publisher
	Log        *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, policy candidatepolicy.Resolver, publisher events.Publisher, logger *zap.Logger) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Handler{
		Candidates: candidatestore.New(db, logger),
		Vacancies:  vacancystore.New(db, logger),
		Geo:        geographystore.New(db),
		History:    historystore.New(db),
		Policy:     policy,
		Events:     publisher,
		Log:        logger,
		now:        time.Now,
	}
}

// principal returns the signed-in staff principal or writes 401.
func principal(w http.ResponseWriter, r *http.Request) (candidatepolicy.Principal, bool) {
	p, ok := authz.Principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
	}
	return p, ok
}

// load fetches the candidate named by the {id} URL parameter and checks that
// p may see it. A response has been written when ok is false.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, p candidatepolicy.Principal) (models.Candidate, bool) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid candidate id")
		return models.Candidate{}, false
	}
	c, err := h.Candidates.GetByID(ctx, id)
	if errors.Is(err, candidatestore.ErrNotFound) {
		httpjson.NotFound(w, "candidate not found")
		return models.Candidate{}, false
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "get candidate", err, zap.String("candidate_id", id.Hex()))
		return models.Candidate{}, false
	}
	if !h.Policy.CanView(p, c) {
		httpjson.Forbidden(w, "you do not have access to this candidate")
		return models.Candidate{}, false
	}
	return c, true
}

// loadManaged is load plus the canManage check.
func (h *Handler) loadManaged(ctx context.Context, w http.ResponseWriter, r *http.Request, p candidatepolicy.Principal) (models.Candidate, bool) {
	c, ok := h.load(ctx, w, r, p)
	if !ok {
		return c, false
	}
	if !h.Policy.CanManage(p, c) {
		httpjson.Forbidden(w, "you cannot manage this candidate")
		return models.Candidate{}, false
	}
	return c, true
}

// writeInputError maps validation and uniqueness errors from the stores. It
// reports whether a response was written.
func (h *Handler) writeInputError(w http.ResponseWriter, err error, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, candidatestore.ErrDuplicateNationalID):
		httpjson.Conflict(w, err.Error())
	case errors.Is(err, candidatestore.ErrNameRequired),
		errors.Is(err, candidatestore.ErrNationalIDRequired),
		errors.Is(err, candidatestore.ErrPhoneRequired),
		errors.Is(err, candidatestore.ErrInvalidGender),
		errors.Is(err, candidatestore.ErrInvalidStatus),
		errors.Is(err, geographystore.ErrProvinceNotFound),
		errors.Is(err, geographystore.ErrDistrictNotFound),
		errors.Is(err, geographystore.ErrInconsistentGeography):
		httpjson.BadRequest(w, err.Error())
	case errors.Is(err, candidatestore.ErrNotFound):
		httpjson.NotFound(w, "candidate not found")
	case errors.Is(err, candidatestore.ErrInvalidTransition):
		httpjson.Conflict(w, err.Error())
	default:
		httpjson.ServerError(w, h.Log, op, err)
	}
	return true
}
