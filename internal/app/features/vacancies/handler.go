// internal/app/features/vacancies/handler.go
package vacancies

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DateLayout is the wire format of start_date and end_date.
const DateLayout = "2006-01-02"

type Handler struct {
	Vacancies *vacancystore.Store
	Audit     *auditlog.Logger
	Log       *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Vacancies: vacancystore.New(db, logger),
		Audit:     auditLog,
		Log:       logger,
		now:       time.Now,
	}
}

type vacancyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Active      *bool  `json:"active"`
}

func (req vacancyRequest) input() (vacancystore.Input, error) {
	start, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return vacancystore.Input{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(DateLayout, req.EndDate)
	if err != nil {
		return vacancystore.Input{}, errors.New("end_date must be YYYY-MM-DD")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return vacancystore.Input{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Active:      active,
	}, nil
}

type listResponse struct {
	Vacancies []models.Vacancy `json:"vacancies"`
}

// ServeOpen lists the vacancies accepting applications today. Public.
func (h *Handler) ServeOpen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	open, err := h.Vacancies.ListOpen(ctx, h.now())
	if err != nil {
		httpjson.ServerError(w, h.Log, "list open vacancies", err)
		return
	}
	httpjson.OK(w, listResponse{Vacancies: nonNil(open)})
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all, err := h.Vacancies.List(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list vacancies", err)
		return
	}
	httpjson.OK(w, listResponse{Vacancies: nonNil(all)})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid vacancy id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Vacancies.Get(ctx, id)
	if h.writeStoreError(w, err, "get vacancy") {
		return
	}
	httpjson.OK(w, v)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req vacancyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.Vacancies.Create(ctx, in, authz.Actor(r))
	if h.writeStoreError(w, err, "create vacancy") {
		return
	}
	h.Audit.Vacancy(ctx, r, audit.EventVacancyCreated, authz.ActorID(r), v.ID, v.Title)
	httpjson.Created(w, v)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid vacancy id")
		return
	}
	var req vacancyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.Vacancies.Update(ctx, id, in, authz.Actor(r))
	if h.writeStoreError(w, err, "update vacancy") {
		return
	}
	h.Audit.Vacancy(ctx, r, audit.EventVacancyUpdated, authz.ActorID(r), v.ID, v.Title)
	httpjson.OK(w, v)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid vacancy id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.Vacancies.Get(ctx, id)
	if h.writeStoreError(w, err, "get vacancy") {
		return
	}
	err = h.Vacancies.Delete(ctx, id, authz.Actor(r))
	if h.writeStoreError(w, err, "delete vacancy") {
		return
	}
	h.Audit.Vacancy(ctx, r, audit.EventVacancyDeleted, authz.ActorID(r), id, v.Title)
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps store errors to responses. It reports whether a
// response was written.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, vacancystore.ErrNotFound):
		httpjson.NotFound(w, "vacancy not found")
	case errors.Is(err, vacancystore.ErrTitleRequired), errors.Is(err, vacancystore.ErrDateRange):
		httpjson.BadRequest(w, err.Error())
	case errors.Is(err, vacancystore.ErrVacancyInUse):
		httpjson.Conflict(w, err.Error())
	default:
		httpjson.ServerError(w, h.Log, op, err)
	}
	return true
}

func nonNil(v []models.Vacancy) []models.Vacancy {
	if v == nil {
		return []models.Vacancy{}
	}
	return v
}
