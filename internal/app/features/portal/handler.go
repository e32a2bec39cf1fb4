// internal/app/features/portal/handler.go
package portal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/ratelimit"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the applicant portal. Candidates sign in with their national
// ID and the phone number they applied with.
type Handler struct {
	Candidates *candidatestore.Store
	Vacancies  *vacancystore.Store
	SessionMgr *auth.SessionManager
	Limiter    ratelimit.Allower
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter ratelimit.Allower, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Candidates: candidatestore.New(db, logger),
		Vacancies:  vacancystore.New(db, logger),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
}

// statusView is what an applicant sees about their own application.
type statusView struct {
	FullName     string                   `json:"full_name"`
	NationalID   string                   `json:"national_id"`
	Status       models.CandidateStatus   `json:"status"`
	StatusLabel  string                   `json:"status_label"`
	Checklist    models.DocumentChecklist `json:"checklist"`
	VacancyTitle string                   `json:"vacancy_title,omitempty"`
	InterviewAt  *time.Time               `json:"interview_at,omitempty"`
	AppliedAt    time.Time                `json:"applied_at"`
}

func (h *Handler) view(ctx context.Context, c models.Candidate) (statusView, error) {
	v := statusView{
		FullName:    c.FullName,
		NationalID:  c.NationalID,
		Status:      c.Status,
		StatusLabel: c.Status.Label(),
		Checklist:   c.Checklist,
		InterviewAt: c.InterviewAt,
		AppliedAt:   c.CreatedAt,
	}
	if c.VacancyID != nil {
		vac, err := h.Vacancies.Get(ctx, *c.VacancyID)
		if err != nil && !errors.Is(err, vacancystore.ErrNotFound) {
			return v, err
		}
		v.VacancyTitle = vac.Title
	}
	return v, nil
}

// HandleLogin handles POST /portal/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	nid := strings.TrimSpace(req.NationalID)
	if nid == "" || strings.TrimSpace(req.Phone) == "" {
		httpjson.BadRequest(w, "national_id and phone are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	limitKey := "portal:" + ratelimit.ClientIP(r)
	if h.Limiter != nil && !h.Limiter.Allow(ctx, limitKey) {
		httpjson.Error(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	c, err := h.Candidates.GetByNationalIDAndPhone(ctx, nid, req.Phone)
	if errors.Is(err, candidatestore.ErrNotFound) {
		h.AuditLog.CandidateLogin(ctx, r, nil, nid, false)
		httpjson.Error(w, http.StatusUnauthorized, "national ID and phone do not match an application")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "portal lookup", err)
		return
	}
	if err := h.SessionMgr.SignInCandidate(w, r, c.ID); err != nil {
		httpjson.ServerError(w, h.Log, "portal sign in", err)
		return
	}
	if h.Limiter != nil {
		if err := h.Limiter.Reset(ctx, limitKey); err != nil {
			h.Log.Warn("reset portal rate limit", zap.String("key", limitKey), zap.Error(err))
		}
	}
	h.AuditLog.CandidateLogin(ctx, r, &c.ID, nid, true)

	out, err := h.view(ctx, c)
	if err != nil {
		httpjson.ServerError(w, h.Log, "portal view", err)
		return
	}
	httpjson.OK(w, out)
}

// ServeStatus handles GET /portal/status for the signed-in candidate.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.SessionMgr.CandidateID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in to the portal first")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Candidates.GetByID(ctx, id)
	if errors.Is(err, candidatestore.ErrNotFound) {
		// application removed since sign-in
		_ = h.SessionMgr.SignOutCandidate(w, r)
		httpjson.Error(w, http.StatusUnauthorized, "sign in to the portal first")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "portal status", err)
		return
	}
	out, err := h.view(ctx, c)
	if err != nil {
		httpjson.ServerError(w, h.Log, "portal view", err)
		return
	}
	httpjson.OK(w, out)
}

// HandleLogout handles POST /portal/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOutCandidate(w, r); err != nil {
		h.Log.Error("portal logout: save session", zap.Error(err))
	}
	httpjson.OK(w, map[string]string{"status": "signed out"})
}
