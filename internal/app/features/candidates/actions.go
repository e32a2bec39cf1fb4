// internal/app/features/candidates/actions.go
package candidates

import (
	"context"
	"fmt"
	"net/http"
	"time"

	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/events"
	"github.com/dalemusser/stratarecruit/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/phone"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type transitionRequest struct {
	// InterviewAt is RFC 3339 and only read by the schedule action.
	InterviewAt string `json:"interview_at"`
}

type transitionResponse struct {
	Candidate    models.Candidate `json:"candidate"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	Phone        string           `json:"phone,omitempty"`
	WhatsAppLink string           `json:"whatsapp_link,omitempty"`
}

// HandleTransition applies a workflow action (approve, reject, schedule,
// pass, fail, hire).
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	action, ok := candidatestore.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		httpjson.NotFound(w, "unknown action")
		return
	}

	var opts candidatestore.TransitionOptions
	if r.ContentLength != 0 {
		var req transitionRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.BadRequest(w, err.Error())
			return
		}
		if req.InterviewAt != "" {
			at, err := time.Parse(time.RFC3339, req.InterviewAt)
			if err != nil {
				httpjson.BadRequest(w, "interview_at must be RFC 3339")
				return
			}
			opts.InterviewAt = &at
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadManaged(ctx, w, r, p)
	if !ok {
		return
	}
	from, updated, err := h.Candidates.Transition(ctx, c.ID, action, opts, authz.Actor(r))
	if h.writeInputError(w, err, "candidate transition") {
		return
	}

	if from != updated.Status {
		ev := events.NewStatusChanged(updated.ID, string(from), string(updated.Status), authz.ActorID(r))
		events.PublishBestEffort(ctx, h.Events, h.Log, ev)
		h.Log.Info("candidate status changed",
			zap.String("candidate_id", updated.ID.Hex()),
			zap.String("from", string(from)),
			zap.String("to", string(updated.Status)))
	}

	out := transitionResponse{Candidate: updated, From: string(from), To: string(updated.Status)}
	if action == candidatestore.ActionSchedule {
		out.Phone = phone.Format(updated.Phone)
		out.WhatsAppLink = phone.WhatsAppLink(updated.Phone, interviewMessage(updated))
	}
	httpjson.OK(w, out)
}

func interviewMessage(c models.Candidate) string {
	if c.InterviewAt == nil {
		return fmt.Sprintf("Hello %s, your documents were approved and you are invited to an interview.", c.FullName)
	}
	return fmt.Sprintf("Hello %s, your interview is scheduled for %s.", c.FullName, c.InterviewAt.Format("02/01/2006 15:04"))
}

// HandleChecklist replaces the seven document flags.
func (h *Handler) HandleChecklist(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var checklist models.DocumentChecklist
	if err := httpjson.Decode(r, &checklist); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadManaged(ctx, w, r, p)
	if !ok {
		return
	}
	updated, err := h.Candidates.UpdateChecklist(ctx, c.ID, checklist, authz.Actor(r))
	if h.writeInputError(w, err, "update checklist") {
		return
	}
	httpjson.OK(w, updated)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// HandleNotes replaces the staff notes after sanitizing them.
func (h *Handler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadManaged(ctx, w, r, p)
	if !ok {
		return
	}
	updated, err := h.Candidates.UpdateNotes(ctx, c.ID, htmlsanitize.Sanitize(req.Notes), authz.Actor(r))
	if h.writeInputError(w, err, "update notes") {
		return
	}
	httpjson.OK(w, updated)
}
