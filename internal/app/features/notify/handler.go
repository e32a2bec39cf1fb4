// internal/app/features/notify/handler.go
package notify

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/app/system/whatsapp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxRecipients caps one bulk send.
const MaxRecipients = 500

// Sender is satisfied by *whatsapp.Sender.
type Sender interface {
	SendBulk(ctx context.Context, recipients []whatsapp.Recipient, template string) whatsapp.Result
}

type Handler struct {
	Candidates *candidatestore.Store
	Policy     candidatepolicy.Resolver
	Sender     Sender
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, policy candidatepolicy.Resolver, sender Sender, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Candidates: candidatestore.New(db, logger),
		Policy:     policy,
		Sender:     sender,
		Audit:      auditLog,
		Log:        logger,
	}
}

type notifyRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
	Message      string   `json:"message"`
}

type notifyResponse struct {
	whatsapp.Result
	Skipped int `json:"skipped"`
}

// dedupe keeps the first occurrence of each ID.
func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// HandleSend handles POST /notify. Selected candidates outside the user's
// visibility are skipped and counted, never messaged.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.Principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req notifyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		httpjson.BadRequest(w, "message is required")
		return
	}
	ids, err := params.IDs(req.CandidateIDs)
	if err != nil {
		httpjson.BadRequest(w, "invalid candidate id")
		return
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		httpjson.BadRequest(w, "select at least one candidate")
		return
	}
	if len(ids) > MaxRecipients {
		httpjson.BadRequest(w, "too many candidates selected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	found, err := h.Candidates.ListByIDs(ctx, h.Policy.Scope(p), ids)
	cancel()
	if err != nil {
		httpjson.ServerError(w, h.Log, "load notify recipients", err)
		return
	}

	recipients := make([]whatsapp.Recipient, 0, len(found))
	for _, c := range found {
		recipients = append(recipients, whatsapp.Recipient{Name: c.FullName, Phone: c.Phone})
	}

	sendCtx, sendCancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer sendCancel()
	res := h.Sender.SendBulk(sendCtx, recipients, msg)

	h.Audit.NotificationsSent(sendCtx, r, authz.ActorID(r), res.BatchID, res.Sent, res.Failed)
	httpjson.OK(w, notifyResponse{Result: res, Skipped: len(ids) - len(found)})
}
