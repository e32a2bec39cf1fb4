// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/ratelimit"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// badCredentials is reported for both unknown usernames and wrong passwords.
const badCredentials = "invalid username or password"

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	Limiter    ratelimit.Allower
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter ratelimit.Allower, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accountstore.New(db, logger),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		httpjson.BadRequest(w, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	limitKey := "login:" + ratelimit.ClientIP(r)
	if h.Limiter != nil && !h.Limiter.Allow(ctx, limitKey) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, username, "rate limited")
		httpjson.Error(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	a, err := h.Accounts.Authenticate(ctx, username, req.Password)
	switch {
	case errors.Is(err, accountstore.ErrUnknownUsername):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, username, "unknown username")
		httpjson.Error(w, http.StatusUnauthorized, badCredentials)
		return
	case errors.Is(err, accountstore.ErrWrongPassword):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPass, &a.ID, username, "wrong password")
		httpjson.Error(w, http.StatusUnauthorized, badCredentials)
		return
	case errors.Is(err, accountstore.ErrAccountDisabled):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &a.ID, username, "account disabled")
		httpjson.Forbidden(w, "this account is disabled")
		return
	case err != nil:
		httpjson.ServerError(w, h.Log, "authenticate", err, zap.String("username", username))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, a.ID); err != nil {
		httpjson.ServerError(w, h.Log, "sign in", err, zap.String("account_id", a.ID.Hex()))
		return
	}
	if h.Limiter != nil {
		if err := h.Limiter.Reset(ctx, limitKey); err != nil {
			h.Log.Warn("reset login rate limit", zap.String("key", limitKey), zap.Error(err))
		}
	}
	h.AuditLog.LoginSuccess(ctx, r, a.ID, a.Username)
	h.Log.Info("staff signed in", zap.String("username", a.Username))

	httpjson.OK(w, loginResponse{
		ID:          a.ID.Hex(),
		Username:    a.Username,
		FullName:    a.FullName,
		IsSuperuser: a.IsSuperuser,
	})
}
