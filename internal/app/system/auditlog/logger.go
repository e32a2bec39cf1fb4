// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	"github.com/dalemusser/stratarecruit/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each value is "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only)
// or "off".
type Config struct {
	// Auth covers staff and portal sign-in and sign-out.
	Auth string
	// Admin covers account, profile, vacancy and notification actions.
	Admin string
}

// Logger writes audit events to the audit store and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth, audit.CategoryPortal:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	default:
		return "all"
	}
}

// Log records event according to the category's setting. A nil Logger is a
// no-op so handlers under test can omit it.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, ev audit.Event) audit.Event {
	ev.IP = ratelimit.ClientIP(r)
	ev.UserAgent = r.UserAgent()
	return ev
}

// --- Authentication Events ---

// LoginSuccess logs a successful staff login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, accountID primitive.ObjectID, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &accountID,
		Success:   true,
		Details:   map[string]string{"username": username},
	}))
}

// LoginFailed logs a failed staff login. accountID is nil when the username
// did not match any account.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, accountID *primitive.ObjectID, username, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        accountID,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_username": username},
	}))
}

// Logout logs a staff logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, accountID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &accountID,
		Success:   true,
	}))
}

// --- Portal Events ---

// CandidateLogin logs a portal sign-in attempt. nationalID is recorded so
// repeated guesses against one applicant are visible.
func (l *Logger) CandidateLogin(ctx context.Context, r *http.Request, candidateID *primitive.ObjectID, nationalID string, ok bool) {
	ev := audit.Event{
		Category:  audit.CategoryPortal,
		EventType: audit.EventCandidateLoginSuccess,
		Success:   ok,
		Details:   map[string]string{"national_id": nationalID},
	}
	if candidateID != nil {
		ev.Details["candidate_id"] = candidateID.Hex()
	}
	if !ok {
		ev.EventType = audit.EventCandidateLoginFailed
		ev.FailureReason = "national ID and phone do not match"
	}
	l.Log(ctx, fromRequest(r, ev))
}

// --- Admin Events ---

// AccountCreated logs a new staff account.
func (l *Logger) AccountCreated(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, accountID primitive.ObjectID, username, level string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAccountCreated,
		UserID:    &accountID,
		ActorID:   actorID,
		Success:   true,
		Details:   map[string]string{"username": username, "level": level},
	}))
}

// ProfileUpdated logs a change of level or geographic scope.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, accountID primitive.ObjectID, level string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventProfileUpdated,
		UserID:    &accountID,
		ActorID:   actorID,
		Success:   true,
		Details:   map[string]string{"level": level},
	}))
}

// SuperuserEnsured logs the startup bootstrap of the configured superuser.
// It has no request.
func (l *Logger) SuperuserEnsured(ctx context.Context, accountID primitive.ObjectID, username string, created bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventSuperuserEnsured,
		UserID:    &accountID,
		Success:   true,
		Details:   map[string]string{"username": username, "created": strconv.FormatBool(created)},
	})
}

// Vacancy logs a vacancy create, update or delete.
func (l *Logger) Vacancy(ctx context.Context, r *http.Request, eventType string, actorID *primitive.ObjectID, vacancyID primitive.ObjectID, title string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   actorID,
		Success:   true,
		Details:   map[string]string{"vacancy_id": vacancyID.Hex(), "title": title},
	}))
}

// NotificationsSent logs the outcome of a bulk WhatsApp send.
func (l *Logger) NotificationsSent(ctx context.Context, r *http.Request, actorID *primitive.ObjectID, batchID string, sent, failed int) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventNotificationsSent,
		ActorID:   actorID,
		Success:   failed == 0,
		Details: map[string]string{
			"batch_id": batchID,
			"sent":     strconv.Itoa(sent),
			"failed":   strconv.Itoa(failed),
		},
	}))
}
