// Package auth manages the session cookie for staff users and for candidates
// signed in to the applicant portal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	accountIDKey   = "account_id"
	candidateIDKey = "candidate_id"
)

// SessionUser is the signed-in staff user, reloaded from the database on
// every request so profile changes apply immediately.
type SessionUser struct {
	ID          string
	Username    string
	Name        string
	IsSuperuser bool
	Profile     *models.AccessProfile
}

// UserLoader returns the active account with its access profile, or nil when
// the account no longer exists or is disabled.
type UserLoader func(ctx context.Context, accountID primitive.ObjectID) (*SessionUser, error)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user injected by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. Used by tests and by
// LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// SessionManager wraps the cookie store.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	loader UserLoader
	log    *zap.Logger
}

// NewSessionManager builds the cookie store. An empty key generates a random
// one, so sessions do not survive a restart; ValidateConfig forbids that in
// production.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if name == "" {
		return nil, errors.New("session name is empty")
	}

	key := []byte(sessionKey)
	switch {
	case len(key) == 0:
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("could not generate session key")
		}
		logger.Warn("session key not set; using an ephemeral random key")
	case len(key) < 32:
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetLoader sets the function used to resolve the session's account.
func (sm *SessionManager) SetLoader(l UserLoader) {
	sm.loader = l
}

func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	// A decode failure (rotated key, tampering) yields a fresh session.
	sess, _ := sm.store.Get(r, sm.name)
	return sess
}

// LoadSessionUser resolves the staff account referenced by the cookie and
// injects it into the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.loader == nil {
			next.ServeHTTP(w, r)
			return
		}
		sess := sm.session(r)
		raw, _ := sess.Values[accountIDKey].(string)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		u, err := sm.loader(r.Context(), id)
		if err != nil {
			sm.log.Error("load session user", zap.String("account_id", raw), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if u == nil {
			// account removed or disabled
			delete(sess.Values, accountIDKey)
			_ = sess.Save(r, w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, WithTestUser(r, u))
	})
}

// RequireSignedIn rejects requests without a staff user with 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser allows only superusers (401 when signed out, 403 otherwise).
func (sm *SessionManager) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if !u.IsSuperuser {
			httpjson.Forbidden(w, "superuser access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores the staff account in the session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, accountID primitive.ObjectID) error {
	sess := sm.session(r)
	sess.Values[accountIDKey] = accountID.Hex()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut clears the staff account from the session.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	delete(sess.Values, accountIDKey)
	return sess.Save(r, w)
}

// SignInCandidate stores the candidate ID for the applicant portal.
func (sm *SessionManager) SignInCandidate(w http.ResponseWriter, r *http.Request, candidateID primitive.ObjectID) error {
	sess := sm.session(r)
	sess.Values[candidateIDKey] = candidateID.Hex()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// CandidateID returns the candidate signed in to the portal.
func (sm *SessionManager) CandidateID(r *http.Request) (primitive.ObjectID, bool) {
	raw, _ := sm.session(r).Values[candidateIDKey].(string)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// SignOutCandidate clears the portal candidate from the session.
func (sm *SessionManager) SignOutCandidate(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	delete(sess.Values, candidateIDKey)
	return sess.Save(r, w)
}
