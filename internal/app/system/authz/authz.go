// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	historystore "github.com/dalemusser/stratarecruit/internal/app/store/history"
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's display name, account ObjectID, and a found flag.
// A missing user or a malformed ID returns "", NilObjectID, false, so ok=true
// always carries a valid ID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// Principal converts the signed-in user into the identity used by the
// candidate policy. ok is false when nobody is signed in.
func Principal(r *http.Request) (candidatepolicy.Principal, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return candidatepolicy.Principal{}, false
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return candidatepolicy.Principal{}, false
	}
	p := candidatepolicy.Principal{AccountID: id, IsSuperuser: user.IsSuperuser}
	if !user.IsSuperuser {
		p.Profile = user.Profile
	}
	return p, true
}

// IsSuperuser reports whether the current request's user is a superuser.
func IsSuperuser(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.IsSuperuser
}

// ActorID returns a pointer to the signed-in user's ID, or nil.
func ActorID(r *http.Request) *primitive.ObjectID {
	_, id, ok := UserCtx(r)
	if !ok {
		return nil
	}
	return &id
}

// Actor identifies the signed-in user for change history. Anonymous requests
// map to the system actor.
func Actor(r *http.Request) historystore.Actor {
	name, id, ok := UserCtx(r)
	if !ok {
		return historystore.System
	}
	return historystore.Actor{ID: &id, Name: name}
}
