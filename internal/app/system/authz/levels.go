// internal/app/system/authz/levels.go
package authz

import (
	"net/http"

	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
)

// Level returns the current user's hierarchy level. Superusers and users
// without a profile return ok=false.
func Level(r *http.Request) (models.Level, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.IsSuperuser || user.Profile == nil {
		return "", false
	}
	return user.Profile.Level, true
}

// HasAnyLevel reports whether the current user's level is one of levels.
func HasAnyLevel(r *http.Request, levels ...models.Level) bool {
	cur, ok := Level(r)
	if !ok {
		return false
	}
	for _, l := range levels {
		if cur == l {
			return true
		}
	}
	return false
}

// IsNationalOrSuperuser reports whether the user oversees the whole country.
func IsNationalOrSuperuser(r *http.Request) bool {
	return IsSuperuser(r) || HasAnyLevel(r, models.LevelNational)
}

// RequireNationalOrSuperuser allows superusers and national staff (401 when
// signed out, 403 otherwise).
func RequireNationalOrSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if !IsNationalOrSuperuser(r) {
			httpjson.Forbidden(w, "national access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
