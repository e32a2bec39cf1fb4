// Package accountpolicy decides which staff accounts a signed-in user may
// create, list and re-scope.
//
// Authorization rules:
//   - Superusers and national staff create national or provincial accounts
//   - Provincial staff create provincial or district accounts inside their own province
//   - District staff and accounts without a profile manage no accounts
package accountpolicy

import (
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Target is the level and scope requested for a new or updated profile.
type Target struct {
	Level      models.Level
	ProvinceID *primitive.ObjectID
	DistrictID *primitive.ObjectID
}

// ListScope describes which accounts a user may list.
type ListScope struct {
	// CanList is false when the user manages no accounts.
	CanList bool
	// Levels are the profile levels included.
	Levels []models.Level
	// ProvinceID restricts the listing to one province when set.
	ProvinceID *primitive.ObjectID
}

func creatorLevel(p candidatepolicy.Principal) (models.Level, bool) {
	if p.IsSuperuser {
		return models.LevelNational, true
	}
	if p.Profile == nil {
		return "", false
	}
	return p.Profile.Level, true
}

// CreatableLevels lists the levels p may assign.
func CreatableLevels(p candidatepolicy.Principal) []models.Level {
	lvl, ok := creatorLevel(p)
	if !ok {
		return nil
	}
	switch lvl {
	case models.LevelNational:
		return []models.Level{models.LevelNational, models.LevelProvincial}
	case models.LevelProvincial:
		if p.Profile.ProvinceID == nil {
			return nil
		}
		return []models.Level{models.LevelProvincial, models.LevelDistrict}
	}
	return nil
}

// CanManageAccounts reports whether p may open account management at all.
func CanManageAccounts(p candidatepolicy.Principal) bool {
	return len(CreatableLevels(p)) > 0
}

// CanAssign reports whether p may give an account the target level and
// scope. Geographic consistency of the target is checked separately.
func CanAssign(p candidatepolicy.Principal, t Target) bool {
	allowed := false
	for _, l := range CreatableLevels(p) {
		if l == t.Level {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if p.IsSuperuser || p.Profile.Level == models.LevelNational {
		return true
	}
	// provincial creator: target must sit in the creator's province
	return t.ProvinceID != nil && *t.ProvinceID == *p.Profile.ProvinceID
}

// CanEdit reports whether p may re-scope an account whose current profile is
// existing. The account must be in p's listing and the new target must be
// assignable by p.
func CanEdit(p candidatepolicy.Principal, existing models.AccessProfile, t Target) bool {
	scope := Listing(p)
	if !scope.Includes(existing) {
		return false
	}
	return CanAssign(p, t)
}

// Listing returns the accounts p may list.
//
//   - superuser: national and provincial accounts
//   - national: provincial accounts
//   - provincial: district accounts of its province
func Listing(p candidatepolicy.Principal) ListScope {
	if p.IsSuperuser {
		return ListScope{CanList: true, Levels: []models.Level{models.LevelNational, models.LevelProvincial}}
	}
	if p.Profile == nil {
		return ListScope{}
	}
	switch p.Profile.Level {
	case models.LevelNational:
		return ListScope{CanList: true, Levels: []models.Level{models.LevelProvincial}}
	case models.LevelProvincial:
		if p.Profile.ProvinceID == nil {
			return ListScope{}
		}
		pid := *p.Profile.ProvinceID
		return ListScope{CanList: true, Levels: []models.Level{models.LevelDistrict}, ProvinceID: &pid}
	}
	return ListScope{}
}

// Includes reports whether a profile falls inside the listing.
func (s ListScope) Includes(ap models.AccessProfile) bool {
	if !s.CanList {
		return false
	}
	levelOK := false
	for _, l := range s.Levels {
		if l == ap.Level {
			levelOK = true
			break
		}
	}
	if !levelOK {
		return false
	}
	if s.ProvinceID == nil {
		return true
	}
	return ap.ProvinceID != nil && *ap.ProvinceID == *s.ProvinceID
}

// LevelLabel is the display label of a user's level and area, for example
// "Provincial - Gaza". provinceName and districtName are the resolved names
// of the profile's scope.
func LevelLabel(isSuperuser bool, profile *models.AccessProfile, provinceName, districtName string) string {
	if isSuperuser {
		return "Superuser"
	}
	if profile == nil {
		return "No profile"
	}
	switch profile.Level {
	case models.LevelNational:
		return "National"
	case models.LevelProvincial:
		if provinceName == "" {
			return "Provincial"
		}
		return "Provincial - " + provinceName
	case models.LevelDistrict:
		if districtName == "" {
			return "District"
		}
		return "District - " + districtName
	}
	return string(profile.Level)
}
