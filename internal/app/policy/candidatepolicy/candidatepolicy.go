// Package candidatepolicy decides which candidates a staff user can see and
// which of them the user can act on.
//
// Visibility rules:
//   - Superusers and national staff see every candidate
//   - Provincial staff see candidates assigned to their province
//   - District staff see candidates assigned to their district
//   - Users without an access profile see nothing
//
// A provincial or district profile with no geographic assignment sees nothing.
// District staff never fall back to their province.
//
// Management rules (verify documents, schedule interviews, record results):
//   - Superusers and national staff oversee but do not manage
//   - Provincial staff manage candidates in their province (configurable)
//   - District staff manage candidates in their district
package candidatepolicy

import (
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the identity the policy decides for.
// Profile is nil for superusers and for accounts that never got a profile.
type Principal struct {
	AccountID   primitive.ObjectID
	IsSuperuser bool
	Profile     *models.AccessProfile
}

// Scope is the set of candidates a principal can see.
// The concrete variants are National, Provincial, District and Denied.
type Scope interface {
	isScope()
}

// National covers every candidate.
type National struct{}

// Provincial covers candidates assigned to one province.
type Provincial struct {
	ProvinceID primitive.ObjectID
}

// District covers candidates assigned to one district.
type District struct {
	DistrictID primitive.ObjectID
}

// Denied covers nothing.
type Denied struct{}

func (National) isScope()   {}
func (Provincial) isScope() {}
func (District) isScope()   {}
func (Denied) isScope()     {}

// matchNothing is a filter no document satisfies.
var matchNothing = bson.M{"_id": bson.M{"$in": bson.A{}}}

// Filter returns the Mongo filter selecting the candidates inside s.
// Unknown scopes select nothing.
func Filter(s Scope) bson.M {
	switch v := s.(type) {
	case National:
		return bson.M{}
	case Provincial:
		return bson.M{"province_id": v.ProvinceID}
	case District:
		return bson.M{"district_id": v.DistrictID}
	default:
		return matchNothing
	}
}

// Allows reports whether c is inside s. Unknown scopes allow nothing.
func Allows(s Scope, c models.Candidate) bool {
	switch v := s.(type) {
	case National:
		return true
	case Provincial:
		return c.InProvince(v.ProvinceID)
	case District:
		return c.InDistrict(v.DistrictID)
	default:
		return false
	}
}

// Resolver evaluates the rules above. The zero value denies provincial
// management; use New for the standard behavior.
type Resolver struct {
	// ProvincialCanManage lets provincial staff act on candidates in their province.
	ProvincialCanManage bool
}

// New returns a Resolver with provincial management enabled.
func New() Resolver {
	return Resolver{ProvincialCanManage: true}
}

// Scope resolves the visibility scope of p.
func (Resolver) Scope(p Principal) Scope {
	if p.IsSuperuser {
		return National{}
	}
	if p.Profile == nil {
		return Denied{}
	}

	switch p.Profile.Level {
	case models.LevelNational:
		return National{}
	case models.LevelProvincial:
		if p.Profile.ProvinceID == nil {
			return Denied{}
		}
		return Provincial{ProvinceID: *p.Profile.ProvinceID}
	case models.LevelDistrict:
		if p.Profile.DistrictID == nil {
			return Denied{}
		}
		return District{DistrictID: *p.Profile.DistrictID}
	default:
		return Denied{}
	}
}

// CanView reports whether p can see c. It agrees with Scope membership.
func (r Resolver) CanView(p Principal, c models.Candidate) bool {
	return Allows(r.Scope(p), c)
}

// CanManage reports whether p can act on c.
func (r Resolver) CanManage(p Principal, c models.Candidate) bool {
	if p.IsSuperuser || p.Profile == nil {
		return false
	}

	switch p.Profile.Level {
	case models.LevelProvincial:
		if !r.ProvincialCanManage || p.Profile.ProvinceID == nil {
			return false
		}
		return c.InProvince(*p.Profile.ProvinceID)
	case models.LevelDistrict:
		if p.Profile.DistrictID == nil {
			return false
		}
		return c.InDistrict(*p.Profile.DistrictID)
	default:
		// national staff oversee only
		return false
	}
}

// IsNational reports whether p sees the national picture.
func IsNational(p Principal) bool {
	return p.IsSuperuser || (p.Profile != nil && p.Profile.Level == models.LevelNational)
}

// IsProvincial reports whether p holds a provincial profile.
func IsProvincial(p Principal) bool {
	return !p.IsSuperuser && p.Profile != nil && p.Profile.Level == models.LevelProvincial
}
