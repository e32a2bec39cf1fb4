// Package area resolves the "level - area" label shown on dashboards and
// report headers.
package area

import (
	"context"

	"github.com/dalemusser/stratarecruit/internal/app/policy/accountpolicy"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Namer resolves province and district names.
type Namer interface {
	Names(ctx context.Context, provinceID, districtID *primitive.ObjectID) (province, district string, err error)
}

// Label returns the display label of p, for example "District - Bilene".
func Label(ctx context.Context, n Namer, p candidatepolicy.Principal) (string, error) {
	if p.IsSuperuser || p.Profile == nil {
		return accountpolicy.LevelLabel(p.IsSuperuser, p.Profile, "", ""), nil
	}
	prov, dist, err := n.Names(ctx, p.Profile.ProvinceID, p.Profile.DistrictID)
	if err != nil {
		return "", err
	}
	return accountpolicy.LevelLabel(false, p.Profile, prov, dist), nil
}
