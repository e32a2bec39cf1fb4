package accountpolicy

import (
	"testing"

	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

func principal(level models.Level, prov, dist *primitive.ObjectID) candidatepolicy.Principal {
	return candidatepolicy.Principal{
		AccountID: primitive.NewObjectID(),
		Profile:   &models.AccessProfile{Level: level, ProvinceID: prov, DistrictID: dist},
	}
}

func TestCanAssign(t *testing.T) {
	gaza, sofala := oid(), oid()
	xai := oid()

	superuser := candidatepolicy.Principal{AccountID: primitive.NewObjectID(), IsSuperuser: true}
	national := principal(models.LevelNational, nil, nil)
	provincial := principal(models.LevelProvincial, gaza, nil)
	provincialNoScope := principal(models.LevelProvincial, nil, nil)
	district := principal(models.LevelDistrict, gaza, xai)
	noProfile := candidatepolicy.Principal{AccountID: primitive.NewObjectID()}

	tests := []struct {
		name   string
		p      candidatepolicy.Principal
		target Target
		want   bool
	}{
		{"superuser creates national", superuser, Target{Level: models.LevelNational}, true},
		{"superuser creates provincial", superuser, Target{Level: models.LevelProvincial, ProvinceID: sofala}, true},
		{"superuser cannot create district", superuser, Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: xai}, false},
		{"national creates provincial", national, Target{Level: models.LevelProvincial, ProvinceID: gaza}, true},
		{"national cannot create district", national, Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: xai}, false},
		{"provincial creates district in province", provincial, Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: xai}, true},
		{"provincial creates provincial in province", provincial, Target{Level: models.LevelProvincial, ProvinceID: gaza}, true},
		{"provincial outside province", provincial, Target{Level: models.LevelDistrict, ProvinceID: sofala, DistrictID: oid()}, false},
		{"provincial without province in target", provincial, Target{Level: models.LevelDistrict}, false},
		{"provincial cannot create national", provincial, Target{Level: models.LevelNational}, false},
		{"provincial without scope", provincialNoScope, Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: xai}, false},
		{"district creates nothing", district, Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: xai}, false},
		{"no profile creates nothing", noProfile, Target{Level: models.LevelProvincial, ProvinceID: gaza}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAssign(tt.p, tt.target); got != tt.want {
				t.Errorf("CanAssign = %v, want %v", got, tt.want)
			}
		})
	}

	if CanManageAccounts(district) || CanManageAccounts(noProfile) {
		t.Error("district/no profile can manage accounts")
	}
	if !CanManageAccounts(superuser) || !CanManageAccounts(provincial) {
		t.Error("superuser/provincial cannot manage accounts")
	}
}

func TestListing(t *testing.T) {
	gaza, sofala := oid(), oid()

	superScope := Listing(candidatepolicy.Principal{IsSuperuser: true})
	if !superScope.Includes(models.AccessProfile{Level: models.LevelNational}) {
		t.Error("superuser listing excludes national")
	}
	if superScope.Includes(models.AccessProfile{Level: models.LevelDistrict, ProvinceID: gaza}) {
		t.Error("superuser listing includes district")
	}

	nationalScope := Listing(principal(models.LevelNational, nil, nil))
	if nationalScope.Includes(models.AccessProfile{Level: models.LevelNational}) {
		t.Error("national listing includes national")
	}
	if !nationalScope.Includes(models.AccessProfile{Level: models.LevelProvincial, ProvinceID: sofala}) {
		t.Error("national listing excludes provincial")
	}

	provScope := Listing(principal(models.LevelProvincial, gaza, nil))
	if !provScope.Includes(models.AccessProfile{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: oid()}) {
		t.Error("provincial listing excludes own district account")
	}
	if provScope.Includes(models.AccessProfile{Level: models.LevelDistrict, ProvinceID: sofala, DistrictID: oid()}) {
		t.Error("provincial listing includes other province")
	}

	if Listing(principal(models.LevelDistrict, gaza, oid())).CanList {
		t.Error("district can list accounts")
	}
	if Listing(candidatepolicy.Principal{}).CanList {
		t.Error("no profile can list accounts")
	}
}

func TestCanEdit(t *testing.T) {
	gaza, sofala := oid(), oid()
	provincial := principal(models.LevelProvincial, gaza, nil)

	own := models.AccessProfile{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: oid()}
	other := models.AccessProfile{Level: models.LevelDistrict, ProvinceID: sofala, DistrictID: oid()}
	target := Target{Level: models.LevelDistrict, ProvinceID: gaza, DistrictID: oid()}

	if !CanEdit(provincial, own, target) {
		t.Error("provincial cannot edit district account in own province")
	}
	if CanEdit(provincial, other, target) {
		t.Error("provincial edited account in other province")
	}
}

func TestLevelLabel(t *testing.T) {
	tests := []struct {
		name    string
		super   bool
		profile *models.AccessProfile
		prov    string
		dist    string
		want    string
	}{
		{"superuser", true, nil, "", "", "Superuser"},
		{"no profile", false, nil, "", "", "No profile"},
		{"national", false, &models.AccessProfile{Level: models.LevelNational}, "", "", "National"},
		{"provincial", false, &models.AccessProfile{Level: models.LevelProvincial}, "Gaza", "", "Provincial - Gaza"},
		{"provincial unscoped", false, &models.AccessProfile{Level: models.LevelProvincial}, "", "", "Provincial"},
		{"district", false, &models.AccessProfile{Level: models.LevelDistrict}, "Gaza", "Xai-Xai", "District - Xai-Xai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelLabel(tt.super, tt.profile, tt.prov, tt.dist); got != tt.want {
				t.Errorf("LevelLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
