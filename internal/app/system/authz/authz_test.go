package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func withUser(u *auth.SessionUser) *http.Request {
	return auth.WithTestUser(httptest.NewRequest("GET", "/", nil), u)
}

func TestUserCtx(t *testing.T) {
	id := primitive.NewObjectID()
	name, got, ok := authz.UserCtx(withUser(&auth.SessionUser{ID: id.Hex(), Name: "Ana"}))
	if !ok || got != id || name != "Ana" {
		t.Errorf("UserCtx = %q, %s, %v", name, got.Hex(), ok)
	}

	if _, _, ok := authz.UserCtx(withUser(&auth.SessionUser{ID: "not-an-id"})); ok {
		t.Error("malformed ID accepted")
	}
	if _, _, ok := authz.UserCtx(httptest.NewRequest("GET", "/", nil)); ok {
		t.Error("signed-out request reported ok")
	}
}

func TestPrincipal(t *testing.T) {
	prov := primitive.NewObjectID()
	profile := &models.AccessProfile{Level: models.LevelProvincial, ProvinceID: &prov}

	p, ok := authz.Principal(withUser(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Profile: profile}))
	if !ok {
		t.Fatal("Principal not ok")
	}
	if p.IsSuperuser || p.Profile != profile {
		t.Errorf("Principal = %+v", p)
	}

	p, _ = authz.Principal(withUser(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), IsSuperuser: true, Profile: profile}))
	if !p.IsSuperuser || p.Profile != nil {
		t.Errorf("superuser Principal = %+v, want no profile", p)
	}
}

func TestLevels(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	tests := []struct {
		name         string
		user         *auth.SessionUser
		wantNational bool
		wantDistrict bool
	}{
		{"superuser", &auth.SessionUser{ID: id, IsSuperuser: true}, true, false},
		{"national", &auth.SessionUser{ID: id, Profile: &models.AccessProfile{Level: models.LevelNational}}, true, false},
		{"district", &auth.SessionUser{ID: id, Profile: &models.AccessProfile{Level: models.LevelDistrict}}, false, true},
		{"no profile", &auth.SessionUser{ID: id}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := withUser(tt.user)
			if got := authz.IsNationalOrSuperuser(r); got != tt.wantNational {
				t.Errorf("IsNationalOrSuperuser = %v, want %v", got, tt.wantNational)
			}
			if got := authz.HasAnyLevel(r, models.LevelDistrict); got != tt.wantDistrict {
				t.Errorf("HasAnyLevel(district) = %v, want %v", got, tt.wantDistrict)
			}
		})
	}
}

func TestActor(t *testing.T) {
	id := primitive.NewObjectID()
	a := authz.Actor(withUser(&auth.SessionUser{ID: id.Hex(), Name: "Ana"}))
	if a.ID == nil || *a.ID != id || a.Name != "Ana" {
		t.Errorf("Actor = %+v", a)
	}

	anon := authz.Actor(httptest.NewRequest("GET", "/", nil))
	if anon.ID != nil || anon.Name != "system" {
		t.Errorf("anonymous Actor = %+v, want system", anon)
	}
}
