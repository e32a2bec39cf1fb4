package area

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNamer struct {
	province, district string
	err                error
	calls              int
}

func (f *fakeNamer) Names(context.Context, *primitive.ObjectID, *primitive.ObjectID) (string, string, error) {
	f.calls++
	return f.province, f.district, f.err
}

func TestLabel(t *testing.T) {
	pid, did := primitive.NewObjectID(), primitive.NewObjectID()
	tests := []struct {
		name  string
		p     candidatepolicy.Principal
		want  string
		calls int
	}{
		{"superuser", candidatepolicy.Principal{IsSuperuser: true}, "Superuser", 0},
		{"no profile", candidatepolicy.Principal{}, "No profile", 0},
		{"national", candidatepolicy.Principal{Profile: &models.AccessProfile{Level: models.LevelNational}}, "National", 1},
		{"provincial", candidatepolicy.Principal{Profile: &models.AccessProfile{Level: models.LevelProvincial, ProvinceID: &pid}}, "Provincial - Gaza", 1},
		{"district", candidatepolicy.Principal{Profile: &models.AccessProfile{Level: models.LevelDistrict, ProvinceID: &pid, DistrictID: &did}}, "District - Bilene", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNamer{province: "Gaza", district: "Bilene"}
			got, err := Label(context.Background(), n, tt.p)
			if err != nil {
				t.Fatalf("Label: %v", err)
			}
			if got != tt.want {
				t.Errorf("Label = %q, want %q", got, tt.want)
			}
			if n.calls != tt.calls {
				t.Errorf("Names called %d times, want %d", n.calls, tt.calls)
			}
		})
	}
}

func TestLabel_Error(t *testing.T) {
	n := &fakeNamer{err: errors.New("down")}
	p := candidatepolicy.Principal{Profile: &models.AccessProfile{Level: models.LevelNational}}
	if _, err := Label(context.Background(), n, p); err == nil {
		t.Error("expected error")
	}
}
