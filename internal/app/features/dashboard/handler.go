// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/area"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	"github.com/dalemusser/stratarecruit/internal/app/stats"
	candidatestore "github.com/dalemusser/stratarecruit/internal/app/store/candidates"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	vacancystore "github.com/dalemusser/stratarecruit/internal/app/store/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Sources     stats.Sources
	Geo         *geographystore.Store
	Policy      candidatepolicy.Resolver
	RecentLimit int
	Log         *zap.Logger
}

// NewHandler builds the dashboard. recentLimit caps the recent pending list;
// zero uses stats.DefaultRecentLimit.
func NewHandler(db *mongo.Database, policy candidatepolicy.Resolver, recentLimit int, logger *zap.Logger) *Handler {
	geo := geographystore.New(db)
	return &Handler{
		Sources: stats.Sources{
			Candidates: candidatestore.New(db, logger),
			Vacancies:  vacancystore.New(db, logger),
			Geography:  geo,
		},
		Geo:         geo,
		Policy:      policy,
		RecentLimit: recentLimit,
		Log:         logger,
	}
}

type dashboardResponse struct {
	LevelLabel    string             `json:"level_label"`
	IsNational    bool               `json:"is_national"`
	IsProvincial  bool               `json:"is_provincial"`
	General       stats.General      `json:"general"`
	Admission     stats.Admission    `json:"admission"`
	Geography     stats.Geographic   `json:"geography"`
	RecentPending []models.Candidate `json:"recent_pending"`
}

// ServeDashboard handles GET /dashboard. Every figure is limited to the
// candidates the user can see.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.Principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	out, err := h.build(ctx, p)
	if err != nil {
		httpjson.ServerError(w, h.Log, "build dashboard", err, zap.String("account_id", p.AccountID.Hex()))
		return
	}
	httpjson.OK(w, out)
}

func (h *Handler) build(ctx context.Context, p candidatepolicy.Principal) (dashboardResponse, error) {
	var out dashboardResponse
	var err error

	if out.LevelLabel, err = area.Label(ctx, h.Geo, p); err != nil {
		return out, err
	}
	out.IsNational = candidatepolicy.IsNational(p)
	out.IsProvincial = candidatepolicy.IsProvincial(p)

	agg := stats.New(p, h.Policy, h.Sources)
	if out.General, err = agg.GeneralStatistics(ctx); err != nil {
		return out, err
	}
	if out.Admission, err = agg.AdmissionDetails(ctx); err != nil {
		return out, err
	}
	if out.Geography, err = agg.GeographicDistribution(ctx, out.IsNational, out.IsProvincial, p.Profile); err != nil {
		return out, err
	}
	if out.RecentPending, err = agg.RecentPending(ctx, h.RecentLimit); err != nil {
		return out, err
	}
	return out, nil
}
