// internal/app/features/geography/handler.go
package geography

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the province and district lookups used by forms.
type Handler struct {
	Geo *geographystore.Store
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Geo: geographystore.New(db), Log: logger}
}

type provincesResponse struct {
	Provinces []models.Province `json:"provinces"`
}

type districtsResponse struct {
	Province  models.Province   `json:"province"`
	Districts []models.District `json:"districts"`
}

// ServeProvinces handles GET /provinces.
func (h *Handler) ServeProvinces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	provinces, err := h.Geo.ListProvinces(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list provinces", err)
		return
	}
	httpjson.OK(w, provincesResponse{Provinces: provinces})
}

// ServeDistricts handles GET /provinces/{id}/districts.
func (h *Handler) ServeDistricts(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid province id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Geo.GetProvince(ctx, id)
	if errors.Is(err, geographystore.ErrProvinceNotFound) {
		httpjson.NotFound(w, "province not found")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "get province", err, zap.String("province_id", id.Hex()))
		return
	}
	districts, err := h.Geo.ListDistricts(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list districts", err, zap.String("province_id", id.Hex()))
		return
	}
	httpjson.OK(w, districtsResponse{Province: p, Districts: districts})
}
