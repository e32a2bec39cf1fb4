// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratarecruit/internal/app/features/shared/params"
	"github.com/dalemusser/stratarecruit/internal/app/policy/accountpolicy"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/dalemusser/stratarecruit/internal/app/system/httpjson"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler manages staff accounts and their access profiles following the
// creator's place in the hierarchy.
type Handler struct {
	Accounts *accountstore.Store
	Geo      *geographystore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accountstore.New(db, logger),
		Geo:      geographystore.New(db),
		Audit:    auditLog,
		Log:      logger,
	}
}

type profileRequest struct {
	Level      string `json:"level"`
	ProvinceID string `json:"province_id"`
	DistrictID string `json:"district_id"`
}

func (req profileRequest) input() (accountstore.ProfileInput, error) {
	provinceID, err := params.OptionalID(req.ProvinceID)
	if err != nil {
		return accountstore.ProfileInput{}, errors.New("invalid province_id")
	}
	districtID, err := params.OptionalID(req.DistrictID)
	if err != nil {
		return accountstore.ProfileInput{}, errors.New("invalid district_id")
	}
	in := accountstore.ProfileInput{
		Level:      models.Level(strings.ToUpper(strings.TrimSpace(req.Level))),
		ProvinceID: provinceID,
		DistrictID: districtID,
	}
	if !in.Level.Valid() {
		return in, accountstore.ErrInvalidLevel
	}
	if in.Level == models.LevelNational {
		in.ProvinceID, in.DistrictID = nil, nil
	}
	return in, nil
}

func target(in accountstore.ProfileInput) accountpolicy.Target {
	return accountpolicy.Target{Level: in.Level, ProvinceID: in.ProvinceID, DistrictID: in.DistrictID}
}

type createRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	profileRequest
}

type accountView struct {
	Account    models.Account       `json:"account"`
	Profile    models.AccessProfile `json:"profile"`
	LevelLabel string               `json:"level_label"`
}

type listResponse struct {
	Accounts        []accountView  `json:"accounts"`
	CreatableLevels []models.Level `json:"creatable_levels"`
}

// names resolves province and district names for labels in one pass.
type names struct {
	provinces map[primitive.ObjectID]string
	districts map[primitive.ObjectID]string
}

func (h *Handler) loadNames(ctx context.Context) (names, error) {
	n := names{provinces: map[primitive.ObjectID]string{}, districts: map[primitive.ObjectID]string{}}
	provinces, err := h.Geo.ListProvinces(ctx)
	if err != nil {
		return n, err
	}
	for _, p := range provinces {
		n.provinces[p.ID] = p.Name
	}
	districts, err := h.Geo.ListAllDistricts(ctx)
	if err != nil {
		return n, err
	}
	for _, d := range districts {
		n.districts[d.ID] = d.Name
	}
	return n, nil
}

func (n names) label(a models.Account, ap *models.AccessProfile) string {
	var prov, dist string
	if ap != nil {
		if ap.ProvinceID != nil {
			prov = n.provinces[*ap.ProvinceID]
		}
		if ap.DistrictID != nil {
			dist = n.districts[*ap.DistrictID]
		}
	}
	return accountpolicy.LevelLabel(a.IsSuperuser, ap, prov, dist)
}

func principal(w http.ResponseWriter, r *http.Request) (candidatepolicy.Principal, bool) {
	p, ok := authz.Principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
	}
	return p, ok
}

// ServeList lists the accounts the user manages.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	scope := accountpolicy.Listing(p)
	if !scope.CanList {
		httpjson.Forbidden(w, "you do not manage any accounts")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	managed, err := h.Accounts.ListManaged(ctx, scope.Levels, scope.ProvinceID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list accounts", err)
		return
	}
	n, err := h.loadNames(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "load geography names", err)
		return
	}
	out := listResponse{Accounts: make([]accountView, 0, len(managed)), CreatableLevels: accountpolicy.CreatableLevels(p)}
	for _, m := range managed {
		ap := m.Profile
		out.Accounts = append(out.Accounts, accountView{Account: m.Account, Profile: ap, LevelLabel: n.label(m.Account, &ap)})
	}
	httpjson.OK(w, out)
}

// HandleCreate creates a staff account with its profile.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !accountpolicy.CanManageAccounts(p) {
		httpjson.Forbidden(w, "you cannot create accounts")
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.profileRequest.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	if !accountpolicy.CanAssign(p, target(in)) {
		httpjson.Forbidden(w, "you cannot create an account with this level or area")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, ap, err := h.Accounts.CreateStaff(ctx, accountstore.NewAccount{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	}, in, authz.Actor(r))
	if h.writeStoreError(w, err, "create account") {
		return
	}
	h.Audit.AccountCreated(ctx, r, authz.ActorID(r), a.ID, a.Username, string(ap.Level))
	h.Log.Info("account created", zap.String("username", a.Username), zap.String("level", string(ap.Level)))

	n, err := h.loadNames(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "load geography names", err)
		return
	}
	httpjson.Created(w, accountView{Account: a, Profile: ap, LevelLabel: n.label(a, &ap)})
}

// HandleUpdateProfile re-scopes an account the user manages.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid account id")
		return
	}
	var req profileRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, existing, ok := h.loadManaged(ctx, w, p, id)
	if !ok {
		return
	}
	if !accountpolicy.CanEdit(p, existing, target(in)) {
		httpjson.Forbidden(w, "you cannot assign this level or area")
		return
	}
	ap, err := h.Accounts.UpdateProfile(ctx, id, in, authz.Actor(r))
	if h.writeStoreError(w, err, "update profile") {
		return
	}
	h.Audit.ProfileUpdated(ctx, r, authz.ActorID(r), id, string(ap.Level))

	n, err := h.loadNames(ctx)
	if err != nil {
		httpjson.ServerError(w, h.Log, "load geography names", err)
		return
	}
	httpjson.OK(w, accountView{Account: a, Profile: ap, LevelLabel: n.label(a, &ap)})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleStatus enables or disables an account the user manages.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := params.ObjectID(r, "id")
	if err != nil {
		httpjson.BadRequest(w, "invalid account id")
		return
	}
	var req statusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.BadRequest(w, err.Error())
		return
	}
	if req.Status != accountstore.StatusActive && req.Status != accountstore.StatusDisabled {
		httpjson.BadRequest(w, "status must be active or disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, _, ok := h.loadManaged(ctx, w, p, id)
	if !ok {
		return
	}
	if err := h.Accounts.SetStatus(ctx, id, req.Status); h.writeStoreError(w, err, "set account status") {
		return
	}
	a.Status = req.Status
	h.Log.Info("account status changed", zap.String("username", a.Username), zap.String("status", req.Status))
	httpjson.OK(w, a)
}

// loadManaged fetches an account and its profile and checks that it is in
// the user's listing.
func (h *Handler) loadManaged(ctx context.Context, w http.ResponseWriter, p candidatepolicy.Principal, id primitive.ObjectID) (models.Account, models.AccessProfile, bool) {
	a, err := h.Accounts.GetByID(ctx, id)
	if h.writeStoreError(w, err, "get account") {
		return a, models.AccessProfile{}, false
	}
	existing, err := h.Accounts.GetProfile(ctx, id)
	if h.writeStoreError(w, err, "get profile") {
		return a, existing, false
	}
	if a.IsSuperuser || !accountpolicy.Listing(p).Includes(existing) {
		httpjson.Forbidden(w, "you do not manage this account")
		return a, existing, false
	}
	return a, existing, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, accountstore.ErrNotFound), errors.Is(err, accountstore.ErrProfileNotFound):
		httpjson.NotFound(w, "account not found")
	case errors.Is(err, accountstore.ErrUsernameTaken):
		httpjson.Conflict(w, err.Error())
	case errors.Is(err, accountstore.ErrUsernameRequired),
		errors.Is(err, accountstore.ErrPasswordTooShort),
		errors.Is(err, accountstore.ErrInvalidLevel),
		errors.Is(err, accountstore.ErrInvalidProfile),
		errors.Is(err, geographystore.ErrProvinceNotFound),
		errors.Is(err, geographystore.ErrDistrictNotFound),
		errors.Is(err, geographystore.ErrInconsistentGeography):
		httpjson.BadRequest(w, err.Error())
	default:
		httpjson.ServerError(w, h.Log, op, err)
	}
	return true
}
