// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/stratarecruit/internal/app/features/accounts"
	auditlogfeature "github.com/dalemusser/stratarecruit/internal/app/features/auditlog"
	candidatesfeature "github.com/dalemusser/stratarecruit/internal/app/features/candidates"
	dashboardfeature "github.com/dalemusser/stratarecruit/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratarecruit/internal/app/features/errors"
	geographyfeature "github.com/dalemusser/stratarecruit/internal/app/features/geography"
	healthfeature "github.com/dalemusser/stratarecruit/internal/app/features/health"
	loginfeature "github.com/dalemusser/stratarecruit/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratarecruit/internal/app/features/logout"
	notifyfeature "github.com/dalemusser/stratarecruit/internal/app/features/notify"
	portalfeature "github.com/dalemusser/stratarecruit/internal/app/features/portal"
	reportsfeature "github.com/dalemusser/stratarecruit/internal/app/features/reports"
	vacanciesfeature "github.com/dalemusser/stratarecruit/internal/app/features/vacancies"
	"github.com/dalemusser/stratarecruit/internal/app/policy/candidatepolicy"
	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/app/system/ratelimit"
	"github.com/dalemusser/stratarecruit/internal/app/system/whatsapp"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// rateLimitPrefix namespaces the shared login counters in Redis.
const rateLimitPrefix = "stratarecruit:ratelimit:"

func newLimiter(appCfg AppConfig, deps DBDeps, logger *zap.Logger) ratelimit.Allower {
	if deps.Redis != nil {
		return ratelimit.NewRedis(deps.Redis, rateLimitPrefix, appCfg.LoginRateLimit, appCfg.LoginRateWindow, logger)
	}
	return ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every response is JSON; the session
// middleware loads the signed-in staff user for all routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// The loader reads the account and profile on each request so level
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetLoader(accountstore.NewLoader(accountstore.New(db, logger)))

	policy := candidatepolicy.Resolver{ProvincialCanManage: appCfg.ProvincialCanManage}
	audits := newAuditLogger(appCfg, deps, logger)
	limiter := newLimiter(appCfg, deps, logger)
	sender := whatsapp.New(appCfg.WhatsAppAPIKey, appCfg.WhatsAppAPIURL, logger)
	if !sender.Configured() {
		logger.Warn("whatsapp api key not set; notifications run in mock mode")
	}

	errorsHandler := errorsfeature.NewHandler(logger)

	r := chi.NewRouter()
	r.Use(errorsHandler.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Set before mounting so every subrouter inherits them.
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Public reference data and applications
	r.Mount("/provinces", geographyfeature.Routes(geographyfeature.NewHandler(db, logger)))
	r.Mount("/vacancies", vacanciesfeature.Routes(vacanciesfeature.NewHandler(db, audits, logger)))

	candidatesHandler := candidatesfeature.NewHandler(db, policy, deps.Events, logger)
	r.Mount("/candidates", candidatesfeature.Routes(candidatesHandler, sessionMgr))

	// Authentication
	r.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(db, sessionMgr, limiter, audits, logger)))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, audits, logger), sessionMgr))
	r.Mount("/portal", portalfeature.Routes(portalfeature.NewHandler(db, sessionMgr, limiter, audits, logger)))

	// Staff administration
	r.Mount("/accounts", accountsfeature.Routes(accountsfeature.NewHandler(db, audits, logger), sessionMgr))
	r.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger), sessionMgr))

	// Dashboards, reports and notifications
	dashboardHandler := dashboardfeature.NewHandler(db, policy, appCfg.RecentPendingLimit, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))
	r.Mount("/reports", reportsfeature.Routes(reportsfeature.NewHandler(db, policy, logger), sessionMgr))
	r.Mount("/notify", notifyfeature.Routes(notifyfeature.NewHandler(db, policy, sender, audits, logger), sessionMgr))

	return r, nil
}
