// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	geographystore "github.com/dalemusser/stratarecruit/internal/app/store/geography"
	"github.com/dalemusser/stratarecruit/internal/app/system/auditlog"
	"github.com/dalemusser/stratarecruit/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: the
// superuser bootstrap and the geography seed.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	if appCfg.SuperuserUsername != "" {
		if err := ensureSuperuser(ctx, deps, appCfg, newAuditLogger(appCfg, deps, logger), logger); err != nil {
			return err
		}
	}
	if appCfg.SeedGeography {
		if err := seedGeography(ctx, deps, logger); err != nil {
			return err
		}
	}
	return nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

func ensureSuperuser(ctx context.Context, deps DBDeps, appCfg AppConfig, audits *auditlog.Logger, logger *zap.Logger) error {
	accounts := accountstore.New(deps.MongoDatabase, logger)
	a, created, err := accounts.EnsureSuperuser(ctx, appCfg.SuperuserUsername, appCfg.SuperuserPassword)
	if err != nil {
		logger.Error("superuser bootstrap failed", zap.String("username", appCfg.SuperuserUsername), zap.Error(err))
		return err
	}
	logger.Info("superuser ensured",
		zap.String("username", a.Username),
		zap.Bool("created", created))
	audits.SuperuserEnsured(ctx, a.ID, a.Username, created)
	return nil
}

func seedGeography(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	res, err := geographystore.New(deps.MongoDatabase).Seed(ctx)
	if err != nil {
		logger.Error("geography seed failed", zap.Error(err))
		return err
	}
	logger.Info("geography seeded",
		zap.Int("provinces_created", res.Provinces),
		zap.Int("districts_created", res.Districts))
	return nil
}
