// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for StrataRecruit.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STRATARECRUIT_MONGO_URI, STRATARECRUIT_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strata_recruit", Desc: "MongoDB database name"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratarecruit-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	// Superuser bootstrap
	{Name: "superuser_username", Default: "", Desc: "Username of the superuser (created or promoted on startup)"},
	{Name: "superuser_password", Default: "", Desc: "Password for a newly created superuser"},

	{Name: "seed_geography", Default: true, Desc: "Load Mozambique's provinces and districts on startup"},
	{Name: "provincial_can_manage", Default: true, Desc: "Allow provincial staff to act on candidates in their province"},

	// WhatsApp
	{Name: "whatsapp_api_key", Default: "", Desc: "WhatsApp provider API key (blank runs in mock mode)"},
	{Name: "whatsapp_api_url", Default: "", Desc: "WhatsApp provider send URL"},

	// Kafka
	{Name: "kafka_brokers", Default: "", Desc: "Comma-separated Kafka brokers for status events (blank disables)"},
	{Name: "kafka_topic", Default: "candidate-status", Desc: "Kafka topic for status events"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address for the shared login rate limit (blank keeps it in memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "recent_pending_limit", Default: 5, Desc: "Pending applications shown on the dashboard"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STRATARECRUIT_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STRATARECRUIT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		SuperuserUsername: strings.TrimSpace(appValues.String("superuser_username")),
		SuperuserPassword: appValues.String("superuser_password"),

		SeedGeography:       appValues.Bool("seed_geography"),
		ProvincialCanManage: appValues.Bool("provincial_can_manage"),

		WhatsAppAPIKey: appValues.String("whatsapp_api_key"),
		WhatsAppAPIURL: appValues.String("whatsapp_api_url"),

		KafkaBrokers: appValues.String("kafka_brokers"),
		KafkaTopic:   appValues.String("kafka_topic"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		RecentPendingLimit: appValues.Int("recent_pending_limit"),
	}

	return coreCfg, appCfg, nil
}

var auditSettings = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked early, before attempting to connect.
// A superuser username without a password is rejected because the account
// could not be created.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

func validateApp(appCfg AppConfig) error {
	var problems []string
	if appCfg.SuperuserUsername != "" && appCfg.SuperuserPassword == "" {
		problems = append(problems, "superuser_password is required when superuser_username is set")
	}
	if appCfg.KafkaBrokers != "" && strings.TrimSpace(appCfg.KafkaTopic) == "" {
		problems = append(problems, "kafka_topic is required when kafka_brokers is set")
	}
	if appCfg.LoginRateLimit < 1 {
		problems = append(problems, "login_rate_limit must be at least 1")
	}
	if appCfg.LoginRateWindow <= 0 {
		problems = append(problems, "login_rate_window must be positive")
	}
	if appCfg.RecentPendingLimit < 1 {
		problems = append(problems, "recent_pending_limit must be at least 1")
	}
	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditSettings[v] {
			problems = append(problems, key+" must be one of all, db, log, off")
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
