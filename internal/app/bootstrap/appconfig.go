// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to the recruitment tracker lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratarecruit-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Superuser bootstrap; blank username skips it
	SuperuserUsername string
	SuperuserPassword string

	// Load the provinces and districts of Mozambique at startup
	SeedGeography bool

	// Whether provincial staff may act on candidates of their province
	ProvincialCanManage bool

	// WhatsApp provider; blank key runs the sender in mock mode
	WhatsAppAPIKey string
	WhatsAppAPIURL string

	// Kafka status-change events; blank brokers disables publishing
	KafkaBrokers string // comma-separated host:port list
	KafkaTopic   string

	// Redis for the shared login rate limit; blank address keeps it in memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Dashboard "recent pending" list length
	RecentPendingLimit int
}
