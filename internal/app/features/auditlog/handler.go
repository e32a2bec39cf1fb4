// internal/app/features/auditlog/handler.go
package auditlog

import (
	accountstore "github.com/dalemusser/stratarecruit/internal/app/store/accounts"
	"github.com/dalemusser/stratarecruit/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the audit event log to superusers.
type Handler struct {
	Events   *audit.Store
	Accounts *accountstore.Store
	Log      *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   audit.New(db),
		Accounts: accountstore.New(db, logger),
		Log:      logger,
	}
}

// eventTypes lists the event types of each category.
var eventTypes = map[string][]string{
	audit.CategoryAuth: {
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPass,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	},
	audit.CategoryPortal: {
		audit.EventCandidateLoginSuccess,
		audit.EventCandidateLoginFailed,
	},
	audit.CategoryAdmin: {
		audit.EventAccountCreated,
		audit.EventProfileUpdated,
		audit.EventSuperuserEnsured,
		audit.EventVacancyCreated,
		audit.EventVacancyUpdated,
		audit.EventVacancyDeleted,
		audit.EventNotificationsSent,
	},
}

func knownCategory(c string) bool {
	_, ok := eventTypes[c]
	return ok
}
