// internal/app/features/reports/types.go
package reports

import (
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/stats"
)

// Kind names a report.
type Kind string

const (
	KindGeneral    Kind = "general"
	KindPending    Kind = "pending"
	KindRejected   Kind = "rejected"
	KindStatistics Kind = "statistics"
	KindAudit      Kind = "audit"
)

var titles = map[Kind]string{
	KindGeneral:    "General list of applicants",
	KindPending:    "Pending applications",
	KindRejected:   "Rejected applications",
	KindStatistics: "Statistical summary of applications",
	KindAudit:      "System audit log",
}

// AuditLimit is the number of history entries in the audit report.
const AuditLimit = 100

// Report is the plain data behind every report. Rendering is left to the
// client.
type Report struct {
	Kind        Kind           `json:"kind"`
	Title       string         `json:"title"`
	Area        string         `json:"area"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rows        any            `json:"rows"`
	Statistics  *stats.General `json:"statistics,omitempty"`
}

// CandidateRow is one line of the candidate lists.
type CandidateRow struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Gender     string `json:"gender"`
	Vacancy    string `json:"vacancy"`
	Province   string `json:"province"`
	District   string `json:"district"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	AppliedOn  string `json:"applied_on"`
}

// AuditRow is one change of the audit report.
type AuditRow struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Changes   []string  `json:"changes"`
}
