package candidatestore

import (
	"errors"

	"github.com/dalemusser/stratarecruit/internal/domain/models"
)

// ErrInvalidTransition means the action is not allowed from the candidate's
// current status.
var ErrInvalidTransition = errors.New("action not allowed in the candidate's current status")

// Action is a workflow step applied to a candidate.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSchedule Action = "schedule"
	ActionPass     Action = "pass"
	ActionFail     Action = "fail"
	ActionHire     Action = "hire"
)

// ParseAction maps a path segment to an Action.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionApprove, ActionReject, ActionSchedule, ActionPass, ActionFail, ActionHire:
		return a, true
	}
	return "", false
}

// Next returns the status reached by applying a to a candidate in from.
//
// Document review (approve, reject) may be redone from any status. The
// interview steps require the preceding stage.
func Next(from models.CandidateStatus, a Action) (models.CandidateStatus, error) {
	switch a {
	case ActionApprove:
		return models.StatusDocsApproved, nil
	case ActionReject:
		return models.StatusDocsRejected, nil
	case ActionSchedule:
		if from == models.StatusDocsApproved {
			return models.StatusInterviewScheduled, nil
		}
	case ActionPass:
		if from == models.StatusInterviewScheduled {
			return models.StatusInterviewPassed, nil
		}
	case ActionFail:
		if from == models.StatusInterviewScheduled {
			return models.StatusInterviewFailed, nil
		}
	case ActionHire:
		if from == models.StatusInterviewPassed {
			return models.StatusHired, nil
		}
	}
	return from, ErrInvalidTransition
}

// ReachedDocsApproved lists the statuses at or past document approval on the
// success path. The list filter "DOCS_APPROVED" selects all of them.
func ReachedDocsApproved() []models.CandidateStatus {
	return []models.CandidateStatus{
		models.StatusDocsApproved,
		models.StatusInterviewScheduled,
		models.StatusInterviewPassed,
		models.StatusInterviewFailed,
		models.StatusHired,
	}
}

// InitialStatus is the status of a manually registered candidate: documents
// approved once the identity document is checked, pending otherwise.
func InitialStatus(c models.DocumentChecklist) models.CandidateStatus {
	if c.IDDocument {
		return models.StatusDocsApproved
	}
	return models.StatusPending
}
