// internal/domain/models/candidate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CandidateStatus is the lifecycle stage of an application.
type CandidateStatus string

const (
	StatusPending            CandidateStatus = "PENDING"
	StatusDocsApproved       CandidateStatus = "DOCS_APPROVED"
	StatusDocsRejected       CandidateStatus = "DOCS_REJECTED"
	StatusInterviewScheduled CandidateStatus = "INTERVIEW_SCHEDULED"
	StatusInterviewPassed    CandidateStatus = "INTERVIEW_PASSED"
	StatusInterviewFailed    CandidateStatus = "INTERVIEW_FAILED"
	StatusHired              CandidateStatus = "HIRED"
)

var statusLabels = map[CandidateStatus]string{
	StatusPending:            "Pending",
	StatusDocsApproved:       "Documents Approved",
	StatusDocsRejected:       "Documents Rejected",
	StatusInterviewScheduled: "Interview Scheduled",
	StatusInterviewPassed:    "Passed Interview",
	StatusInterviewFailed:    "Failed Interview",
	StatusHired:              "Hired",
}

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []CandidateStatus {
	return []CandidateStatus{
		StatusPending,
		StatusDocsApproved,
		StatusDocsRejected,
		StatusInterviewScheduled,
		StatusInterviewPassed,
		StatusInterviewFailed,
		StatusHired,
	}
}

// Label returns the human-readable name. Unknown values fall back to the raw value.
func (s CandidateStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the defined statuses.
func (s CandidateStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Admitted reports whether the status counts as admitted (hired or passed interview).
func (s CandidateStatus) Admitted() bool {
	return s == StatusHired || s == StatusInterviewPassed
}

// AdmittedStatuses are the statuses counted as admitted.
func AdmittedStatuses() []CandidateStatus {
	return []CandidateStatus{StatusHired, StatusInterviewPassed}
}

// Gender of a candidate.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Valid reports whether g is one of the defined genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the human-readable name.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	}
	return string(g)
}

// DocumentChecklist holds the physical document verification flags.
// Each flag is independent.
type DocumentChecklist struct {
	IDDocument         bool `bson:"id_document" json:"id_document"`
	CV                 bool `bson:"cv" json:"cv"`
	Certificate        bool `bson:"certificate" json:"certificate"`
	TaxNumber          bool `bson:"tax_number" json:"tax_number"`
	CriminalRecord     bool `bson:"criminal_record" json:"criminal_record"`
	MedicalCertificate bool `bson:"medical_certificate" json:"medical_certificate"`
	SignedRequest      bool `bson:"signed_request" json:"signed_request"`
}

// Candidate is a single application.
//
// NationalIDCI is the folded national ID number and carries the unique index.
// ProvinceID/DistrictID are optional; when both are set the district must
// belong to the province (validated at input, not here).
type Candidate struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	NationalID   string              `bson:"national_id" json:"national_id"`
	NationalIDCI string              `bson:"national_id_ci" json:"-"`
	Gender       Gender              `bson:"gender" json:"gender"`
	Phone        string              `bson:"phone" json:"phone"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	VacancyID    *primitive.ObjectID `bson:"vacancy_id,omitempty" json:"vacancy_id,omitempty"`
	ProvinceID   *primitive.ObjectID `bson:"province_id,omitempty" json:"province_id,omitempty"`
	DistrictID   *primitive.ObjectID `bson:"district_id,omitempty" json:"district_id,omitempty"`

	Checklist DocumentChecklist `bson:"checklist" json:"checklist"`
	Status    CandidateStatus   `bson:"status" json:"status"`

	InterviewAt *time.Time `bson:"interview_at,omitempty" json:"interview_at,omitempty"`
	Notes       string     `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// InProvince reports whether the candidate is assigned to the given province.
func (c Candidate) InProvince(id primitive.ObjectID) bool {
	return c.ProvinceID != nil && *c.ProvinceID == id
}

// InDistrict reports whether the candidate is assigned to the given district.
func (c Candidate) InDistrict(id primitive.ObjectID) bool {
	return c.DistrictID != nil && *c.DistrictID == id
}
