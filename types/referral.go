package types

import (
	"time"

	"github.com/google/uuid"
)

// Referral represents a candidate submitted by an account.
// The owner and resume reference are fixed at creation; only Status changes.
type Referral struct {
	// ID is the unique identifier of the referral.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the candidate's full name.
	Name string `json:"name" db:"name"`

	// Email is the candidate's contact address.
	Email string `json:"email" db:"email"`

	// Experience is the candidate's professional experience in years.
	Experience float64 `json:"experience" db:"experience"`

	// ResumeURL is the retrieval path of the uploaded resume,
	// e.g. "/uploads/1700000000000-01hf....pdf".
	ResumeURL string `json:"resumeUrl" db:"resume_url"`

	// Status is the current review state of the referral.
	Status ReferralStatus `json:"status" db:"status"`

	// ReferredBy identifies the account that owns the referral.
	ReferredBy uuid.UUID `json:"referredBy" db:"referred_by"`

	// CreatedAt is the timestamp when the referral was submitted.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent status change.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReferralStatus is the review state of a referral.
type ReferralStatus string

// Supported referral statuses. Any status may follow any other.
const (
	// StatusNew is assigned to every referral at creation.
	StatusNew ReferralStatus = "New"

	// StatusEvaluated marks a referral that has been reviewed.
	StatusEvaluated ReferralStatus = "Evaluated"

	// StatusHired marks a candidate that received and accepted an offer.
	StatusHired ReferralStatus = "Hired"

	// StatusRejected marks a candidate that will not move forward.
	StatusRejected ReferralStatus = "Rejected"
)

// ReferralStatuses lists every valid status in lifecycle order.
var ReferralStatuses = []ReferralStatus{
	StatusNew,
	StatusEvaluated,
	StatusHired,
	StatusRejected,
}

// Valid reports whether s is one of the enumerated statuses.
// Matching is exact; "hired" is not a valid status.
func (s ReferralStatus) Valid() bool {
	switch s {
	case StatusNew, StatusEvaluated, StatusHired, StatusRejected:
		return true
	default:
		return false
	}
}

func (s ReferralStatus) String() string {
	return string(s)
}
