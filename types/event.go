package types

import (
	"time"

	"github.com/google/uuid"
)

// ReferralEventType names a change to a referral.
type ReferralEventType string

const (
	ReferralCreated       ReferralEventType = "referral.created"
	ReferralStatusChanged ReferralEventType = "referral.status_changed"
)

// ReferralEvent is published to the message broker after a referral write
// has been committed.
type ReferralEvent struct {
	Type       ReferralEventType `json:"type"`
	ReferralID uuid.UUID         `json:"referralId"`
	OwnerID    uuid.UUID         `json:"ownerId"`
	Status     ReferralStatus    `json:"status"`
	OccurredAt time.Time         `json:"occurredAt"`
}
