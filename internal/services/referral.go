package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/workoai/referrals/internal/logging"
	"github.com/workoai/referrals/internal/metrics"
	"github.com/workoai/referrals/types"
)

// ReferralRepository defines owner-scoped persistence operations for referrals.
type ReferralRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Referral, error)
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (types.Referral, error)
	Create(ctx context.Context, referral types.Referral) (types.Referral, error)
	UpdateStatusForOwner(ctx context.Context, id, ownerID uuid.UUID, status types.ReferralStatus) (types.Referral, error)
}

// EventPublisher receives referral events after the write has succeeded.
type EventPublisher interface {
	PublishReferralEvent(ctx context.Context, event types.ReferralEvent) error
}

// CreateReferralInput carries a referral submission. Experience is a pointer
// so a missing value can be told apart from zero years.
type CreateReferralInput struct {
	Name       string
	Email      string
	Experience *float64
	ResumeURL  string
}

// ReferralService encapsulates referral use-cases. Every operation is scoped
// to the calling account.
type ReferralService struct {
	repo    ReferralRepository
	events  EventPublisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReferralService constructs the service. events may be nil.
func NewReferralService(repo ReferralRepository, events EventPublisher, m *metrics.Metrics) *ReferralService {
	if m == nil {
		m = metrics.Noop()
	}
	return &ReferralService{
		repo:    repo,
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

// Create stores a new referral owned by callerID with status New.
func (s *ReferralService) Create(ctx context.Context, callerID uuid.UUID, in CreateReferralInput) (types.Referral, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	resumeURL := strings.TrimSpace(in.ResumeURL)

	switch {
	case name == "":
		return types.Referral{}, fmt.Errorf("%w: name is required", ErrValidation)
	case email == "":
		return types.Referral{}, fmt.Errorf("%w: email is required", ErrValidation)
	case in.Experience == nil:
		return types.Referral{}, fmt.Errorf("%w: experience is required", ErrValidation)
	case math.IsNaN(*in.Experience) || math.IsInf(*in.Experience, 0):
		return types.Referral{}, fmt.Errorf("%w: experience must be a number", ErrValidation)
	case *in.Experience < 0:
		return types.Referral{}, fmt.Errorf("%w: experience must not be negative", ErrValidation)
	case resumeURL == "":
		return types.Referral{}, fmt.Errorf("%w: resumeUrl is required", ErrValidation)
	}

	created, err := s.repo.Create(ctx, types.Referral{
		Name:       name,
		Email:      email,
		Experience: *in.Experience,
		ResumeURL:  resumeURL,
		Status:     types.StatusNew,
		ReferredBy: callerID,
	})
	if err != nil {
		return types.Referral{}, fmt.Errorf("create referral: %w", err)
	}
	s.metrics.IncReferralsCreated()
	s.publish(ctx, types.ReferralCreated, created)

	return created, nil
}

// List returns the caller's referrals, newest first.
func (s *ReferralService) List(ctx context.Context, callerID uuid.UUID) ([]types.Referral, error) {
	referrals, err := s.repo.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return referrals, nil
}

// Get returns one of the caller's referrals. Referrals owned by other
// accounts are reported as ErrNotFound.
func (s *ReferralService) Get(ctx context.Context, callerID uuid.UUID, referralID string) (types.Referral, error) {
	id, err := uuid.Parse(strings.TrimSpace(referralID))
	if err != nil {
		return types.Referral{}, ErrNotFound
	}
	return s.repo.GetForOwner(ctx, id, callerID)
}

// UpdateStatus moves one of the caller's referrals to status. Any status may
// follow any other. Unknown or foreign referral ids yield ErrNotFound.
func (s *ReferralService) UpdateStatus(ctx context.Context, callerID uuid.UUID, referralID, status string) (types.Referral, error) {
	next := types.ReferralStatus(status)
	if !next.Valid() {
		return types.Referral{}, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	id, err := uuid.Parse(strings.TrimSpace(referralID))
	if err != nil {
		return types.Referral{}, ErrNotFound
	}

	updated, err := s.repo.UpdateStatusForOwner(ctx, id, callerID, next)
	if err != nil {
		return types.Referral{}, err
	}
	s.metrics.IncStatusChange(next.String())
	s.publish(ctx, types.ReferralStatusChanged, updated)

	return updated, nil
}

// publish is best effort: the referral is already committed, so a broker
// failure is logged and not returned.
func (s *ReferralService) publish(ctx context.Context, kind types.ReferralEventType, referral types.Referral) {
	if s.events == nil {
		return
	}
	event := types.ReferralEvent{
		Type:       kind,
		ReferralID: referral.ID,
		OwnerID:    referral.ReferredBy,
		Status:     referral.Status,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishReferralEvent(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("referral event not published",
			"event", kind,
			"referral_id", referral.ID,
			"error", err,
		)
	}
}
