package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/workoai/referrals/types"
)

const referralColumns = `id, name, email, experience, resume_url, status, referred_by, created_at, updated_at`

// ReferralRepository handles persistence for referrals.
// Every read and write is scoped to the owning account in SQL.
type ReferralRepository struct {
	db *sql.DB
}

func NewReferralRepository(db *sql.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// ListByOwner returns the owner's referrals, newest first.
func (r *ReferralRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Referral, error) {
	const query = `
		SELECT ` + referralColumns + `
		FROM referrals
		WHERE referred_by = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	referrals := make([]types.Referral, 0)
	for rows.Next() {
		referral, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		referrals = append(referrals, referral)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return referrals, nil
}

// GetForOwner loads a referral only when it belongs to ownerID.
func (r *ReferralRepository) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (types.Referral, error) {
	const query = `
		SELECT ` + referralColumns + `
		FROM referrals
		WHERE id = $1 AND referred_by = $2`
	referral, err := scanReferral(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Referral{}, ErrNotFound
		}
		return types.Referral{}, err
	}
	return referral, nil
}

func (r *ReferralRepository) Create(ctx context.Context, referral types.Referral) (types.Referral, error) {
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	now := time.Now().UTC()
	referral.CreatedAt = now
	referral.UpdatedAt = now

	const query = `
		INSERT INTO referrals (id, name, email, experience, resume_url, status, referred_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		referral.ID,
		referral.Name,
		referral.Email,
		referral.Experience,
		referral.ResumeURL,
		referral.Status,
		referral.ReferredBy,
		referral.CreatedAt,
		referral.UpdatedAt,
	); err != nil {
		return types.Referral{}, err
	}
	return referral, nil
}

// UpdateStatusForOwner overwrites the status of a referral owned by ownerID
// in a single statement. It returns ErrNotFound when the referral is absent
// or owned by someone else.
func (r *ReferralRepository) UpdateStatusForOwner(ctx context.Context, id, ownerID uuid.UUID, status types.ReferralStatus) (types.Referral, error) {
	const query = `
		UPDATE referrals
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND referred_by = $4
		RETURNING ` + referralColumns
	referral, err := scanReferral(r.db.QueryRowContext(ctx, query, status, time.Now().UTC(), id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Referral{}, ErrNotFound
		}
		return types.Referral{}, err
	}
	return referral, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReferral(row rowScanner) (types.Referral, error) {
	var referral types.Referral
	var status string
	if err := row.Scan(
		&referral.ID,
		&referral.Name,
		&referral.Email,
		&referral.Experience,
		&referral.ResumeURL,
		&status,
		&referral.ReferredBy,
		&referral.CreatedAt,
		&referral.UpdatedAt,
	); err != nil {
		return types.Referral{}, err
	}
	referral.Status = types.ReferralStatus(status)
	return referral, nil
}
