package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const verificationCols = `id, patient_id, contact_info, contact_type, otp_code, attempts, is_verified, expires_at, created_at`

func (r *repoPG) Create(ctx context.Context, v *Verification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO otp_verification (id, patient_id, contact_info, contact_type, otp_code, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		v.ID, v.PatientID, v.ContactInfo, v.ContactType, v.OTPCode, v.ExpiresAt)
	return err
}

func (r *repoPG) GetActive(ctx context.Context, patientID, contactInfo string, now time.Time) (*Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationCols+`
		FROM otp_verification
		WHERE patient_id = $1 AND contact_info = $2 AND is_verified = false AND expires_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`, patientID, contactInfo, now)

	var v Verification
	err := row.Scan(&v.ID, &v.PatientID, &v.ContactInfo, &v.ContactType, &v.OTPCode,
		&v.Attempts, &v.IsVerified, &v.ExpiresAt, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) DeleteByContact(ctx context.Context, patientID, contactInfo string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otp_verification WHERE patient_id = $1 AND contact_info = $2`,
		patientID, contactInfo)
	return err
}

func (r *repoPG) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otp_verification WHERE id = $1`, id)
	return err
}

func (r *repoPG) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE otp_verification SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}

func (r *repoPG) MarkVerified(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE otp_verification SET is_verified = true WHERE id = $1`, id)
	return err
}
