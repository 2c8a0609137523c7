package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SubmissionRepo handles confirmed issuance requests.
type SubmissionRepo struct {
	db *sql.DB
}

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

// Insert stores s. A zero CreatedAt is stamped with the current UTC second.
func (r *SubmissionRepo) Insert(ctx context.Context, s Submission) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO submissions(id, form_type, operator_id, broker_code, locale, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, s.ID, s.FormType, s.OperatorID, s.BrokerCode, s.Locale, s.Payload, created)
	return err
}

func (r *SubmissionRepo) Get(ctx context.Context, id string) (*Submission, error) {
	var s Submission
	err := r.db.QueryRowContext(ctx, `
	SELECT id, form_type, operator_id, broker_code, locale, payload, created_at
	FROM submissions WHERE id = ?`, id).
		Scan(&s.ID, &s.FormType, &s.OperatorID, &s.BrokerCode, &s.Locale, &s.Payload, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns submissions newest first.
func (r *SubmissionRepo) List(ctx context.Context) ([]Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, form_type, operator_id, broker_code, locale, payload, created_at
	FROM submissions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.FormType, &s.OperatorID, &s.BrokerCode, &s.Locale, &s.Payload, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
