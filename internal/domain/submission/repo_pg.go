package submission

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/apperr"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const columns = `id, submission_id, kind, patient_id, patient_name, patient_email,
	doctor_owner_id, selected_doctor_id, selected_doctor_name,
	file_name, content_type, payload_digest, symptoms,
	domain_label, domain_confidence, predicted_label, predicted_confidence,
	predictions, status, doctor_recommendation, feedback, created_at`

func (r *repoPG) Create(ctx context.Context, sub *Submission) error {
	sub.ID = uuid.New()

	predictions, err := json.Marshal(sub.Predictions)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO submission (
			id, submission_id, kind, patient_id, patient_name, patient_email,
			doctor_owner_id, selected_doctor_id, selected_doctor_name,
			file_name, content_type, payload_digest, symptoms,
			domain_label, domain_confidence, predicted_label, predicted_confidence,
			predictions, status
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19
		)`,
		sub.ID, sub.SubmissionID, sub.Kind, sub.PatientID, sub.PatientName, sub.PatientEmail,
		sub.DoctorOwnerID, sub.SelectedDoctorID, sub.SelectedDoctorName,
		sub.FileName, sub.ContentType, sub.PayloadDigest, sub.Symptoms,
		sub.DomainLabel, sub.DomainConfidence, sub.PredictedLabel, sub.PredictedConfidence,
		predictions, sub.Status,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("identical file already submitted", err)
	}
	return err
}

func (r *repoPG) GetBySubmissionID(ctx context.Context, submissionID string) (*Submission, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM submission WHERE submission_id = $1`, submissionID))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, kind Kind) ([]*Submission, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM submission WHERE patient_id = $1 AND kind = $2 ORDER BY created_at DESC`,
		patientID, kind)
}

func (r *repoPG) ListByDoctorOwner(ctx context.Context, doctorID string, kind Kind) ([]*Submission, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM submission WHERE doctor_owner_id = $1 AND kind = $2 ORDER BY created_at DESC`,
		doctorID, kind)
}

func (r *repoPG) ListBySelectedDoctor(ctx context.Context, doctorID string, kind Kind) ([]*Submission, error) {
	return r.list(ctx,
		`SELECT `+columns+` FROM submission WHERE selected_doctor_id = $1 AND kind = $2 ORDER BY created_at DESC`,
		doctorID, kind)
}

func (r *repoPG) CompleteWithRecommendation(ctx context.Context, submissionID, doctorID string, kind Kind, text string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submission SET doctor_recommendation = $4, status = $5
		WHERE submission_id = $1 AND selected_doctor_id = $2 AND kind = $3 AND status = $6`,
		submissionID, doctorID, kind, text, StatusCompleted, StatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) CountPendingForDoctor(ctx context.Context, doctorID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submission WHERE selected_doctor_id = $1 AND status = $2`,
		doctorID, StatusPending,
	).Scan(&count)
	return count, err
}

func (r *repoPG) RecordFeedback(ctx context.Context, doctorID, digest string, fb ImageFeedback) (bool, error) {
	payload, err := json.Marshal(fb)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE submission SET feedback = $3
		WHERE doctor_owner_id = $1 AND payload_digest = $2 AND kind = $4`,
		doctorID, digest, payload, KindImage,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Submission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *repoPG) scan(row pgx.Row) (*Submission, error) {
	var sub Submission
	var predictions, feedback []byte
	err := row.Scan(
		&sub.ID, &sub.SubmissionID, &sub.Kind, &sub.PatientID, &sub.PatientName, &sub.PatientEmail,
		&sub.DoctorOwnerID, &sub.SelectedDoctorID, &sub.SelectedDoctorName,
		&sub.FileName, &sub.ContentType, &sub.PayloadDigest, &sub.Symptoms,
		&sub.DomainLabel, &sub.DomainConfidence, &sub.PredictedLabel, &sub.PredictedConfidence,
		&predictions, &sub.Status, &sub.DoctorRecommendation, &feedback, &sub.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(predictions) > 0 {
		if err := json.Unmarshal(predictions, &sub.Predictions); err != nil {
			return nil, err
		}
	}
	if len(feedback) > 0 {
		sub.Feedback = &ImageFeedback{}
		if err := json.Unmarshal(feedback, sub.Feedback); err != nil {
			return nil, err
		}
	}
	return &sub, nil
}
