package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/auth"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// -- Admin Repository --

type adminRepoPG struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) AdminRepository {
	return &adminRepoPG{pool: pool}
}

const adminColumns = `id, admin_id, username, email, password_hash, created_at`

func (r *adminRepoPG) Create(ctx context.Context, a *Admin) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_account (id, admin_id, username, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.AdminID, a.Username, a.Email, a.PasswordHash,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("email already registered", err)
	}
	return err
}

func (r *adminRepoPG) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admin_account WHERE lower(email) = lower($1)`, email))
}

func (r *adminRepoPG) GetByStableID(ctx context.Context, adminID string) (*Admin, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admin_account WHERE admin_id = $1`, adminID))
}

func (r *adminRepoPG) scan(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.AdminID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorColumns = `id, doctor_id, email, password_hash, full_name, phone,
	specialization, qualification, registration_no, experience_years,
	degree_certificate_path, medical_license_path, profile_photo_path,
	approval_status, patient_count, created_at`

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_account (
			id, doctor_id, email, password_hash, full_name, phone,
			specialization, qualification, registration_no, experience_years,
			approval_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.DoctorID, d.Email, d.PasswordHash, d.FullName, d.Phone,
		d.Specialization, d.Qualification, d.RegistrationNo, d.ExperienceYears,
		d.ApprovalStatus,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("email already registered", err)
	}
	return err
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctor_account WHERE lower(email) = lower($1)`, email))
}

func (r *doctorRepoPG) GetByStableID(ctx context.Context, doctorID string) (*Doctor, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctor_account WHERE doctor_id = $1`, doctorID))
}

func (r *doctorRepoPG) ListByStatus(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctor_account WHERE approval_status = $1 ORDER BY created_at`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorRepoPG) CountByStatus(ctx context.Context, status ApprovalStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctor_account WHERE approval_status = $1`, status).Scan(&count)
	return count, err
}

func (r *doctorRepoPG) SetStatus(ctx context.Context, doctorID string, status ApprovalStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor_account SET approval_status = $2
		WHERE doctor_id = $1 AND approval_status = $3`,
		doctorID, status, ApprovalPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, doctorID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctor_account WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *doctorRepoPG) AttachDocuments(ctx context.Context, email string, docs DoctorDocuments) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor_account SET
			degree_certificate_path = $2,
			medical_license_path = $3,
			profile_photo_path = $4
		WHERE lower(email) = lower($1)`,
		email, docs.DegreeCertificatePath, docs.MedicalLicensePath, docs.ProfilePhotoPath,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *doctorRepoPG) scan(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.DoctorID, &d.Email, &d.PasswordHash, &d.FullName, &d.Phone,
		&d.Specialization, &d.Qualification, &d.RegistrationNo, &d.ExperienceYears,
		&d.DegreeCertificatePath, &d.MedicalLicensePath, &d.ProfilePhotoPath,
		&d.ApprovalStatus, &d.PatientCount, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientColumns = `id, patient_id, email, password_hash, full_name, gender,
	date_of_birth, phone, approval_status, created_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient_account (
			id, patient_id, email, password_hash, full_name, gender,
			date_of_birth, phone, approval_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.PatientID, p.Email, p.PasswordHash, p.FullName, p.Gender,
		p.DateOfBirth, p.Phone, p.ApprovalStatus,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("email already registered", err)
	}
	return err
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient_account WHERE lower(email) = lower($1)`, email))
}

func (r *patientRepoPG) GetByStableID(ctx context.Context, patientID string) (*Patient, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient_account WHERE patient_id = $1`, patientID))
}

func (r *patientRepoPG) ListByStatus(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patient_account WHERE approval_status = $1 ORDER BY created_at`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) CountByStatus(ctx context.Context, status ApprovalStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_account WHERE approval_status = $1`, status).Scan(&count)
	return count, err
}

func (r *patientRepoPG) SetStatus(ctx context.Context, patientID string, status ApprovalStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient_account SET approval_status = $2
		WHERE patient_id = $1 AND approval_status = $3`,
		patientID, status, ApprovalPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) Delete(ctx context.Context, patientID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient_account WHERE patient_id = $1`, patientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientID, &p.Email, &p.PasswordHash, &p.FullName, &p.Gender,
		&p.DateOfBirth, &p.Phone, &p.ApprovalStatus, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Medical Record Repository --

type medicalRecordRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicalRecordRepo(pool *pgxpool.Pool) MedicalRecordRepository {
	return &medicalRecordRepoPG{pool: pool}
}

func (r *medicalRecordRepoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient_medical_record (id, patient_id, condition, medications, allergies, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.Condition, rec.Medications, rec.Allergies, rec.Notes,
	).Scan(&rec.CreatedAt)
}

func (r *medicalRecordRepoPG) ListByPatient(ctx context.Context, patientID string) ([]*MedicalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, condition, medications, allergies, notes, created_at
		FROM patient_medical_record WHERE patient_id = $1 ORDER BY created_at DESC`,
		patientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		var rec MedicalRecord
		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.Condition, &rec.Medications,
			&rec.Allergies, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// -- Pending Registration Repository --

type pendingRepoPG struct {
	pool *pgxpool.Pool
}

func NewPendingRegistrationRepo(pool *pgxpool.Pool) PendingRegistrationRepository {
	return &pendingRepoPG{pool: pool}
}

func (r *pendingRepoPG) Upsert(ctx context.Context, reg *PendingRegistration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_registration (email, role, otp_code, staged, created_at)
		VALUES (lower($1), $2, $3, $4, NOW())
		ON CONFLICT (email, role) DO UPDATE
		SET otp_code = EXCLUDED.otp_code, staged = EXCLUDED.staged, created_at = NOW()`,
		reg.Email, reg.Role, reg.OTPCode, reg.Staged,
	)
	return err
}

func (r *pendingRepoPG) Get(ctx context.Context, email string, role auth.Role) (*PendingRegistration, error) {
	var reg PendingRegistration
	err := r.pool.QueryRow(ctx, `
		SELECT email, role, otp_code, staged, created_at
		FROM pending_registration WHERE email = lower($1) AND role = $2`,
		email, role,
	).Scan(&reg.Email, &reg.Role, &reg.OTPCode, &reg.Staged, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *pendingRepoPG) Delete(ctx context.Context, email string, role auth.Role) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM pending_registration WHERE email = lower($1) AND role = $2`, email, role)
	return err
}
