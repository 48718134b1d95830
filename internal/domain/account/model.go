package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/medilink/medilink/internal/platform/auth"
)

// ApprovalStatus is the admin-driven account lifecycle state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Admin maps to the admin_account table.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AdminID      string    `db:"admin_id" json:"admin_id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Doctor maps to the doctor_account table.
type Doctor struct {
	ID                    uuid.UUID      `db:"id" json:"id"`
	DoctorID              string         `db:"doctor_id" json:"doctor_id"`
	Email                 string         `db:"email" json:"email"`
	PasswordHash          string         `db:"password_hash" json:"-"`
	FullName              string         `db:"full_name" json:"full_name"`
	Phone                 string         `db:"phone" json:"phone"`
	Specialization        string         `db:"specialization" json:"specialization"`
	Qualification         string         `db:"qualification" json:"qualification"`
	RegistrationNo        string         `db:"registration_no" json:"registration_no"`
	ExperienceYears       int            `db:"experience_years" json:"experience_years"`
	DegreeCertificatePath *string        `db:"degree_certificate_path" json:"degree_certificate_path,omitempty"`
	MedicalLicensePath    *string        `db:"medical_license_path" json:"medical_license_path,omitempty"`
	ProfilePhotoPath      *string        `db:"profile_photo_path" json:"profile_photo_path,omitempty"`
	ApprovalStatus        ApprovalStatus `db:"approval_status" json:"approval_status"`
	PatientCount          int            `db:"patient_count" json:"patient_count"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
}

// Patient maps to the patient_account table.
type Patient struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	PatientID      string         `db:"patient_id" json:"patient_id"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	FullName       string         `db:"full_name" json:"full_name"`
	Gender         string         `db:"gender" json:"gender"`
	DateOfBirth    string         `db:"date_of_birth" json:"date_of_birth"`
	Phone          string         `db:"phone" json:"phone"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// PendingRegistration maps to the pending_registration table. One row per
// (email, role); a fresh registration attempt replaces the code and staged
// payload for that pair.
type PendingRegistration struct {
	Email     string    `db:"email"`
	Role      auth.Role `db:"role"`
	OTPCode   string    `db:"otp_code"`
	Staged    []byte    `db:"staged"`
	CreatedAt time.Time `db:"created_at"`
}

// AdminRegistration is the staged admin sign-up payload.
type AdminRegistration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PatientRegistration is the staged patient sign-up payload.
type PatientRegistration struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
}

// DoctorRegistration is the doctor sign-up payload. Doctors request a code
// for a bare email first and carry the full payload on the second step.
type DoctorRegistration struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Phone           string `json:"phone"`
	Specialization  string `json:"specialization"`
	Qualification   string `json:"qualification"`
	RegistrationNo  string `json:"registration_no"`
	ExperienceYears int    `json:"experience_years"`
}

// DoctorDocuments holds stored file paths for doctor verification uploads.
type DoctorDocuments struct {
	DegreeCertificatePath string `json:"degree_certificate_path"`
	MedicalLicensePath    string `json:"medical_license_path"`
	ProfilePhotoPath      string `json:"profile_photo_path"`
}

// MedicalRecord maps to the patient_medical_record table. A free-form
// history entry the patient files outside the classifier workflows.
type MedicalRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	Condition   string    `db:"condition" json:"condition"`
	Medications string    `db:"medications" json:"medications,omitempty"`
	Allergies   string    `db:"allergies" json:"allergies,omitempty"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DoctorSummary is the directory entry patients pick a doctor from.
type DoctorSummary struct {
	DoctorID       string `json:"doctor_id"`
	FullName       string `json:"full_name"`
	Specialization string `json:"specialization"`
}
