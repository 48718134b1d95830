package account

import (
	"context"

	"github.com/medilink/medilink/internal/platform/auth"
)

// Repositories return (nil, nil) when a lookup finds no row; persistence
// failures are returned as errors. Unique violations surface as
// apperr.Conflict.

// AdminRepository defines the persistence interface for admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByStableID(ctx context.Context, adminID string) (*Admin, error)
}

// DoctorRepository defines the persistence interface for doctor accounts.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	GetByStableID(ctx context.Context, doctorID string) (*Doctor, error)
	// ListByStatus pages through accounts in creation order. A limit of
	// zero or less returns everything.
	ListByStatus(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Doctor, error)
	CountByStatus(ctx context.Context, status ApprovalStatus) (int, error)
	// SetStatus flips approval_status for a pending doctor. Returns false
	// when no pending row matched.
	SetStatus(ctx context.Context, doctorID string, status ApprovalStatus) (bool, error)
	// Delete removes the account. Returns false when no row matched.
	Delete(ctx context.Context, doctorID string) (bool, error)
	AttachDocuments(ctx context.Context, email string, docs DoctorDocuments) (bool, error)
}

// PatientRepository defines the persistence interface for patient accounts.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	GetByStableID(ctx context.Context, patientID string) (*Patient, error)
	ListByStatus(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Patient, error)
	CountByStatus(ctx context.Context, status ApprovalStatus) (int, error)
	SetStatus(ctx context.Context, patientID string, status ApprovalStatus) (bool, error)
	Delete(ctx context.Context, patientID string) (bool, error)
}

// MedicalRecordRepository persists patient history entries.
type MedicalRecordRepository interface {
	Create(ctx context.Context, rec *MedicalRecord) error
	ListByPatient(ctx context.Context, patientID string) ([]*MedicalRecord, error)
}

// PendingRegistrationRepository stages sign-ups awaiting code verification.
type PendingRegistrationRepository interface {
	Upsert(ctx context.Context, reg *PendingRegistration) error
	Get(ctx context.Context, email string, role auth.Role) (*PendingRegistration, error)
	Delete(ctx context.Context, email string, role auth.Role) error
}
