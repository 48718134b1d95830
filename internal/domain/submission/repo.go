package submission

import "context"

// Repository persists submissions. Lookups return (nil, nil) on no match;
// duplicate payload digests per owner surface as apperr.Conflict from Create.
type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetBySubmissionID(ctx context.Context, submissionID string) (*Submission, error)
	ListByPatient(ctx context.Context, patientID string, kind Kind) ([]*Submission, error)
	ListByDoctorOwner(ctx context.Context, doctorID string, kind Kind) ([]*Submission, error)
	ListBySelectedDoctor(ctx context.Context, doctorID string, kind Kind) ([]*Submission, error)
	// CompleteWithRecommendation records the doctor's text and flips the row
	// to completed in one conditional update. Returns false when no pending
	// row matched (submission_id, doctor, kind).
	CompleteWithRecommendation(ctx context.Context, submissionID, doctorID string, kind Kind, text string) (bool, error)
	CountPendingForDoctor(ctx context.Context, doctorID string) (int, error)
	// RecordFeedback attaches a label correction to the doctor's own image
	// submission with the given digest. Returns false when none matched.
	RecordFeedback(ctx context.Context, doctorID, digest string, fb ImageFeedback) (bool, error)
}
