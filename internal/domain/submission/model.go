package submission

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two submission variants.
type Kind string

const (
	KindImage    Kind = "image"
	KindSymptoms Kind = "symptoms"
)

// Status is the review lifecycle state. A submission is pending until its
// assigned doctor files a recommendation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Prediction is one ranked symptom-model output.
type Prediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// ImageFeedback is a doctor's label correction on their own image
// submission, collected for retraining.
type ImageFeedback struct {
	Domain     string    `json:"domain"`
	Label      string    `json:"label"`
	FeedbackAt time.Time `json:"feedback_at"`
}

// Submission maps to the submission table. Image rows populate the file and
// classifier columns; symptom rows populate symptoms and predictions.
// Exactly one of PatientID and DoctorOwnerID is set: doctors can run
// self-analysis uploads that never enter a review queue.
type Submission struct {
	ID                   uuid.UUID     `db:"id" json:"id"`
	SubmissionID         string        `db:"submission_id" json:"submission_id"`
	Kind                 Kind          `db:"kind" json:"kind"`
	PatientID            *string       `db:"patient_id" json:"patient_id,omitempty"`
	PatientName          string        `db:"patient_name" json:"patient_name"`
	PatientEmail         string        `db:"patient_email" json:"patient_email"`
	DoctorOwnerID        *string       `db:"doctor_owner_id" json:"doctor_owner_id,omitempty"`
	SelectedDoctorID     *string       `db:"selected_doctor_id" json:"selected_doctor_id,omitempty"`
	SelectedDoctorName   *string       `db:"selected_doctor_name" json:"selected_doctor_name,omitempty"`
	FileName             *string       `db:"file_name" json:"file_name,omitempty"`
	ContentType          *string       `db:"content_type" json:"content_type,omitempty"`
	PayloadDigest        string        `db:"payload_digest" json:"-"`
	Symptoms             []string      `db:"symptoms" json:"symptoms,omitempty"`
	DomainLabel          *string       `db:"domain_label" json:"domain_label,omitempty"`
	DomainConfidence     *float64      `db:"domain_confidence" json:"domain_confidence,omitempty"`
	PredictedLabel       *string       `db:"predicted_label" json:"predicted_label,omitempty"`
	PredictedConfidence  *float64      `db:"predicted_confidence" json:"predicted_confidence,omitempty"`
	Predictions          []Prediction  `db:"predictions" json:"predictions,omitempty"`
	Status               Status        `db:"status" json:"status"`
	DoctorRecommendation *string       `db:"doctor_recommendation" json:"doctor_recommendation,omitempty"`
	Feedback             *ImageFeedback `db:"feedback" json:"feedback,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
}

// ImageResult is a patient-facing history entry with the advisory attached.
type ImageResult struct {
	SubmissionID         string   `json:"submission_id"`
	FileName             string   `json:"file_name"`
	Prediction           string   `json:"prediction"`
	Confidence           float64  `json:"confidence"`
	Medication           string   `json:"medication"`
	DoctorName           *string  `json:"doctor_name,omitempty"`
	DoctorRecommendation *string  `json:"doctor_recommendation,omitempty"`
	Status               Status   `json:"status"`
	SubmittedAt          string   `json:"submitted_at"`
}

// SymptomResult is a patient-facing symptom assessment entry.
type SymptomResult struct {
	SubmissionID         string       `json:"submission_id"`
	Symptoms             []string     `json:"symptoms"`
	TopPredictions       []Prediction `json:"top_predictions"`
	Medications          []Medication `json:"medications,omitempty"`
	AdvisoryNote         string       `json:"advisory_note,omitempty"`
	DoctorName           *string      `json:"doctor_name,omitempty"`
	DoctorRecommendation *string      `json:"doctor_recommendation,omitempty"`
	Status               Status       `json:"status"`
	SubmittedAt          string       `json:"submitted_at"`
}
