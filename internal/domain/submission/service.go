package submission

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/domain/account"
	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/classifier"
)

// Service runs the submission workflow: classify, persist, and serve both
// sides of the review queue.
type Service struct {
	repo     Repository
	doctors  account.DoctorRepository
	patients account.PatientRepository

	images   classifier.ImageClassifier
	symptoms classifier.SymptomClassifier
	vocab    *classifier.Vocabulary

	logger zerolog.Logger
}

// Deps bundles the service's collaborators.
type Deps struct {
	Repo     Repository
	Doctors  account.DoctorRepository
	Patients account.PatientRepository

	Images   classifier.ImageClassifier
	Symptoms classifier.SymptomClassifier
	Vocab    *classifier.Vocabulary

	Logger zerolog.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		repo:     deps.Repo,
		doctors:  deps.Doctors,
		patients: deps.Patients,
		images:   deps.Images,
		symptoms: deps.Symptoms,
		vocab:    deps.Vocab,
		logger:   deps.Logger,
	}
}

// ImageInput is a decoded image upload.
type ImageInput struct {
	FileName         string
	ContentType      string
	Data             []byte
	SelectedDoctorID string
}

// SymptomInput is a symptom assessment request.
type SymptomInput struct {
	Symptoms         []string
	SelectedDoctorID string
}

func digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// resolveDoctor validates an optional doctor selection against the approved
// directory.
func (s *Service) resolveDoctor(ctx context.Context, doctorID string) (*account.Doctor, error) {
	if doctorID == "" {
		return nil, nil
	}
	d, err := s.doctors.GetByStableID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.ApprovalStatus != account.ApprovalApproved {
		return nil, apperr.Validation("selected doctor is not available", nil)
	}
	return d, nil
}

// SubmitPatientImage classifies and records an image upload on behalf of a
// patient. A duplicate upload of identical bytes by the same patient is
// rejected at insert time.
func (s *Service) SubmitPatientImage(ctx context.Context, patientID string, in ImageInput) (*Submission, error) {
	if len(in.Data) == 0 {
		return nil, apperr.Validation("image payload is empty", nil)
	}

	p, err := s.patients.GetByStableID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("patient not found", nil)
	}

	doctor, err := s.resolveDoctor(ctx, in.SelectedDoctorID)
	if err != nil {
		return nil, err
	}

	pred, err := s.images.ClassifyImage(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, err
	}

	sub := &Submission{
		SubmissionID:        uuid.NewString(),
		Kind:                KindImage,
		PatientID:           &p.PatientID,
		PatientName:         p.FullName,
		PatientEmail:        p.Email,
		FileName:            &in.FileName,
		ContentType:         &in.ContentType,
		PayloadDigest:       digest(in.Data),
		DomainLabel:         &pred.Domain,
		DomainConfidence:    &pred.DomainConfidence,
		PredictedLabel:      &pred.Label,
		PredictedConfidence: &pred.Confidence,
		Status:              StatusPending,
		CreatedAt:           time.Now().UTC(),
	}
	if doctor != nil {
		sub.SelectedDoctorID = &doctor.DoctorID
		sub.SelectedDoctorName = &doctor.FullName
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SubmitDoctorImage records a doctor's self-analysis upload. It never enters
// a review queue; the digest is deduplicated per doctor.
func (s *Service) SubmitDoctorImage(ctx context.Context, doctorID string, in ImageInput) (*Submission, error) {
	if len(in.Data) == 0 {
		return nil, apperr.Validation("image payload is empty", nil)
	}

	d, err := s.doctors.GetByStableID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("doctor not found", nil)
	}

	pred, err := s.images.ClassifyImage(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, err
	}

	sub := &Submission{
		SubmissionID:        uuid.NewString(),
		Kind:                KindImage,
		PatientName:         d.FullName,
		PatientEmail:        d.Email,
		DoctorOwnerID:       &d.DoctorID,
		FileName:            &in.FileName,
		ContentType:         &in.ContentType,
		PayloadDigest:       digest(in.Data),
		DomainLabel:         &pred.Domain,
		DomainConfidence:    &pred.DomainConfidence,
		PredictedLabel:      &pred.Label,
		PredictedConfidence: &pred.Confidence,
		Status:              StatusPending,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// submitSymptoms encodes the presence vector and records the ranked output.
func (s *Service) submitSymptoms(ctx context.Context, owner *Submission, in SymptomInput) (*Submission, error) {
	cleaned := make([]string, 0, len(in.Symptoms))
	for _, sym := range in.Symptoms {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			cleaned = append(cleaned, sym)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperr.Validation("at least one symptom is required", nil)
	}
	if !s.vocab.Known(cleaned) {
		return nil, apperr.Validation("no recognized symptoms", nil)
	}

	ranked, err := s.symptoms.ClassifySymptoms(ctx, s.vocab.Encode(cleaned))
	if err != nil {
		return nil, err
	}

	owner.SubmissionID = uuid.NewString()
	owner.Kind = KindSymptoms
	owner.Symptoms = cleaned
	owner.Predictions = make([]Prediction, 0, len(ranked))
	for _, r := range ranked {
		owner.Predictions = append(owner.Predictions, Prediction{Disease: r.Label, Confidence: r.Confidence})
	}
	owner.Status = StatusPending
	owner.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, owner); err != nil {
		return nil, err
	}
	return owner, nil
}

func (s *Service) SubmitPatientSymptoms(ctx context.Context, patientID string, in SymptomInput) (*Submission, error) {
	p, err := s.patients.GetByStableID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("patient not found", nil)
	}

	doctor, err := s.resolveDoctor(ctx, in.SelectedDoctorID)
	if err != nil {
		return nil, err
	}

	owner := &Submission{
		PatientID:    &p.PatientID,
		PatientName:  p.FullName,
		PatientEmail: p.Email,
	}
	if doctor != nil {
		owner.SelectedDoctorID = &doctor.DoctorID
		owner.SelectedDoctorName = &doctor.FullName
	}
	return s.submitSymptoms(ctx, owner, in)
}

func (s *Service) SubmitDoctorSymptoms(ctx context.Context, doctorID string, in SymptomInput) (*Submission, error) {
	d, err := s.doctors.GetByStableID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("doctor not found", nil)
	}

	owner := &Submission{
		PatientName:   d.FullName,
		PatientEmail:  d.Email,
		DoctorOwnerID: &d.DoctorID,
	}
	return s.submitSymptoms(ctx, owner, in)
}

// PatientImageResults lists a patient's image history with advisory strings.
func (s *Service) PatientImageResults(ctx context.Context, patientID string) ([]ImageResult, error) {
	subs, err := s.repo.ListByPatient(ctx, patientID, KindImage)
	if err != nil {
		return nil, err
	}
	return imageResults(subs), nil
}

// PatientSymptomResults lists a patient's symptom assessments with the
// remedy advisory.
func (s *Service) PatientSymptomResults(ctx context.Context, patientID string) ([]SymptomResult, error) {
	subs, err := s.repo.ListByPatient(ctx, patientID, KindSymptoms)
	if err != nil {
		return nil, err
	}
	return symptomResults(subs), nil
}

// DoctorOwnImageResults lists the doctor's self-analysis image history with
// advisory strings.
func (s *Service) DoctorOwnImageResults(ctx context.Context, doctorID string) ([]ImageResult, error) {
	subs, err := s.repo.ListByDoctorOwner(ctx, doctorID, KindImage)
	if err != nil {
		return nil, err
	}
	return imageResults(subs), nil
}

// DoctorOwnSymptomResults lists the doctor's self-run symptom assessments.
func (s *Service) DoctorOwnSymptomResults(ctx context.Context, doctorID string) ([]SymptomResult, error) {
	subs, err := s.repo.ListByDoctorOwner(ctx, doctorID, KindSymptoms)
	if err != nil {
		return nil, err
	}
	return symptomResults(subs), nil
}

// DoctorImageRequests lists image submissions assigned to the doctor,
// pending and completed.
func (s *Service) DoctorImageRequests(ctx context.Context, doctorID string) ([]ImageResult, error) {
	subs, err := s.repo.ListBySelectedDoctor(ctx, doctorID, KindImage)
	if err != nil {
		return nil, err
	}
	return imageResults(subs), nil
}

// DoctorSymptomRequests lists symptom submissions assigned to the doctor.
func (s *Service) DoctorSymptomRequests(ctx context.Context, doctorID string) ([]SymptomResult, error) {
	subs, err := s.repo.ListBySelectedDoctor(ctx, doctorID, KindSymptoms)
	if err != nil {
		return nil, err
	}
	return symptomResults(subs), nil
}

// SubmitRecommendation records the doctor's text on a pending submission
// assigned to them, completing it. The write is a single conditional update;
// the follow-up read only disambiguates the failure for the caller.
func (s *Service) SubmitRecommendation(ctx context.Context, doctorID, submissionID string, kind Kind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.Validation("recommendation text is required", nil)
	}

	ok, err := s.repo.CompleteWithRecommendation(ctx, submissionID, doctorID, kind, text)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	sub, err := s.repo.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub == nil || sub.SelectedDoctorID == nil || *sub.SelectedDoctorID != doctorID || sub.Kind != kind {
		return apperr.NotFound("no such submission assigned to you", nil)
	}
	return apperr.Conflict("submission already completed", nil)
}

// NotificationCount returns the doctor's pending review count.
func (s *Service) NotificationCount(ctx context.Context, doctorID string) (int, error) {
	return s.repo.CountPendingForDoctor(ctx, doctorID)
}

// SubmitImageFeedback records a doctor's label correction on their own
// image submission, identified by payload digest.
func (s *Service) SubmitImageFeedback(ctx context.Context, doctorID string, data []byte, domain, label string) error {
	if len(data) == 0 {
		return apperr.Validation("image payload is empty", nil)
	}
	if !ValidFeedback(domain, label) {
		return apperr.Validation("invalid feedback domain or label", nil)
	}

	ok, err := s.repo.RecordFeedback(ctx, doctorID, digest(data), ImageFeedback{
		Domain:     domain,
		Label:      label,
		FeedbackAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no matching image submission for feedback", nil)
	}
	return nil
}

func imageResults(subs []*Submission) []ImageResult {
	results := make([]ImageResult, 0, len(subs))
	for _, sub := range subs {
		var label string
		var confidence float64
		if sub.PredictedLabel != nil {
			label = *sub.PredictedLabel
		}
		if sub.PredictedConfidence != nil {
			confidence = *sub.PredictedConfidence
		}
		var fileName string
		if sub.FileName != nil {
			fileName = *sub.FileName
		}
		results = append(results, ImageResult{
			SubmissionID:         sub.SubmissionID,
			FileName:             fileName,
			Prediction:           label,
			Confidence:           confidence,
			Medication:           ImageAdvisory(label, confidence),
			DoctorName:           sub.SelectedDoctorName,
			DoctorRecommendation: sub.DoctorRecommendation,
			Status:               sub.Status,
			SubmittedAt:          sub.CreatedAt.Format("2006-01-02"),
		})
	}
	return results
}

func symptomResults(subs []*Submission) []SymptomResult {
	results := make([]SymptomResult, 0, len(subs))
	for _, sub := range subs {
		medications, note := SymptomAdvisory(sub.Predictions)
		results = append(results, SymptomResult{
			SubmissionID:         sub.SubmissionID,
			Symptoms:             sub.Symptoms,
			TopPredictions:       sub.Predictions,
			Medications:          medications,
			AdvisoryNote:         note,
			DoctorName:           sub.SelectedDoctorName,
			DoctorRecommendation: sub.DoctorRecommendation,
			Status:               sub.Status,
			SubmittedAt:          sub.CreatedAt.Format("2006-01-02"),
		})
	}
	return results
}
