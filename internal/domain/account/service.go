package account

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/mail"
	"github.com/medilink/medilink/internal/platform/password"
	"github.com/medilink/medilink/pkg/pagination"
)

// Service implements registration, verification, sessions and the approval
// gate for all three roles.
type Service struct {
	admins   AdminRepository
	doctors  DoctorRepository
	patients PatientRepository
	pending  PendingRegistrationRepository
	records  MedicalRecordRepository

	hasher password.Hasher
	mailer mail.Sender
	tokens *auth.Issuer

	adminEmailAllowed func(string) bool
	otpTTL            time.Duration
	logger            zerolog.Logger
}

// Deps bundles the service's collaborators.
type Deps struct {
	Admins   AdminRepository
	Doctors  DoctorRepository
	Patients PatientRepository
	Pending  PendingRegistrationRepository
	Records  MedicalRecordRepository

	Hasher password.Hasher
	Mailer mail.Sender
	Tokens *auth.Issuer

	// AdminEmailAllowed reports whether an email may register as admin,
	// normally config.Config.AdminEmailAllowed. Nil denies all admin
	// sign-ups.
	AdminEmailAllowed func(string) bool
	// OTPTTL bounds code validity. Zero disables expiry.
	OTPTTL time.Duration
	Logger zerolog.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		admins:            deps.Admins,
		doctors:           deps.Doctors,
		patients:          deps.Patients,
		pending:           deps.Pending,
		records:           deps.Records,
		hasher:            deps.Hasher,
		mailer:            deps.Mailer,
		tokens:            deps.Tokens,
		adminEmailAllowed: deps.AdminEmailAllowed,
		otpTTL:            deps.OTPTTL,
		logger:            deps.Logger,
	}
}

// Session is the result of a successful login or verification.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	StableID     string `json:"stable_id"`
	Role         string `json:"role"`
}

const otpDigits = 6

// generateOTP produces a zero-padded 6-digit code from crypto/rand.
func generateOTP() (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		bound.Mul(bound, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

func (s *Service) dispatchOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your verification code is %s.\n\nEnter this code to complete your registration.", code)
	if err := s.mailer.Send(ctx, email, "Your verification code", body); err != nil {
		// The staged row stays behind so a retry can reuse the flow.
		s.logger.Error().Err(err).Str("email", email).Msg("otp dispatch failed")
		return apperr.Unavailable("could not send verification email", err)
	}
	return nil
}

// -- Registration: patient --

func (s *Service) StartPatientRegistration(ctx context.Context, in PatientRegistration) error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.FullName == "" {
		return apperr.Validation("full_name is required", nil)
	}

	existing, err := s.patients.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	in.Password = hash

	staged, err := json.Marshal(in)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.pending.Upsert(ctx, &PendingRegistration{
		Email:   strings.ToLower(in.Email),
		Role:    auth.RolePatient,
		OTPCode: code,
		Staged:  staged,
	}); err != nil {
		return err
	}

	return s.dispatchOTP(ctx, in.Email, code)
}

// VerifyPatientOTP consumes a staged patient registration and materializes
// the account with a pending approval status.
func (s *Service) VerifyPatientOTP(ctx context.Context, email, code string) error {
	reg, err := s.consumeOTP(ctx, email, auth.RolePatient, code)
	if err != nil {
		return err
	}

	var in PatientRegistration
	if err := json.Unmarshal(reg.Staged, &in); err != nil {
		return fmt.Errorf("decode staged registration: %w", err)
	}

	p := &Patient{
		PatientID:      uuid.NewString(),
		Email:          strings.ToLower(in.Email),
		PasswordHash:   in.Password,
		FullName:       in.FullName,
		Gender:         in.Gender,
		DateOfBirth:    in.DateOfBirth,
		Phone:          in.Phone,
		ApprovalStatus: ApprovalPending,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	return s.pending.Delete(ctx, email, auth.RolePatient)
}

// -- Registration: admin --

func (s *Service) StartAdminRegistration(ctx context.Context, in AdminRegistration) error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Username == "" {
		return apperr.Validation("username is required", nil)
	}
	if s.adminEmailAllowed == nil || !s.adminEmailAllowed(in.Email) {
		return apperr.Auth("email is not authorized for admin registration")
	}

	existing, err := s.admins.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	in.Password = hash

	staged, err := json.Marshal(in)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.pending.Upsert(ctx, &PendingRegistration{
		Email:   strings.ToLower(in.Email),
		Role:    auth.RoleAdmin,
		OTPCode: code,
		Staged:  staged,
	}); err != nil {
		return err
	}

	return s.dispatchOTP(ctx, in.Email, code)
}

// VerifyAdminOTP materializes an admin account. Admins skip the approval
// gate; the allowlist already closed the set at registration time.
func (s *Service) VerifyAdminOTP(ctx context.Context, email, code string) error {
	reg, err := s.consumeOTP(ctx, email, auth.RoleAdmin, code)
	if err != nil {
		return err
	}

	var in AdminRegistration
	if err := json.Unmarshal(reg.Staged, &in); err != nil {
		return fmt.Errorf("decode staged registration: %w", err)
	}

	a := &Admin{
		AdminID:      uuid.NewString(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: in.Password,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return err
	}
	return s.pending.Delete(ctx, email, auth.RoleAdmin)
}

// -- Registration: doctor (two-step) --

// StartDoctorRegistration issues a code for a bare email. The payload
// arrives with RegisterDoctor.
func (s *Service) StartDoctorRegistration(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	existing, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("email already registered", nil)
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.pending.Upsert(ctx, &PendingRegistration{
		Email:   strings.ToLower(email),
		Role:    auth.RoleDoctor,
		OTPCode: code,
	}); err != nil {
		return err
	}

	return s.dispatchOTP(ctx, email, code)
}

// RegisterDoctor verifies the code and creates the doctor account in one
// step, pending admin approval.
func (s *Service) RegisterDoctor(ctx context.Context, in DoctorRegistration, code string) error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.FullName == "" {
		return apperr.Validation("full_name is required", nil)
	}

	if _, err := s.consumeOTP(ctx, in.Email, auth.RoleDoctor, code); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	d := &Doctor{
		DoctorID:        uuid.NewString(),
		Email:           strings.ToLower(in.Email),
		PasswordHash:    hash,
		FullName:        in.FullName,
		Phone:           in.Phone,
		Specialization:  in.Specialization,
		Qualification:   in.Qualification,
		RegistrationNo:  in.RegistrationNo,
		ExperienceYears: in.ExperienceYears,
		ApprovalStatus:  ApprovalPending,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return err
	}
	return s.pending.Delete(ctx, in.Email, auth.RoleDoctor)
}

// consumeOTP validates a staged code. A mismatch leaves the row untouched
// so the user can retry with the same code.
func (s *Service) consumeOTP(ctx context.Context, email string, role auth.Role, code string) (*PendingRegistration, error) {
	reg, err := s.pending.Get(ctx, strings.ToLower(email), role)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperr.NotFound("no pending registration for this email", nil)
	}
	if s.otpTTL > 0 && time.Since(reg.CreatedAt) > s.otpTTL {
		return nil, apperr.Validation("verification code has expired", nil)
	}
	if reg.OTPCode != code {
		return nil, apperr.Validation("invalid otp", nil)
	}
	return reg, nil
}

// -- Sessions --

func (s *Service) LoginPatient(ctx context.Context, email, pass string) (*Session, error) {
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil || !s.hasher.Verify(pass, p.PasswordHash) {
		return nil, apperr.Auth("invalid email or password")
	}
	return s.issueSession(p.PatientID, auth.RolePatient)
}

func (s *Service) LoginDoctor(ctx context.Context, email, pass string) (*Session, error) {
	d, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if d == nil || !s.hasher.Verify(pass, d.PasswordHash) {
		return nil, apperr.Auth("invalid email or password")
	}
	return s.issueSession(d.DoctorID, auth.RoleDoctor)
}

func (s *Service) LoginAdmin(ctx context.Context, email, pass string) (*Session, error) {
	a, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a == nil || !s.hasher.Verify(pass, a.PasswordHash) {
		return nil, apperr.Auth("invalid email or password")
	}
	return s.issueSession(a.AdminID, auth.RoleAdmin)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (*Session, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return s.issueSession(claims.Subject, claims.Role)
}

func (s *Service) issueSession(stableID string, role auth.Role) (*Session, error) {
	pair, err := s.tokens.IssueSession(stableID, role)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		StableID:     stableID,
		Role:         string(role),
	}, nil
}

// -- Dashboards --

func (s *Service) PatientDashboard(ctx context.Context, patientID string) (*Patient, error) {
	p, err := s.patients.GetByStableID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("patient not found", nil)
	}
	return p, nil
}

func (s *Service) DoctorDashboard(ctx context.Context, doctorID string) (*Doctor, error) {
	d, err := s.doctors.GetByStableID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("doctor not found", nil)
	}
	return d, nil
}

func (s *Service) AdminDashboard(ctx context.Context, adminID string) (*Admin, error) {
	a, err := s.admins.GetByStableID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("admin not found", nil)
	}
	return a, nil
}

// -- Approval gate --

// PendingDoctors returns one page of the approval queue plus the queue size.
func (s *Service) PendingDoctors(ctx context.Context, p pagination.Params) ([]*Doctor, int, error) {
	doctors, err := s.doctors.ListByStatus(ctx, ApprovalPending, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.doctors.CountByStatus(ctx, ApprovalPending)
	if err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (s *Service) PendingPatients(ctx context.Context, p pagination.Params) ([]*Patient, int, error) {
	patients, err := s.patients.ListByStatus(ctx, ApprovalPending, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.patients.CountByStatus(ctx, ApprovalPending)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (s *Service) ApproveDoctor(ctx context.Context, doctorID string) error {
	ok, err := s.doctors.SetStatus(ctx, doctorID, ApprovalApproved)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no pending doctor with that id", nil)
	}
	return nil
}

// RejectDoctor deletes the account outright; the original flow treats
// rejection as removal, and re-registration starts from scratch.
func (s *Service) RejectDoctor(ctx context.Context, doctorID string) error {
	ok, err := s.doctors.Delete(ctx, doctorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no doctor with that id", nil)
	}
	return nil
}

func (s *Service) ApprovePatient(ctx context.Context, patientID string) error {
	ok, err := s.patients.SetStatus(ctx, patientID, ApprovalApproved)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no pending patient with that id", nil)
	}
	return nil
}

func (s *Service) RejectPatient(ctx context.Context, patientID string) error {
	ok, err := s.patients.Delete(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no patient with that id", nil)
	}
	return nil
}

// VerifiedDoctors lists approved doctors for patient selection.
func (s *Service) VerifiedDoctors(ctx context.Context) ([]DoctorSummary, error) {
	doctors, err := s.doctors.ListByStatus(ctx, ApprovalApproved, 0, 0)
	if err != nil {
		return nil, err
	}
	summaries := make([]DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		summaries = append(summaries, DoctorSummary{
			DoctorID:       d.DoctorID,
			FullName:       d.FullName,
			Specialization: d.Specialization,
		})
	}
	return summaries, nil
}

// -- Medical history --

// AddMedicalRecord files a history entry for the patient. Only the
// condition is mandatory; the rest of the entry is free-form.
func (s *Service) AddMedicalRecord(ctx context.Context, patientID string, rec *MedicalRecord) (*MedicalRecord, error) {
	rec.Condition = strings.TrimSpace(rec.Condition)
	if rec.Condition == "" {
		return nil, apperr.Validation("condition is required", nil)
	}

	p, err := s.patients.GetByStableID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("patient not found", nil)
	}

	rec.PatientID = p.PatientID
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MedicalHistory lists the patient's history entries, newest first.
func (s *Service) MedicalHistory(ctx context.Context, patientID string) ([]*MedicalRecord, error) {
	return s.records.ListByPatient(ctx, patientID)
}

// AttachDoctorDocuments records verification upload paths on the account.
func (s *Service) AttachDoctorDocuments(ctx context.Context, email string, docs DoctorDocuments) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	ok, err := s.doctors.AttachDocuments(ctx, email, docs)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("no doctor with that email", nil)
	}
	return nil
}

// -- Validation --

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email is required", nil)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return apperr.Validation("email is invalid", nil)
	}
	return nil
}

func validatePassword(pass string) error {
	if len(pass) < 8 {
		return apperr.Validation("password must be at least 8 characters", nil)
	}
	return nil
}
