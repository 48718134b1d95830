package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/config"
	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/pkg/pagination"
)

// -- Mock Repositories --

type mockAdminRepo struct {
	admins map[string]*Admin // keyed by lowercased email
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: make(map[string]*Admin)}
}

func (m *mockAdminRepo) Create(_ context.Context, a *Admin) error {
	key := strings.ToLower(a.Email)
	if _, ok := m.admins[key]; ok {
		return apperr.Conflict("email already registered", nil)
	}
	a.CreatedAt = time.Now()
	m.admins[key] = a
	return nil
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (*Admin, error) {
	return m.admins[strings.ToLower(email)], nil
}

func (m *mockAdminRepo) GetByStableID(_ context.Context, adminID string) (*Admin, error) {
	for _, a := range m.admins {
		if a.AdminID == adminID {
			return a, nil
		}
	}
	return nil, nil
}

type mockDoctorRepo struct {
	doctors map[string]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[string]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	key := strings.ToLower(d.Email)
	if _, ok := m.doctors[key]; ok {
		return apperr.Conflict("email already registered", nil)
	}
	d.CreatedAt = time.Now()
	m.doctors[key] = d
	return nil
}

func (m *mockDoctorRepo) GetByEmail(_ context.Context, email string) (*Doctor, error) {
	return m.doctors[strings.ToLower(email)], nil
}

func (m *mockDoctorRepo) GetByStableID(_ context.Context, doctorID string) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.DoctorID == doctorID {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDoctorRepo) ListByStatus(_ context.Context, status ApprovalStatus, limit, offset int) ([]*Doctor, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if d.ApprovalStatus == status {
			result = append(result, d)
		}
	}
	return window(result, limit, offset), nil
}

func (m *mockDoctorRepo) CountByStatus(_ context.Context, status ApprovalStatus) (int, error) {
	count := 0
	for _, d := range m.doctors {
		if d.ApprovalStatus == status {
			count++
		}
	}
	return count, nil
}

func (m *mockDoctorRepo) SetStatus(_ context.Context, doctorID string, status ApprovalStatus) (bool, error) {
	for _, d := range m.doctors {
		if d.DoctorID == doctorID && d.ApprovalStatus == ApprovalPending {
			d.ApprovalStatus = status
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, doctorID string) (bool, error) {
	for key, d := range m.doctors {
		if d.DoctorID == doctorID {
			delete(m.doctors, key)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDoctorRepo) AttachDocuments(_ context.Context, email string, docs DoctorDocuments) (bool, error) {
	d, ok := m.doctors[strings.ToLower(email)]
	if !ok {
		return false, nil
	}
	d.DegreeCertificatePath = &docs.DegreeCertificatePath
	d.MedicalLicensePath = &docs.MedicalLicensePath
	d.ProfilePhotoPath = &docs.ProfilePhotoPath
	return true, nil
}

type mockPatientRepo struct {
	patients map[string]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	key := strings.ToLower(p.Email)
	if _, ok := m.patients[key]; ok {
		return apperr.Conflict("email already registered", nil)
	}
	p.CreatedAt = time.Now()
	m.patients[key] = p
	return nil
}

func (m *mockPatientRepo) GetByEmail(_ context.Context, email string) (*Patient, error) {
	return m.patients[strings.ToLower(email)], nil
}

func (m *mockPatientRepo) GetByStableID(_ context.Context, patientID string) (*Patient, error) {
	for _, p := range m.patients {
		if p.PatientID == patientID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPatientRepo) ListByStatus(_ context.Context, status ApprovalStatus, limit, offset int) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.patients {
		if p.ApprovalStatus == status {
			result = append(result, p)
		}
	}
	return window(result, limit, offset), nil
}

func (m *mockPatientRepo) CountByStatus(_ context.Context, status ApprovalStatus) (int, error) {
	count := 0
	for _, p := range m.patients {
		if p.ApprovalStatus == status {
			count++
		}
	}
	return count, nil
}

// window applies limit/offset the way the SQL implementations do.
func window[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (m *mockPatientRepo) SetStatus(_ context.Context, patientID string, status ApprovalStatus) (bool, error) {
	for _, p := range m.patients {
		if p.PatientID == patientID && p.ApprovalStatus == ApprovalPending {
			p.ApprovalStatus = status
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPatientRepo) Delete(_ context.Context, patientID string) (bool, error) {
	for key, p := range m.patients {
		if p.PatientID == patientID {
			delete(m.patients, key)
			return true, nil
		}
	}
	return false, nil
}

type mockMedicalRecordRepo struct {
	records []*MedicalRecord
}

func (m *mockMedicalRecordRepo) Create(_ context.Context, rec *MedicalRecord) error {
	rec.CreatedAt = time.Now()
	m.records = append(m.records, rec)
	return nil
}

// ListByPatient returns newest first, like the SQL implementation.
func (m *mockMedicalRecordRepo) ListByPatient(_ context.Context, patientID string) ([]*MedicalRecord, error) {
	var result []*MedicalRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].PatientID == patientID {
			result = append(result, m.records[i])
		}
	}
	return result, nil
}

type pendingKey struct {
	email string
	role  auth.Role
}

type mockPendingRepo struct {
	rows map[pendingKey]*PendingRegistration
}

func newMockPendingRepo() *mockPendingRepo {
	return &mockPendingRepo{rows: make(map[pendingKey]*PendingRegistration)}
}

func (m *mockPendingRepo) Upsert(_ context.Context, reg *PendingRegistration) error {
	reg.Email = strings.ToLower(reg.Email)
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	m.rows[pendingKey{reg.Email, reg.Role}] = reg
	return nil
}

func (m *mockPendingRepo) Get(_ context.Context, email string, role auth.Role) (*PendingRegistration, error) {
	return m.rows[pendingKey{strings.ToLower(email), role}], nil
}

func (m *mockPendingRepo) Delete(_ context.Context, email string, role auth.Role) error {
	delete(m.rows, pendingKey{strings.ToLower(email), role})
	return nil
}

// -- Fakes --

type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (fakeHasher) Verify(plaintext, digest string) bool  { return digest == "hashed:"+plaintext }

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	sent    []sentMail
	failErr error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

// -- Helpers --

type testEnv struct {
	svc      *Service
	admins   *mockAdminRepo
	doctors  *mockDoctorRepo
	patients *mockPatientRepo
	pending  *mockPendingRepo
	records  *mockMedicalRecordRepo
	mailer   *mockMailer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		admins:   newMockAdminRepo(),
		doctors:  newMockDoctorRepo(),
		patients: newMockPatientRepo(),
		pending:  newMockPendingRepo(),
		records:  &mockMedicalRecordRepo{},
		mailer:   &mockMailer{},
	}
	cfg := &config.Config{AllowedAdminEmails: []string{"root@clinic.example"}}
	env.svc = NewService(Deps{
		Admins:            env.admins,
		Doctors:           env.doctors,
		Patients:          env.patients,
		Pending:           env.pending,
		Records:           env.records,
		Hasher:            fakeHasher{},
		Mailer:            env.mailer,
		Tokens:            auth.NewIssuer([]byte("test-secret"), 15*time.Minute, time.Hour),
		AdminEmailAllowed: cfg.AdminEmailAllowed,
		Logger:            zerolog.Nop(),
	})
	return env
}

func (e *testEnv) stagedCode(t *testing.T, email string, role auth.Role) string {
	t.Helper()
	reg := e.pending.rows[pendingKey{strings.ToLower(email), role}]
	if reg == nil {
		t.Fatalf("no pending registration for %s/%s", email, role)
	}
	return reg.OTPCode
}

func patientInput() PatientRegistration {
	return PatientRegistration{
		FullName:    "Ann Example",
		Email:       "ann@example.com",
		Password:    "hunter2hunter2",
		Gender:      "female",
		DateOfBirth: "1990-04-02",
		Phone:       "555-0101",
	}
}

// -- Registration --

func TestStartPatientRegistration_StagesCodeAndSendsMail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg := env.pending.rows[pendingKey{"ann@example.com", auth.RolePatient}]
	if reg == nil {
		t.Fatal("expected a staged registration")
	}
	if len(reg.OTPCode) != 6 {
		t.Errorf("expected 6-digit code, got %q", reg.OTPCode)
	}
	if !strings.Contains(string(reg.Staged), "hashed:hunter2hunter2") {
		t.Error("staged payload should carry the password hash, not the plaintext")
	}
	if strings.Contains(string(reg.Staged), `"hunter2hunter2"`) {
		t.Error("staged payload must not carry the plaintext password")
	}

	if len(env.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(env.mailer.sent))
	}
	if env.mailer.sent[0].to != "ann@example.com" {
		t.Errorf("mail sent to %q", env.mailer.sent[0].to)
	}
	if !strings.Contains(env.mailer.sent[0].body, reg.OTPCode) {
		t.Error("mail body should contain the code")
	}

	// No account exists until the code is verified.
	if p, _ := env.patients.GetByEmail(ctx, "ann@example.com"); p != nil {
		t.Error("account must not exist before verification")
	}
}

func TestStartPatientRegistration_RegisteredEmailConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.patients.patients["ann@example.com"] = &Patient{PatientID: "p-1", Email: "ann@example.com"}

	err := env.svc.StartPatientRegistration(ctx, patientInput())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStartPatientRegistration_MailFailureLeavesStagedRow(t *testing.T) {
	env := newTestEnv()
	env.mailer.failErr = errors.New("smtp down")
	ctx := context.Background()

	err := env.svc.StartPatientRegistration(ctx, patientInput())
	if !apperr.IsKind(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if env.pending.rows[pendingKey{"ann@example.com", auth.RolePatient}] == nil {
		t.Error("staged row should survive a failed dispatch")
	}
}

func TestStartPatientRegistration_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	in := patientInput()
	in.Email = "not-an-email"
	if err := env.svc.StartPatientRegistration(ctx, in); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad email: expected validation error, got %v", err)
	}

	in = patientInput()
	in.Password = "short"
	if err := env.svc.StartPatientRegistration(ctx, in); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("short password: expected validation error, got %v", err)
	}
}

func TestVerifyPatientOTP_CreatesPendingAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "ann@example.com", auth.RolePatient)

	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	p, _ := env.patients.GetByEmail(ctx, "ann@example.com")
	if p == nil {
		t.Fatal("expected account after verification")
	}
	if p.ApprovalStatus != ApprovalPending {
		t.Errorf("expected pending approval, got %s", p.ApprovalStatus)
	}
	if p.PatientID == "" {
		t.Error("expected a stable patient id")
	}
	if env.pending.rows[pendingKey{"ann@example.com", auth.RolePatient}] != nil {
		t.Error("staged row should be consumed")
	}
}

func TestVerifyPatientOTP_WrongCodeKeepsRow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "ann@example.com", auth.RolePatient)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", wrong); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The row survives a bad guess; the real code still works.
	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", code); err != nil {
		t.Fatalf("retry with correct code failed: %v", err)
	}
}

func TestStartPatientRegistration_ReissueReplacesCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	first := env.stagedCode(t, "ann@example.com", auth.RolePatient)

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	second := env.stagedCode(t, "ann@example.com", auth.RolePatient)
	if first == second {
		t.Fatal("re-registration should stage a fresh code")
	}

	// The replaced code is dead; only the latest one verifies.
	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", first); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("old code: expected validation error, got %v", err)
	}
	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", second); err != nil {
		t.Fatalf("latest code failed: %v", err)
	}
}

func TestVerifyPatientOTP_NoStagedRow(t *testing.T) {
	env := newTestEnv()

	err := env.svc.VerifyPatientOTP(context.Background(), "ghost@example.com", "123456")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyPatientOTP_Expired(t *testing.T) {
	env := newTestEnv()
	env.svc.otpTTL = 10 * time.Minute
	ctx := context.Background()

	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	reg := env.pending.rows[pendingKey{"ann@example.com", auth.RolePatient}]
	reg.CreatedAt = time.Now().Add(-time.Hour)

	err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", reg.OTPCode)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for expired code, got %v", err)
	}
}

func TestStartAdminRegistration_AllowlistGate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.svc.StartAdminRegistration(ctx, AdminRegistration{
		Username: "eve", Email: "eve@clinic.example", Password: "longenough",
	})
	if !apperr.IsKind(err, apperr.KindAuth) {
		t.Fatalf("expected auth error for non-allowlisted email, got %v", err)
	}

	if err := env.svc.StartAdminRegistration(ctx, AdminRegistration{
		Username: "root", Email: "Root@Clinic.Example", Password: "longenough",
	}); err != nil {
		t.Fatalf("allowlisted email should pass (case-insensitive): %v", err)
	}
}

func TestVerifyAdminOTP_CreatesAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartAdminRegistration(ctx, AdminRegistration{
		Username: "root", Email: "root@clinic.example", Password: "longenough",
	}); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "root@clinic.example", auth.RoleAdmin)

	if err := env.svc.VerifyAdminOTP(ctx, "root@clinic.example", code); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	a, _ := env.admins.GetByEmail(ctx, "root@clinic.example")
	if a == nil || a.AdminID == "" {
		t.Fatal("expected admin account with stable id")
	}
}

func TestDoctorRegistration_TwoStep(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartDoctorRegistration(ctx, "doc@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "doc@example.com", auth.RoleDoctor)

	err := env.svc.RegisterDoctor(ctx, DoctorRegistration{
		FullName: "Dr. Gray", Email: "doc@example.com", Password: "longenough",
		Specialization: "dermatology", ExperienceYears: 7,
	}, code)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	d, _ := env.doctors.GetByEmail(ctx, "doc@example.com")
	if d == nil {
		t.Fatal("expected doctor account")
	}
	if d.ApprovalStatus != ApprovalPending {
		t.Errorf("expected pending approval, got %s", d.ApprovalStatus)
	}
}

func TestRegisterDoctor_WrongCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.svc.StartDoctorRegistration(ctx, "doc@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "doc@example.com", auth.RoleDoctor)
	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}

	err := env.svc.RegisterDoctor(ctx, DoctorRegistration{
		FullName: "Dr. Gray", Email: "doc@example.com", Password: "longenough",
	}, wrong)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d, _ := env.doctors.GetByEmail(ctx, "doc@example.com"); d != nil {
		t.Error("no account should exist after a failed verification")
	}
}

// -- Sessions --

func registeredPatient(t *testing.T, env *testEnv) *Patient {
	t.Helper()
	ctx := context.Background()
	if err := env.svc.StartPatientRegistration(ctx, patientInput()); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, "ann@example.com", auth.RolePatient)
	if err := env.svc.VerifyPatientOTP(ctx, "ann@example.com", code); err != nil {
		t.Fatal(err)
	}
	p, _ := env.patients.GetByEmail(ctx, "ann@example.com")
	return p
}

func TestLoginPatient(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	ctx := context.Background()

	session, err := env.svc.LoginPatient(ctx, "ann@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.StableID != p.PatientID {
		t.Errorf("session subject %q, want %q", session.StableID, p.PatientID)
	}
	if session.Role != string(auth.RolePatient) {
		t.Errorf("session role %q", session.Role)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Error("expected both tokens")
	}
}

func TestLoginPatient_PendingApprovalStillIssuesTokens(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	if p.ApprovalStatus != ApprovalPending {
		t.Fatal("precondition: patient should be pending")
	}

	if _, err := env.svc.LoginPatient(context.Background(), "ann@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("pending accounts may still log in: %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv()
	registeredPatient(t, env)
	ctx := context.Background()

	if _, err := env.svc.LoginPatient(ctx, "ann@example.com", "wrong-password"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("wrong password: expected auth error, got %v", err)
	}
	if _, err := env.svc.LoginPatient(ctx, "ghost@example.com", "whatever"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("unknown email: expected auth error, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv()
	registeredPatient(t, env)
	ctx := context.Background()

	session, err := env.svc.LoginPatient(ctx, "ann@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}

	renewed, err := env.svc.Refresh(session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if renewed.StableID != session.StableID || renewed.Role != session.Role {
		t.Error("refresh must preserve subject and role")
	}

	// An access token is not a refresh token.
	if _, err := env.svc.Refresh(session.AccessToken); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("expected auth error refreshing with access token, got %v", err)
	}
}

// -- Approval gate --

func pendingDoctor(t *testing.T, env *testEnv, email string) *Doctor {
	t.Helper()
	ctx := context.Background()
	if err := env.svc.StartDoctorRegistration(ctx, email); err != nil {
		t.Fatal(err)
	}
	code := env.stagedCode(t, email, auth.RoleDoctor)
	if err := env.svc.RegisterDoctor(ctx, DoctorRegistration{
		FullName: "Dr. " + email, Email: email, Password: "longenough",
	}, code); err != nil {
		t.Fatal(err)
	}
	d, _ := env.doctors.GetByEmail(ctx, email)
	return d
}

func TestApproveDoctor(t *testing.T) {
	env := newTestEnv()
	d := pendingDoctor(t, env, "doc@example.com")
	ctx := context.Background()

	if err := env.svc.ApproveDoctor(ctx, d.DoctorID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if d.ApprovalStatus != ApprovalApproved {
		t.Errorf("status %s after approve", d.ApprovalStatus)
	}

	// A second approval finds no pending row.
	if err := env.svc.ApproveDoctor(ctx, d.DoctorID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found on re-approve, got %v", err)
	}
}

func TestApproveDoctor_Unknown(t *testing.T) {
	env := newTestEnv()
	err := env.svc.ApproveDoctor(context.Background(), "nope")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectDoctor_DeletesAccount(t *testing.T) {
	env := newTestEnv()
	d := pendingDoctor(t, env, "doc@example.com")
	ctx := context.Background()

	if err := env.svc.RejectDoctor(ctx, d.DoctorID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got, _ := env.doctors.GetByEmail(ctx, "doc@example.com"); got != nil {
		t.Error("rejected doctor should be deleted")
	}

	// Rejection frees the email for a fresh registration.
	if err := env.svc.StartDoctorRegistration(ctx, "doc@example.com"); err != nil {
		t.Errorf("re-registration after rejection should work: %v", err)
	}
}

func TestPendingDoctors_Paged(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	pendingDoctor(t, env, "a@example.com")
	pendingDoctor(t, env, "b@example.com")
	pendingDoctor(t, env, "c@example.com")

	page, total, err := env.svc.PendingDoctors(ctx, pagination.Params{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("total %d, want 3", total)
	}
	if len(page) != 2 {
		t.Errorf("page size %d, want 2", len(page))
	}

	rest, _, err := env.svc.PendingDoctors(ctx, pagination.Params{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("second page size %d, want 1", len(rest))
	}
}

func TestVerifiedDoctors_OnlyApproved(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	approved := pendingDoctor(t, env, "yes@example.com")
	pendingDoctor(t, env, "no@example.com")
	if err := env.svc.ApproveDoctor(ctx, approved.DoctorID); err != nil {
		t.Fatal(err)
	}

	list, err := env.svc.VerifiedDoctors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 verified doctor, got %d", len(list))
	}
	if list[0].DoctorID != approved.DoctorID {
		t.Errorf("unexpected doctor %q", list[0].DoctorID)
	}
}

func TestApprovePatient_AndReject(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	ctx := context.Background()

	if err := env.svc.ApprovePatient(ctx, p.PatientID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if p.ApprovalStatus != ApprovalApproved {
		t.Errorf("status %s after approve", p.ApprovalStatus)
	}

	if err := env.svc.RejectPatient(ctx, p.PatientID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got, _ := env.patients.GetByEmail(ctx, "ann@example.com"); got != nil {
		t.Error("rejected patient should be deleted")
	}
}

func TestAttachDoctorDocuments(t *testing.T) {
	env := newTestEnv()
	d := pendingDoctor(t, env, "doc@example.com")
	ctx := context.Background()

	err := env.svc.AttachDoctorDocuments(ctx, "doc@example.com", DoctorDocuments{
		DegreeCertificatePath: "/files/degree.pdf",
		MedicalLicensePath:    "/files/license.pdf",
	})
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if d.DegreeCertificatePath == nil || *d.DegreeCertificatePath != "/files/degree.pdf" {
		t.Error("degree path not recorded")
	}

	err = env.svc.AttachDoctorDocuments(ctx, "ghost@example.com", DoctorDocuments{})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown email, got %v", err)
	}
}

// -- Medical history --

func TestAddMedicalRecord(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	ctx := context.Background()

	rec, err := env.svc.AddMedicalRecord(ctx, p.PatientID, &MedicalRecord{
		Condition:   "asthma",
		Medications: "salbutamol inhaler",
		Allergies:   "penicillin",
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if rec.PatientID != p.PatientID {
		t.Errorf("record owner %q, want %q", rec.PatientID, p.PatientID)
	}

	_, err = env.svc.AddMedicalRecord(ctx, p.PatientID, &MedicalRecord{Condition: "   "})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("blank condition: expected validation error, got %v", err)
	}

	_, err = env.svc.AddMedicalRecord(ctx, "ghost", &MedicalRecord{Condition: "asthma"})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown patient: expected not found, got %v", err)
	}
}

func TestMedicalHistory_OwnRecordsOnly(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	ctx := context.Background()

	env.patients.patients["bob@example.com"] = &Patient{PatientID: "p-bob", Email: "bob@example.com"}

	if _, err := env.svc.AddMedicalRecord(ctx, p.PatientID, &MedicalRecord{Condition: "asthma"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.AddMedicalRecord(ctx, p.PatientID, &MedicalRecord{Condition: "eczema"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.AddMedicalRecord(ctx, "p-bob", &MedicalRecord{Condition: "migraine"}); err != nil {
		t.Fatal(err)
	}

	history, err := env.svc.MedicalHistory(ctx, p.PatientID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].Condition != "eczema" {
		t.Errorf("expected newest first, got %q", history[0].Condition)
	}
	for _, rec := range history {
		if rec.PatientID != p.PatientID {
			t.Errorf("foreign record %q in history", rec.PatientID)
		}
	}
}

func TestDashboards(t *testing.T) {
	env := newTestEnv()
	p := registeredPatient(t, env)
	ctx := context.Background()

	got, err := env.svc.PatientDashboard(ctx, p.PatientID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if got.FullName != "Ann Example" {
		t.Errorf("dashboard name %q", got.FullName)
	}

	if _, err := env.svc.PatientDashboard(ctx, "nope"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
