package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the account endpoints. authn is the Bearer token
// middleware; role guards are layered per group.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	patients := api.Group("/patients")
	patients.POST("/register", h.RegisterPatient)
	patients.POST("/verify-otp", h.VerifyPatientOTP)
	patients.POST("/login", h.LoginPatient)
	patients.GET("/doctors", h.VerifiedDoctors)

	patientAuth := patients.Group("", authn, auth.RequireRole(auth.RolePatient))
	patientAuth.GET("/dashboard", h.PatientDashboard)
	patientAuth.POST("/medical-info", h.AddMedicalRecord)
	patientAuth.GET("/medical-info", h.MedicalHistory)

	doctors := api.Group("/doctors")
	doctors.POST("/register-otp", h.StartDoctorRegistration)
	doctors.POST("/register", h.RegisterDoctor)
	doctors.POST("/login", h.LoginDoctor)
	doctors.POST("/documents", h.AttachDoctorDocuments)

	doctorAuth := doctors.Group("", authn, auth.RequireRole(auth.RoleDoctor))
	doctorAuth.GET("/dashboard", h.DoctorDashboard)

	admins := api.Group("/admins")
	admins.POST("/register", h.RegisterAdmin)
	admins.POST("/verify-otp", h.VerifyAdminOTP)
	admins.POST("/login", h.LoginAdmin)

	adminAuth := admins.Group("", authn, auth.RequireRole(auth.RoleAdmin))
	adminAuth.GET("/dashboard", h.AdminDashboard)
	adminAuth.GET("/doctors/pending", h.PendingDoctors)
	adminAuth.POST("/doctors/approve", h.ApproveDoctor)
	adminAuth.POST("/doctors/reject", h.RejectDoctor)
	adminAuth.GET("/patients/pending", h.PendingPatients)
	adminAuth.POST("/patients/approve", h.ApprovePatient)
	adminAuth.POST("/patients/reject", h.RejectPatient)

	api.POST("/auth/refresh", h.Refresh)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// -- Patient --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in PatientRegistration
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.StartPatientRegistration(c.Request().Context(), in); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

func (h *Handler) VerifyPatientOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VerifyPatientOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "registration complete, awaiting approval"})
}

func (h *Handler) LoginPatient(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.LoginPatient(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) PatientDashboard(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.PatientDashboard(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type medicalRecordRequest struct {
	Condition   string `json:"condition"`
	Medications string `json:"medications"`
	Allergies   string `json:"allergies"`
	Notes       string `json:"notes"`
}

func (h *Handler) AddMedicalRecord(c echo.Context) error {
	var req medicalRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientID := auth.UserIDFromContext(c.Request().Context())
	rec, err := h.svc.AddMedicalRecord(c.Request().Context(), patientID, &MedicalRecord{
		Condition:   req.Condition,
		Medications: req.Medications,
		Allergies:   req.Allergies,
		Notes:       req.Notes,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) MedicalHistory(c echo.Context) error {
	patientID := auth.UserIDFromContext(c.Request().Context())
	records, err := h.svc.MedicalHistory(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": records})
}

func (h *Handler) VerifiedDoctors(c echo.Context) error {
	doctors, err := h.svc.VerifiedDoctors(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

// -- Doctor --

type doctorOTPRequest struct {
	Email string `json:"email"`
}

func (h *Handler) StartDoctorRegistration(c echo.Context) error {
	var req doctorOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.StartDoctorRegistration(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

type doctorRegisterRequest struct {
	DoctorRegistration
	OTP string `json:"otp"`
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var req doctorRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterDoctor(c.Request().Context(), req.DoctorRegistration, req.OTP); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "registration complete, awaiting approval"})
}

func (h *Handler) LoginDoctor(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.LoginDoctor(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) DoctorDashboard(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	d, err := h.svc.DoctorDashboard(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type attachDocumentsRequest struct {
	Email string `json:"email"`
	DoctorDocuments
}

func (h *Handler) AttachDoctorDocuments(c echo.Context) error {
	var req attachDocumentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AttachDoctorDocuments(c.Request().Context(), req.Email, req.DoctorDocuments); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "documents recorded"})
}

// -- Admin --

func (h *Handler) RegisterAdmin(c echo.Context) error {
	var in AdminRegistration
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.StartAdminRegistration(c.Request().Context(), in); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

func (h *Handler) VerifyAdminOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VerifyAdminOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "registration complete"})
}

func (h *Handler) LoginAdmin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.LoginAdmin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) AdminDashboard(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	a, err := h.svc.AdminDashboard(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) PendingDoctors(c echo.Context) error {
	p := pagination.FromContext(c)
	doctors, total, err := h.svc.PendingDoctors(c.Request().Context(), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, p.Limit, p.Offset))
}

type doctorActionRequest struct {
	DoctorID string `json:"doctor_id"`
}

func (h *Handler) ApproveDoctor(c echo.Context) error {
	var req doctorActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ApproveDoctor(c.Request().Context(), req.DoctorID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "doctor approved"})
}

func (h *Handler) RejectDoctor(c echo.Context) error {
	var req doctorActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RejectDoctor(c.Request().Context(), req.DoctorID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "doctor rejected"})
}

func (h *Handler) PendingPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.PendingPatients(c.Request().Context(), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, p.Limit, p.Offset))
}

type patientActionRequest struct {
	PatientID string `json:"patient_id"`
}

func (h *Handler) ApprovePatient(c echo.Context) error {
	var req patientActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ApprovePatient(c.Request().Context(), req.PatientID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "patient approved"})
}

func (h *Handler) RejectPatient(c echo.Context) error {
	var req patientActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RejectPatient(c.Request().Context(), req.PatientID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "patient rejected"})
}

// -- Shared --

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.Refresh(req.RefreshToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}
