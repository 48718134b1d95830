package submission

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medilink/medilink/internal/platform/apperr"
	"github.com/medilink/medilink/internal/platform/auth"
)

// maxImageBytes bounds a single upload read.
const maxImageBytes = 10 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the submission endpoints onto the role groups.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	patients := api.Group("/patients", authn, auth.RequireRole(auth.RolePatient))
	patients.POST("/images", h.SubmitPatientImage)
	patients.GET("/images", h.PatientImageResults)
	patients.POST("/symptoms", h.SubmitPatientSymptoms)
	patients.GET("/symptoms", h.PatientSymptomResults)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/notifications", h.NotificationCount)
	doctors.POST("/images", h.SubmitDoctorImage)
	doctors.GET("/images", h.DoctorOwnImageResults)
	doctors.POST("/image-feedback", h.SubmitImageFeedback)
	doctors.POST("/symptoms", h.SubmitDoctorSymptoms)
	doctors.GET("/symptoms", h.DoctorOwnSymptomResults)
	doctors.GET("/image-requests", h.DoctorImageRequests)
	doctors.GET("/symptom-requests", h.DoctorSymptomRequests)
	doctors.POST("/recommendations/image", h.RecommendImage)
	doctors.POST("/recommendations/symptoms", h.RecommendSymptoms)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
}

// readImageForm extracts the uploaded file from a multipart request.
func readImageForm(c echo.Context) (fileName, contentType string, data []byte, err error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", "", nil, echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	if fh.Size > maxImageBytes {
		return "", "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", nil, echo.NewHTTPError(http.StatusBadRequest, "could not read image")
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return "", "", nil, echo.NewHTTPError(http.StatusBadRequest, "could not read image")
	}
	if len(data) > maxImageBytes {
		return "", "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}

// -- Patient --

func (h *Handler) SubmitPatientImage(c echo.Context) error {
	fileName, contentType, data, err := readImageForm(c)
	if err != nil {
		return err
	}
	in := ImageInput{
		FileName:         fileName,
		ContentType:      contentType,
		Data:             data,
		SelectedDoctorID: c.FormValue("selected_doctor_id"),
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	sub, err := h.svc.SubmitPatientImage(c.Request().Context(), patientID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) PatientImageResults(c echo.Context) error {
	patientID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.PatientImageResults(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"classifications": results})
}

type symptomRequest struct {
	Symptoms         []string `json:"symptoms"`
	SelectedDoctorID string   `json:"selected_doctor_id"`
}

func (h *Handler) SubmitPatientSymptoms(c echo.Context) error {
	var req symptomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patientID := auth.UserIDFromContext(c.Request().Context())
	sub, err := h.svc.SubmitPatientSymptoms(c.Request().Context(), patientID, SymptomInput{
		Symptoms:         req.Symptoms,
		SelectedDoctorID: req.SelectedDoctorID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) PatientSymptomResults(c echo.Context) error {
	patientID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.PatientSymptomResults(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"assessments": results})
}

// -- Doctor --

func (h *Handler) NotificationCount(c echo.Context) error {
	doctorID := auth.UserIDFromContext(c.Request().Context())
	count, err := h.svc.NotificationCount(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"notify_count": count})
}

func (h *Handler) SubmitDoctorImage(c echo.Context) error {
	fileName, contentType, data, err := readImageForm(c)
	if err != nil {
		return err
	}
	doctorID := auth.UserIDFromContext(c.Request().Context())
	sub, err := h.svc.SubmitDoctorImage(c.Request().Context(), doctorID, ImageInput{
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) DoctorOwnImageResults(c echo.Context) error {
	doctorID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.DoctorOwnImageResults(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"classifications": results})
}

func (h *Handler) DoctorOwnSymptomResults(c echo.Context) error {
	doctorID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.DoctorOwnSymptomResults(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"assessments": results})
}

func (h *Handler) SubmitImageFeedback(c echo.Context) error {
	_, _, data, err := readImageForm(c)
	if err != nil {
		return err
	}
	doctorID := auth.UserIDFromContext(c.Request().Context())
	domain := c.FormValue("domain")
	label := c.FormValue("label")

	if err := h.svc.SubmitImageFeedback(c.Request().Context(), doctorID, data, domain, label); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "feedback recorded"})
}

func (h *Handler) SubmitDoctorSymptoms(c echo.Context) error {
	var req symptomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doctorID := auth.UserIDFromContext(c.Request().Context())
	sub, err := h.svc.SubmitDoctorSymptoms(c.Request().Context(), doctorID, SymptomInput{
		Symptoms: req.Symptoms,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) DoctorImageRequests(c echo.Context) error {
	doctorID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.DoctorImageRequests(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"requests": results})
}

func (h *Handler) DoctorSymptomRequests(c echo.Context) error {
	doctorID := auth.UserIDFromContext(c.Request().Context())
	results, err := h.svc.DoctorSymptomRequests(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"requests": results})
}

type recommendationRequest struct {
	SubmissionID   string `json:"submission_id"`
	Recommendation string `json:"recommendation"`
}

func (h *Handler) RecommendImage(c echo.Context) error {
	return h.recommend(c, KindImage)
}

func (h *Handler) RecommendSymptoms(c echo.Context) error {
	return h.recommend(c, KindSymptoms)
}

func (h *Handler) recommend(c echo.Context, kind Kind) error {
	var req recommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doctorID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.SubmitRecommendation(c.Request().Context(), doctorID, req.SubmissionID, kind, req.Recommendation); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "recommendation recorded"})
}
