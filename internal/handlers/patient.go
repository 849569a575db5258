package handlers

import (
	"net/http"
	"time"

	"clinic_queue/internal/patient"
	"clinic_queue/internal/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type CreatePatientRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone"`
	City            string `json:"city"`
	CompleteAddress string `json:"complete_address"`
	Age             int    `json:"age" binding:"omitempty,min=0,max=150"`
	Sex             string `json:"sex" binding:"omitempty,oneof=Male Female"`
	Birthday        string `json:"birthday" binding:"omitempty,datetime=2006-01-02" example:"1990-04-12"`
	CivilStatus     string `json:"civil_status"`
	Occupation      string `json:"occupation"`
	Handedness      string `json:"handedness"`
	Religion        string `json:"religion"`
	ImageURL        string `json:"image_url" binding:"omitempty,url"`
	LastVisit       string `json:"last_visit" binding:"omitempty,datetime=2006-01-02"`
}

// CreatePatientHandler godoc
// @Summary		Register patient
// @Description	Front-desk intake; names must be unique and the birthday cannot be in the future
// @Tags			patients
// @Accept			json
// @Produce		json
// @Param			patient	body	CreatePatientRequest	true	"Patient data"
// @Security		BearerAuth
// @Success		201	{object}	response.PatientResponse
// @Failure		400	{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		409	{object}	response.ErrorResponse	"PATIENT_EXISTS"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/patients [post]
func (h *Handler) CreatePatientHandler(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	in := patient.Intake{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		City:            req.City,
		CompleteAddress: req.CompleteAddress,
		Age:             req.Age,
		Sex:             req.Sex,
		Birthday:        parseDate(req.Birthday),
		CivilStatus:     req.CivilStatus,
		Occupation:      req.Occupation,
		Handedness:      req.Handedness,
		Religion:        req.Religion,
		ImageURL:        req.ImageURL,
		LastVisit:       parseDate(req.LastVisit),
	}

	p, err := h.patients.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "Failed to create patient")
		return
	}
	c.JSON(http.StatusCreated, response.Patient(p))
}

// GetPatientHandler godoc
// @Summary		Patient details
// @Tags			patients
// @Produce		json
// @Param			id	path	int	true	"Patient ID"
// @Security		BearerAuth
// @Success		200	{object}	response.PatientResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_PATIENT_ID"
// @Failure		404	{object}	response.ErrorResponse	"PATIENT_NOT_FOUND"
// @Router			/api/patients/{id} [get]
func (h *Handler) GetPatientHandler(c *gin.Context) {
	id, ok := parseID(c, "INVALID_PATIENT_ID", "Invalid patient ID")
	if !ok {
		return
	}
	p, err := h.patients.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to fetch patient")
		return
	}
	c.JSON(http.StatusOK, response.Patient(p))
}

// SearchPatientsHandler godoc
// @Summary		Search patients
// @Description	Case-insensitive match on name, email or phone; at most 10 results
// @Tags			patients
// @Produce		json
// @Param			q	query	string	true	"Search text"
// @Security		BearerAuth
// @Success		200	{array}		response.PatientResponse
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/patients/search [get]
func (h *Handler) SearchPatientsHandler(c *gin.Context) {
	patients, err := h.patients.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err, "Failed to search patients")
		return
	}
	c.JSON(http.StatusOK, response.Patients(patients))
}

// parseDate expects input already checked by the datetime binding.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
