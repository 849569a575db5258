package response

import (
	"time"

	"clinic_queue/internal/models"
)

// SuccessResponse is returned by mutations that have nothing else to report.
type SuccessResponse struct {
	Message string `json:"message" example:"Successfully added."`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	// Machine readable code
	// example: QUEUE_NOT_FOUND
	Code string `json:"code"`

	// Human readable message shown inline by the UI
	// example: Failed to process next patient
	Message string `json:"message"`

	// Optional details, only for validation problems
	// example: Key: 'AddEntryRequest.PatientID' Error:Field validation for 'PatientID' failed on the 'required' tag
	Details string `json:"details,omitempty"`
}

// TokenResponse carries the JWT pair issued at login or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

type QueueIDResponse struct {
	QueueID uint `json:"queue_id" example:"1"`
}

type PatientSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type EntryResponse struct {
	ID       uint               `json:"id"`
	Position int                `json:"position"`
	Status   models.EntryStatus `json:"status"`
	Patient  PatientSummary     `json:"patient"`
}

type PatientResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	City            string  `json:"city"`
	CompleteAddress string  `json:"complete_address"`
	Age             int     `json:"age"`
	Sex             string  `json:"sex"`
	Birthday        *string `json:"birthday"`
	CivilStatus     string  `json:"civil_status"`
	Occupation      string  `json:"occupation"`
	Handedness      string  `json:"handedness"`
	Religion        string  `json:"religion"`
	ImageURL        string  `json:"image_url"`
	IsNewPatient    bool    `json:"is_new_patient"`
	LastVisit       *string `json:"last_visit"`
}

func Entries(entries []models.QueueEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:       e.ID,
			Position: e.Position,
			Status:   e.Status,
			Patient: PatientSummary{
				ID:       e.PatientID,
				Name:     e.Patient.Name,
				ImageURL: e.Patient.ImageURL,
			},
		})
	}
	return out
}

func Patient(p *models.Patient) PatientResponse {
	return PatientResponse{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		City:            p.City,
		CompleteAddress: p.CompleteAddress,
		Age:             p.Age,
		Sex:             p.Sex,
		Birthday:        formatDate(p.Birthday),
		CivilStatus:     p.CivilStatus,
		Occupation:      p.Occupation,
		Handedness:      p.Handedness,
		Religion:        p.Religion,
		ImageURL:        p.ImageURL,
		IsNewPatient:    p.IsNewPatient,
		LastVisit:       formatDate(p.LastVisit),
	}
}

func Patients(ps []models.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(ps))
	for i := range ps {
		out = append(out, Patient(&ps[i]))
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
