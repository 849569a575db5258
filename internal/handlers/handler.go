package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clinic_queue/internal/auth"
	"clinic_queue/internal/patient"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/response"
	"clinic_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	db       *gorm.DB
	queues   *queue.Service
	patients *patient.Service
	issuer   *auth.Issuer
	events   ws.Publisher
	log      zerolog.Logger
}

func New(db *gorm.DB, queues *queue.Service, patients *patient.Service, issuer *auth.Issuer, events ws.Publisher, log zerolog.Logger) *Handler {
	return &Handler{
		db:       db,
		queues:   queues,
		patients: patients,
		issuer:   issuer,
		events:   events,
		log:      log,
	}
}

func parseID(c *gin.Context, code, message string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    code,
			Message: message,
		})
		return 0, false
	}
	return uint(id), true
}

// fail maps domain errors onto API errors. Anything unknown is logged and
// reported with the generic message so driver errors never reach the UI.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, queue.ErrQueueNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Code: "QUEUE_NOT_FOUND", Message: "Queue not found"})
	case errors.Is(err, queue.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Code: "ENTRY_NOT_FOUND", Message: "Queue entry not found"})
	case errors.Is(err, queue.ErrPatientNotFound), errors.Is(err, patient.ErrNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Code: "PATIENT_NOT_FOUND", Message: "Patient not found"})
	case errors.Is(err, queue.ErrAlreadyQueued):
		c.JSON(http.StatusConflict, response.ErrorResponse{Code: "ALREADY_IN_QUEUE", Message: "Patient is already in the queue"})
	case errors.Is(err, queue.ErrInvalidOrdering):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: "INVALID_ORDERING", Message: "Positions must form a dense 1..N sequence"})
	case errors.Is(err, patient.ErrDuplicateName):
		c.JSON(http.StatusConflict, response.ErrorResponse{Code: "PATIENT_EXISTS", Message: "Patient already exists."})
	case errors.Is(err, patient.ErrBirthdayInFuture):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: "VALIDATION_ERROR", Message: "Birthday cannot be in the future."})
	default:
		h.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(message)
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Code: "DB_ERROR", Message: message})
	}
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid fields",
		Details: err.Error(),
	})
}

// publish never fails the request: the change is already committed and UIs
// still converge on their next fetch.
func (h *Handler) publish(c *gin.Context, ev ws.Event) {
	if err := h.events.Publish(c.Request.Context(), ev); err != nil {
		h.log.Warn().Err(err).Str("event_type", ev.EventType).Str("queue_id", ev.QueueID).Msg("queue event not published")
	}
}
