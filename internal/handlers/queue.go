package handlers

import (
	"net/http"

	"clinic_queue/internal/queue"
	"clinic_queue/internal/response"
	"clinic_queue/internal/ws"

	"github.com/gin-gonic/gin"
)

type AddEntryRequest struct {
	PatientID uint `json:"patient_id" binding:"required"`
}

type PlacementRequest struct {
	ID       uint `json:"id" binding:"required"`
	Position int  `json:"position" binding:"required,min=1"`
}

type ReorderRequest struct {
	Entries []PlacementRequest `json:"entries" binding:"required,dive"`
}

// GetActiveQueueHandler godoc
// @Summary		Active queue
// @Description	Returns the id of the active queue, creating "Default Queue" when none exists
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	response.QueueIDResponse
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/active [get]
func (h *Handler) GetActiveQueueHandler(c *gin.Context) {
	id, err := h.queues.GetOrCreateActiveQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get or create queue")
		return
	}
	c.JSON(http.StatusOK, response.QueueIDResponse{QueueID: id})
}

// AddToQueueHandler godoc
// @Summary		Add patient to queue
// @Description	Appends the patient at the tail of the queue in WAITING state
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int				true	"Queue ID"
// @Param			entry	body		AddEntryRequest	true	"Patient to enqueue"
// @Security		BearerAuth
// @Success		201	{object}	response.EntryResponse
// @Failure		400	{object}	response.ErrorResponse	"Validation error (INVALID_QUEUE_ID, VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND, PATIENT_NOT_FOUND"
// @Failure		409	{object}	response.ErrorResponse	"ALREADY_IN_QUEUE"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/{id}/entries [post]
func (h *Handler) AddToQueueHandler(c *gin.Context) {
	queueID, ok := parseID(c, "INVALID_QUEUE_ID", "Invalid queue ID")
	if !ok {
		return
	}
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	entry, err := h.queues.Add(c.Request.Context(), queueID, req.PatientID)
	if err != nil {
		h.fail(c, err, "Failed to add patient to queue")
		return
	}

	h.publish(c, ws.NewEvent(ws.EventPatientAdded, queueID, gin.H{
		"entry_id":   entry.ID,
		"patient_id": entry.PatientID,
		"position":   entry.Position,
	}))

	c.JSON(http.StatusCreated, response.EntryResponse{
		ID:       entry.ID,
		Position: entry.Position,
		Status:   entry.Status,
		Patient:  response.PatientSummary{ID: entry.PatientID},
	})
}

// ListEntriesHandler godoc
// @Summary		Queue entries
// @Description	Entries ordered by position with a patient summary, for the draggable list
// @Tags			queue
// @Produce		json
// @Param			id	path	int	true	"Queue ID"
// @Security		BearerAuth
// @Success		200	{array}		response.EntryResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_QUEUE_ID"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/{id}/entries [get]
func (h *Handler) ListEntriesHandler(c *gin.Context) {
	queueID, ok := parseID(c, "INVALID_QUEUE_ID", "Invalid queue ID")
	if !ok {
		return
	}
	entries, err := h.queues.ListEntries(c.Request.Context(), queueID)
	if err != nil {
		h.fail(c, err, "Failed to fetch queue entries")
		return
	}
	c.JSON(http.StatusOK, response.Entries(entries))
}

// ReorderQueueHandler godoc
// @Summary		Reorder queue
// @Description	Applies a drag-and-drop ordering atomically; the result must be positions 1..N
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		int				true	"Queue ID"
// @Param			order	body		ReorderRequest	true	"New positions"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_QUEUE_ID, VALIDATION_ERROR, INVALID_ORDERING"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND, ENTRY_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/{id}/order [put]
func (h *Handler) ReorderQueueHandler(c *gin.Context) {
	queueID, ok := parseID(c, "INVALID_QUEUE_ID", "Invalid queue ID")
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	placements := make([]queue.Placement, 0, len(req.Entries))
	for _, e := range req.Entries {
		placements = append(placements, queue.Placement{ID: e.ID, Position: e.Position})
	}
	if err := h.queues.Reorder(c.Request.Context(), queueID, placements); err != nil {
		h.fail(c, err, "Failed to reorder queue")
		return
	}

	h.publish(c, ws.NewEvent(ws.EventQueueReordered, queueID, gin.H{"entries": placements}))
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Reordered successfully."})
}

// NextPatientHandler godoc
// @Summary		Next patient
// @Description	Completes the patient in progress and calls the next waiting one
// @Tags			queue
// @Produce		json
// @Param			id	path	int	true	"Queue ID"
// @Security		BearerAuth
// @Success		200	{object}	queue.AdvanceResult
// @Failure		400	{object}	response.ErrorResponse	"INVALID_QUEUE_ID"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/{id}/advance [post]
func (h *Handler) NextPatientHandler(c *gin.Context) {
	queueID, ok := parseID(c, "INVALID_QUEUE_ID", "Invalid queue ID")
	if !ok {
		return
	}
	result, err := h.queues.Advance(c.Request.Context(), queueID)
	if err != nil {
		h.fail(c, err, "Failed to process next patient")
		return
	}

	h.publish(c, ws.NewEvent(ws.EventPatientAdvanced, queueID, result))
	c.JSON(http.StatusOK, result)
}

// QueueStateHandler godoc
// @Summary		Current queue state
// @Description	Patient in progress, or the head of the line reported as WAITING, without changing anything
// @Tags			queue
// @Produce		json
// @Param			id	path	int	true	"Queue ID"
// @Security		BearerAuth
// @Success		200	{object}	queue.State
// @Failure		400	{object}	response.ErrorResponse	"INVALID_QUEUE_ID"
// @Failure		404	{object}	response.ErrorResponse	"QUEUE_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"Server error (DB_ERROR)"
// @Router			/api/queues/{id}/state [get]
func (h *Handler) QueueStateHandler(c *gin.Context) {
	queueID, ok := parseID(c, "INVALID_QUEUE_ID", "Invalid queue ID")
	if !ok {
		return
	}
	state, err := h.queues.ReadState(c.Request.Context(), queueID)
	if err != nil {
		h.fail(c, err, "Failed to fetch queue state")
		return
	}
	c.JSON(http.StatusOK, state)
}
