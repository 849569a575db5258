package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic_queue/internal/metrics"
	"clinic_queue/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultQueueName = "Default Queue"

const (
	MsgNextPatient    = "Next patient set to IN_PROGRESS"
	MsgFirstPatient   = "First patient set to IN_PROGRESS"
	MsgNoMorePatients = "No more patients in queue"
	MsgNoPatients     = "No patients in queue"
	MsgCurrentPatient = "Current patient found"
	MsgWaitingPatient = "Waiting patient found"
)

// Placement is one row of a manual reorder: entry id and its new position.
type Placement struct {
	ID       uint `json:"id"`
	Position int  `json:"position"`
}

// AdvanceResult is what the doctor console gets back after "next patient".
// PatientID and Status are nil when the queue ran dry.
type AdvanceResult struct {
	PatientID *uint               `json:"patient_id"`
	Status    *models.EntryStatus `json:"status"`
	Message   string              `json:"message"`
}

// State is the side-effect free view of who is up.
type State struct {
	PatientID             *uint               `json:"patient_id"`
	Status                *models.EntryStatus `json:"status"`
	RemainingWaitingCount int64               `json:"remaining_waiting_count"`
	Message               string              `json:"message"`
}

// Service owns every mutation of queue entries. Writers run in a transaction
// that holds the queue row lock, and writers on the same queue inside this
// process are additionally serialized by Locker so they never contend on the
// database lock.
type Service struct {
	db      *gorm.DB
	locks   *Locker
	metrics *metrics.QueueMetrics
}

func NewService(db *gorm.DB, m *metrics.QueueMetrics) *Service {
	return &Service{
		db:      db,
		locks:   NewLocker(),
		metrics: m,
	}
}

// GetOrCreateActiveQueue returns the id of the active queue, creating
// "Default Queue" when there is none. Two concurrent creators race on the
// partial unique index; the loser reads back the winner's row.
func (s *Service) GetOrCreateActiveQueue(ctx context.Context) (id uint, err error) {
	defer s.observe("get_or_create", time.Now(), &err)

	q, err := s.FindActive(ctx)
	if err == nil {
		return q.ID, nil
	}
	if !errors.Is(err, ErrQueueNotFound) {
		return 0, err
	}

	created := models.Queue{Name: DefaultQueueName, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		if !isUniqueViolation(err) {
			return 0, fmt.Errorf("create active queue: %w", err)
		}
		q, err := s.FindActive(ctx)
		if err != nil {
			return 0, err
		}
		return q.ID, nil
	}
	return created.ID, nil
}

// FindActive returns ErrQueueNotFound when no queue is flagged active.
func (s *Service) FindActive(ctx context.Context) (*models.Queue, error) {
	var q models.Queue
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active queue: %w", err)
	}
	return &q, nil
}

// Add appends the patient at the tail of the queue in WAITING state.
func (s *Service) Add(ctx context.Context, queueID, patientID uint) (entry *models.QueueEntry, err error) {
	defer s.observe("add", time.Now(), &err)

	err = s.withQueueLock(ctx, queueID, func(tx *gorm.DB) error {
		var patients int64
		if err := tx.Model(&models.Patient{}).Where("id = ?", patientID).Count(&patients).Error; err != nil {
			return fmt.Errorf("check patient: %w", err)
		}
		if patients == 0 {
			return ErrPatientNotFound
		}

		var queued int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("queue_id = ? AND patient_id = ?", queueID, patientID).
			Count(&queued).Error; err != nil {
			return fmt.Errorf("check queued: %w", err)
		}
		if queued > 0 {
			return ErrAlreadyQueued
		}

		var maxPosition int
		row := tx.Model(&models.QueueEntry{}).Where("queue_id = ?", queueID).Select("COALESCE(MAX(position), 0)").Row()
		if err := row.Scan(&maxPosition); err != nil {
			return fmt.Errorf("read tail position: %w", err)
		}

		entry = &models.QueueEntry{
			QueueID:   queueID,
			PatientID: patientID,
			Position:  maxPosition + 1,
			Status:    models.StatusWaiting,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Reorder writes the supplied positions atomically. Every id must belong to
// the queue, and the resulting positions must be exactly 1..N; otherwise
// nothing is written.
func (s *Service) Reorder(ctx context.Context, queueID uint, placements []Placement) (err error) {
	defer s.observe("reorder", time.Now(), &err)

	seen := make(map[uint]struct{}, len(placements))
	for _, p := range placements {
		if p.Position < 1 {
			return ErrInvalidOrdering
		}
		if _, dup := seen[p.ID]; dup {
			return ErrInvalidOrdering
		}
		seen[p.ID] = struct{}{}
	}

	return s.withQueueLock(ctx, queueID, func(tx *gorm.DB) error {
		for _, p := range placements {
			res := tx.Model(&models.QueueEntry{}).
				Where("id = ? AND queue_id = ?", p.ID, queueID).
				Update("position", p.Position)
			if res.Error != nil {
				return fmt.Errorf("update entry %d: %w", p.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("entry %d: %w", p.ID, ErrEntryNotFound)
			}
		}

		positions, err := queuePositions(tx, queueID)
		if err != nil {
			return err
		}
		if !isDense(positions) {
			return ErrInvalidOrdering
		}
		return nil
	})
}

// Advance retires the IN_PROGRESS entry (if any), closes the gap it leaves and
// promotes the WAITING entry with the lowest position.
func (s *Service) Advance(ctx context.Context, queueID uint) (result AdvanceResult, err error) {
	defer s.observe("advance", time.Now(), &err)

	err = s.withQueueLock(ctx, queueID, func(tx *gorm.DB) error {
		retired := false

		var current models.QueueEntry
		err := tx.Where("queue_id = ? AND status = ?", queueID, models.StatusInProgress).
			Order("position ASC").
			First(&current).Error
		switch {
		case err == nil:
			if err := tx.Delete(&models.QueueEntry{}, current.ID).Error; err != nil {
				return fmt.Errorf("retire entry %d: %w", current.ID, err)
			}
			if err := tx.Model(&models.QueueEntry{}).
				Where("queue_id = ? AND position > ?", queueID, current.Position).
				UpdateColumn("position", gorm.Expr("position - 1")).Error; err != nil {
				return fmt.Errorf("close gap: %w", err)
			}
			retired = true
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("find current entry: %w", err)
		}

		var next models.QueueEntry
		err = tx.Where("queue_id = ? AND status = ?", queueID, models.StatusWaiting).
			Order("position ASC").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = AdvanceResult{Message: MsgNoPatients}
			if retired {
				result.Message = MsgNoMorePatients
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("find next entry: %w", err)
		}

		if err := tx.Model(&models.QueueEntry{}).
			Where("id = ?", next.ID).
			Update("status", models.StatusInProgress).Error; err != nil {
			return fmt.Errorf("promote entry %d: %w", next.ID, err)
		}

		status := models.StatusInProgress
		patientID := next.PatientID
		result = AdvanceResult{PatientID: &patientID, Status: &status, Message: MsgFirstPatient}
		if retired {
			result.Message = MsgNextPatient
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}

// ReadState peeks at the queue: the IN_PROGRESS patient, or else the head of
// the WAITING line reported as WAITING. Nothing is written.
func (s *Service) ReadState(ctx context.Context, queueID uint) (state State, err error) {
	defer s.observe("read_state", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureQueue(tx, queueID); err != nil {
			return err
		}

		if err := tx.Model(&models.QueueEntry{}).
			Where("queue_id = ? AND status = ?", queueID, models.StatusWaiting).
			Count(&state.RemainingWaitingCount).Error; err != nil {
			return fmt.Errorf("count waiting: %w", err)
		}

		var head models.QueueEntry
		err := tx.Where("queue_id = ? AND status = ?", queueID, models.StatusInProgress).First(&head).Error
		if err == nil {
			status := models.StatusInProgress
			state.PatientID, state.Status, state.Message = &head.PatientID, &status, MsgCurrentPatient
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find current entry: %w", err)
		}

		err = tx.Where("queue_id = ? AND status = ?", queueID, models.StatusWaiting).
			Order("position ASC").
			First(&head).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			state.Message = MsgNoPatients
			return nil
		}
		if err != nil {
			return fmt.Errorf("find waiting entry: %w", err)
		}
		status := models.StatusWaiting
		state.PatientID, state.Status, state.Message = &head.PatientID, &status, MsgWaitingPatient
		return nil
	})
	if err != nil {
		return State{}, err
	}
	return state, nil
}

// ListEntries returns the queue ordered by position with patients preloaded.
func (s *Service) ListEntries(ctx context.Context, queueID uint) (entries []models.QueueEntry, err error) {
	defer s.observe("list_entries", time.Now(), &err)

	db := s.db.WithContext(ctx)
	if err := ensureQueue(db, queueID); err != nil {
		return nil, err
	}
	if err := db.Preload("Patient").
		Where("queue_id = ?", queueID).
		Order("position ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Normalize renumbers the queue to 1..N keeping the current order and returns
// how many rows had to move.
func (s *Service) Normalize(ctx context.Context, queueID uint) (moved int, err error) {
	defer s.observe("normalize", time.Now(), &err)

	err = s.withQueueLock(ctx, queueID, func(tx *gorm.DB) error {
		var entries []models.QueueEntry
		if err := tx.Select("id", "position").
			Where("queue_id = ?", queueID).
			Order("position ASC").
			Order("id ASC").
			Find(&entries).Error; err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		for i, e := range entries {
			if e.Position == i+1 {
				continue
			}
			if err := tx.Model(&models.QueueEntry{}).
				Where("id = ?", e.ID).
				UpdateColumn("position", i+1).Error; err != nil {
				return fmt.Errorf("renumber entry %d: %w", e.ID, err)
			}
			moved++
		}
		return nil
	})
	return moved, err
}

func (s *Service) withQueueLock(ctx context.Context, queueID uint, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.Lock(queueID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Queue
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&q, queueID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQueueNotFound
		}
		if err != nil {
			return fmt.Errorf("lock queue %d: %w", queueID, err)
		}
		return fn(tx)
	})
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	s.metrics.ObserveOperation(operation, *err, time.Since(start).Seconds())
}

func ensureQueue(db *gorm.DB, queueID uint) error {
	var count int64
	if err := db.Model(&models.Queue{}).Where("id = ?", queueID).Count(&count).Error; err != nil {
		return fmt.Errorf("find queue %d: %w", queueID, err)
	}
	if count == 0 {
		return ErrQueueNotFound
	}
	return nil
}

func queuePositions(db *gorm.DB, queueID uint) ([]int, error) {
	var positions []int
	if err := db.Model(&models.QueueEntry{}).
		Where("queue_id = ?", queueID).
		Order("position ASC").
		Pluck("position", &positions).Error; err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return positions, nil
}

// isDense reports whether sorted positions are exactly 1..N.
func isDense(sorted []int) bool {
	for i, p := range sorted {
		if p != i+1 {
			return false
		}
	}
	return true
}
