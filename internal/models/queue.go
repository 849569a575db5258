package models

import (
	"time"

	"gorm.io/gorm"
)

type Queue struct {
	gorm.Model
	Name string `gorm:"not null"`
	// Only one live row may carry IsActive = true; the partial unique index
	// enforces it. Soft-deleted rows give the slot up.
	IsActive bool `gorm:"default:false;uniqueIndex:idx_queues_single_active,where:is_active = true AND deleted_at IS NULL"`
}

type EntryStatus string

const (
	StatusWaiting    EntryStatus = "WAITING"
	StatusInProgress EntryStatus = "IN_PROGRESS"
)

// QueueEntry is one patient's slot in a queue. Finished entries are deleted, so
// there is no soft-delete column here.
type QueueEntry struct {
	ID        uint        `gorm:"primarykey"`
	QueueID   uint        `gorm:"index:idx_queue_entries_queue_position,priority:1;not null"`
	PatientID uint        `gorm:"index;not null"`
	Patient   Patient     `gorm:"foreignKey:PatientID"`
	Position  int         `gorm:"index:idx_queue_entries_queue_position,priority:2;not null"` // 1-based, dense within a queue
	Status    EntryStatus `gorm:"type:varchar(16);index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
