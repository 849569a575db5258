package queue

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrQueueNotFound   = errors.New("queue not found")
	ErrEntryNotFound   = errors.New("queue entry not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrAlreadyQueued   = errors.New("patient is already in the queue")
	ErrInvalidOrdering = errors.New("positions must form a dense 1..N sequence")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
