package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_queue/internal/models"

	"gorm.io/gorm"
)

const searchLimit = 10

var (
	ErrNotFound         = errors.New("patient not found")
	ErrDuplicateName    = errors.New("patient already exists")
	ErrBirthdayInFuture = errors.New("birthday cannot be in the future")
)

// Intake is the front-desk registration form.
type Intake struct {
	Name            string
	Email           string
	Phone           string
	City            string
	CompleteAddress string
	Age             int
	Sex             string
	Birthday        *time.Time
	CivilStatus     string
	Occupation      string
	Handedness      string
	Religion        string
	ImageURL        string
	LastVisit       *time.Time
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Intake) (*models.Patient, error) {
	name := strings.TrimSpace(in.Name)
	if in.Birthday != nil && !in.Birthday.Before(s.now()) {
		return nil, ErrBirthdayInFuture
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Patient{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check patient name: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateName
	}

	p := &models.Patient{
		Name:            name,
		Email:           in.Email,
		Phone:           in.Phone,
		City:            in.City,
		CompleteAddress: in.CompleteAddress,
		Age:             in.Age,
		Sex:             in.Sex,
		Birthday:        in.Birthday,
		CivilStatus:     in.CivilStatus,
		Occupation:      in.Occupation,
		Handedness:      in.Handedness,
		Religion:        in.Religion,
		ImageURL:        in.ImageURL,
		IsNewPatient:    true,
		LastVisit:       in.LastVisit,
	}
	if err := db.Create(p).Error; err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Patient, error) {
	var p models.Patient
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return &p, nil
}

// Search matches name, email or phone case-insensitively and returns at most
// ten patients.
func (s *Service) Search(ctx context.Context, query string) ([]models.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Patient{}, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	patients := []models.Patient{}
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(phone) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern).
		Order("name ASC").
		Limit(searchLimit).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return patients, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
