package models

import (
	"time"

	"gorm.io/gorm"
)

type Patient struct {
	gorm.Model
	Name            string `gorm:"index;not null"`
	Email           string `gorm:"index"`
	Phone           string `gorm:"index"`
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
	IsNewPatient    bool `gorm:"default:true"`
	LastVisit       *time.Time
}
