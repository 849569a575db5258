package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleClerk  Role = "CLERK"
	RoleDoctor Role = "DOCTOR"
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(16);not null"`
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &Patient{}, &Queue{}, &QueueEntry{}}
}
