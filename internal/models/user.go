package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" gorm:"not null;size:100" validate:"required,min=2,max=100"`
	Email     string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Username  string `json:"username" gorm:"uniqueIndex;not null;size:15" validate:"required,username"`

	// Never serialized; bcrypt hash only.
	PasswordHash string `json:"-" gorm:"not null;size:100"`

	PhoneNumber string   `json:"phone_number" gorm:"size:20" validate:"required,phone"`
	Role        UserRole `json:"role" gorm:"default:student;size:20"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
