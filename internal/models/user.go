package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	ErrInvalidRole = errors.New("invalid user role")
)

// User represents a teacher or student known to the platform. Authentication
// happens upstream; this record only carries identity and role.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Role      string         `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Associations
	Accounts    []Account    `gorm:"foreignKey:StudentID" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:StudentID" json:"-"`
}

// BeforeCreate hook for User
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

// Validate validates the user fields
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// FullName returns the display name used on statements
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsTeacher returns true if the user has the teacher role
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsStudent returns true if the user has the student role
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// TableName returns the table name for User
func (u *User) TableName() string {
	return "users"
}

// IsValidRole checks if the role is valid
func IsValidRole(role string) bool {
	switch role {
	case RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}
