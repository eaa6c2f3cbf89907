package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentStatusActive  = "active"
	EnrollmentStatusDropped = "dropped"
)

var (
	ErrInvalidEnrollmentStatus = errors.New("invalid enrollment status")
)

// Class represents one teacher's class. Store items and funding
// authorization are scoped through class enrollment.
type Class struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID uuid.UUID      `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Period    string         `gorm:"type:varchar(50)" json:"period,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Associations
	Teacher     User         `gorm:"foreignKey:TeacherID" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:ClassID" json:"-"`
}

// BeforeCreate hook for Class
func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.TeacherID == uuid.Nil {
		return errors.New("teacher ID is required")
	}
	if c.Name == "" {
		return errors.New("class name is required")
	}
	return nil
}

// TableName returns the table name for Class
func (c *Class) TableName() string {
	return "classes"
}

// Enrollment links a student to a class. One row per (class, student);
// dropped enrollments are kept for history but grant no authorization.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_class_student" json:"class_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_class_student" json:"student_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Class   Class `gorm:"foreignKey:ClassID" json:"-"`
	Student User  `gorm:"foreignKey:StudentID" json:"-"`
}

// BeforeCreate hook for Enrollment
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EnrollmentStatusActive
	}
	if e.Status != EnrollmentStatusActive && e.Status != EnrollmentStatusDropped {
		return ErrInvalidEnrollmentStatus
	}
	return nil
}

// IsActive returns true if the enrollment grants authorization
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// TableName returns the table name for Enrollment
func (e *Enrollment) TableName() string {
	return "enrollments"
}
