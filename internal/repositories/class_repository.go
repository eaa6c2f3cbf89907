package repositories

import (
	"errors"
	"fmt"

	"classbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrClassNotFound      = errors.New("class not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in class")
)

// classRepository implements ClassRepositoryInterface
type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a new class repository
func NewClassRepository(db *gorm.DB) ClassRepositoryInterface {
	return &classRepository{
		db: db,
	}
}

// Create creates a new class
func (r *classRepository) Create(class *models.Class) error {
	if err := r.db.Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

// GetByID retrieves a class by ID
func (r *classRepository) GetByID(id uuid.UUID) (*models.Class, error) {
	class := &models.Class{ID: id}
	if err := r.db.First(class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return class, nil
}

// GetByTeacherID retrieves all classes taught by a teacher
func (r *classRepository) GetByTeacherID(teacherID uuid.UUID) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.Where("teacher_id = ?", teacherID).
		Order("name ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to get classes for teacher: %w", err)
	}
	return classes, nil
}

// Update updates a class
func (r *classRepository) Update(class *models.Class) error {
	if err := r.db.Save(class).Error; err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	return nil
}

// Delete soft deletes a class
func (r *classRepository) Delete(id uuid.UUID) error {
	result := r.db.Delete(&models.Class{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete class: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClassNotFound
	}
	return nil
}

// Enroll adds a student to a class
func (r *classRepository) Enroll(enrollment *models.Enrollment) error {
	if err := r.db.Create(enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to enroll student: %w", err)
	}
	return nil
}

// DropEnrollment marks a student's enrollment in a class as dropped
func (r *classRepository) DropEnrollment(classID, studentID uuid.UUID) error {
	result := r.db.Model(&models.Enrollment{}).
		Where("class_id = ? AND student_id = ? AND status = ?",
			classID, studentID, models.EnrollmentStatusActive).
		Update("status", models.EnrollmentStatusDropped)

	if result.Error != nil {
		return fmt.Errorf("failed to drop enrollment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

// GetActiveEnrollments retrieves active enrollments for a class
func (r *classRepository) GetActiveEnrollments(classID uuid.UUID) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.Where("class_id = ? AND status = ?", classID, models.EnrollmentStatusActive).
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}
	return enrollments, nil
}

// GetStudentsInClass retrieves the actively enrolled students of a class
func (r *classRepository) GetStudentsInClass(classID uuid.UUID) ([]models.User, error) {
	var students []models.User
	if err := r.db.
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.class_id = ? AND enrollments.status = ?",
			classID, models.EnrollmentStatusActive).
		Order("users.last_name ASC, users.first_name ASC").
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to get students in class: %w", err)
	}
	return students, nil
}

// GetClassesForStudent retrieves the classes a student is actively enrolled in
func (r *classRepository) GetClassesForStudent(studentID uuid.UUID) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.
		Joins("JOIN enrollments ON enrollments.class_id = classes.id").
		Where("enrollments.student_id = ? AND enrollments.status = ?",
			studentID, models.EnrollmentStatusActive).
		Order("classes.name ASC").
		Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to get classes for student: %w", err)
	}
	return classes, nil
}

// TeacherHasStudent reports whether the student is actively enrolled in any of
// the teacher's classes. This is the authorization check for every
// teacher-initiated operation on a student.
func (r *classRepository) TeacherHasStudent(teacherID, studentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Enrollment{}).
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.teacher_id = ? AND enrollments.student_id = ? AND enrollments.status = ?",
			teacherID, studentID, models.EnrollmentStatusActive).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check teacher-student relationship: %w", err)
	}
	return count > 0, nil
}

// GetPrimaryClassForStudent returns the student's earliest active enrollment.
// Statements show this class name next to the student.
func (r *classRepository) GetPrimaryClassForStudent(studentID uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := r.db.
		Joins("JOIN enrollments ON enrollments.class_id = classes.id").
		Where("enrollments.student_id = ? AND enrollments.status = ?",
			studentID, models.EnrollmentStatusActive).
		Order("enrollments.created_at ASC").
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get primary class: %w", err)
	}
	return &class, nil
}
