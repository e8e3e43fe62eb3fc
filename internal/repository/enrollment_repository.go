package repository

import (
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// Create 依赖 (user_id, course_id) 唯一索引原子地插入，重复时返回 util.ErrAlreadyEnrolled
func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	err := r.DB.Omit("User", "Course", "Certificate").Create(enrollment).Error
	if IsDuplicateKey(err) {
		return util.ErrAlreadyEnrolled
	}
	return err
}

// FindByID 预加载用户、课程（含课时）与证书
func (r *EnrollmentRepository) FindByID(id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.
		Preload("User").
		Preload("Course.Lessons", orderedLessons).
		Preload("Certificate").
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByUser 按报名时间倒序返回，带课程与证书
func (r *EnrollmentRepository) ListByUser(userID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.
		Preload("Course.Lessons", orderedLessons).
		Preload("Certificate").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) SaveProgress(enrollment *model.Enrollment) error {
	return r.DB.Model(enrollment).
		Select("progress", "completed", "completed_at").
		Updates(enrollment).Error
}

func (r *EnrollmentRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Count(&count).Error
	return count, err
}
