package repository

import (
	"polkaedu_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// Create 连同课时一起创建
func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Lessons", orderedLessons).Where("id = ?", id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Preload("Lessons", orderedLessons).Order("created_at ASC").Find(&courses).Error
	return courses, err
}

// Update 只更新课程字段，课时不变
func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Omit("Lessons").Save(course).Error
}

// Delete 在事务中先删除课时再删除课程
func (r *CourseRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *CourseRepository) FindLessons(courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := orderedLessons(r.DB.Where("course_id = ?", courseID)).Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) CountLessons(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}
