package service

import (
	"errors"
	"strings"

	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

type LessonRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Order       int    `json:"order"`
	Duration    int    `json:"duration"`
}

type CreateCourseRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Lessons     []LessonRequest `json:"lessons"`
}

// UpdateCourseRequest 为 nil 的字段保持不变
type UpdateCourseRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Instructor  *string          `json:"instructor"`
	Duration    *int             `json:"duration"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
}

func validateCourse(title, instructor string, duration int, price decimal.Decimal) error {
	if strings.TrimSpace(title) == "" {
		return util.NewError(util.ErrValidation, "title is required")
	}
	if strings.TrimSpace(instructor) == "" {
		return util.NewError(util.ErrValidation, "instructor is required")
	}
	if duration < 0 {
		return util.NewError(util.ErrValidation, "duration must not be negative")
	}
	if price.IsNegative() {
		return util.NewError(util.ErrValidation, "price must not be negative")
	}
	return nil
}

func (s *CourseService) CreateCourse(req CreateCourseRequest) (*model.Course, error) {
	if err := validateCourse(req.Title, req.Instructor, req.Duration, req.Price); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Duration:    req.Duration,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
	for i, l := range req.Lessons {
		if strings.TrimSpace(l.Title) == "" {
			return nil, util.Errorf(util.ErrValidation, "lesson %d: title is required", i+1)
		}
		order := l.Order
		if order == 0 {
			order = i + 1
		}
		course.Lessons = append(course.Lessons, model.Lesson{
			Title:       l.Title,
			Description: l.Description,
			Content:     l.Content,
			Order:       order,
			Duration:    l.Duration,
		})
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	if course.Lessons == nil {
		course.Lessons = []model.Lesson{}
	}
	return course, nil
}

func (s *CourseService) ListCourses() ([]model.Course, error) {
	return s.CourseRepo.List()
}

func (s *CourseService) GetCourse(id string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}

func (s *CourseService) UpdateCourse(id string, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Instructor != nil {
		course.Instructor = *req.Instructor
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.ImageURL != nil {
		course.ImageURL = *req.ImageURL
	}

	if err := validateCourse(course.Title, course.Instructor, course.Duration, course.Price); err != nil {
		return nil, err
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse 同时删除课时
func (s *CourseService) DeleteCourse(id string) error {
	err := s.CourseRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCourseNotFound
	}
	return err
}

func (s *CourseService) ListLessons(courseID string) ([]model.Lesson, error) {
	if _, err := s.GetCourse(courseID); err != nil {
		return nil, err
	}
	return s.CourseRepo.FindLessons(courseID)
}
