package model

import (
	"time"

	"gorm.io/gorm"
)

const MaxProgress = 100

// swagger:model Enrollment
type Enrollment struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course" json:"courseId"`
	Progress    int          `gorm:"not null;default:0" json:"progress"`
	Completed   bool         `gorm:"not null;default:false" json:"completed"`
	EnrolledAt  time.Time    `json:"enrolledAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course      *Course      `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Certificate *Certificate `gorm:"foreignKey:EnrollmentID" json:"certificate,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = GenerateID()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	return nil
}

// ClampProgress 把任意进度值限制在 [0,100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}

// SetProgress 更新进度并维护 completed / completedAt，返回本次是否首次完成
func (e *Enrollment) SetProgress(p int, now time.Time) bool {
	wasCompleted := e.Completed
	e.Progress = ClampProgress(p)
	e.Completed = e.Progress == MaxProgress

	switch {
	case e.Completed && !wasCompleted:
		e.CompletedAt = &now
		return true
	case !e.Completed:
		e.CompletedAt = nil
	}
	return false
}
