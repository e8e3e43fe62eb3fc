package model

import "github.com/shopspring/decimal"

// swagger:model Course
type Course struct {
	UUIDBase
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Instructor  string          `gorm:"size:255;not null" json:"instructor"`
	Duration    int             `gorm:"not null;default:0" json:"duration"` // 小时
	Price       decimal.Decimal `gorm:"type:decimal(30,10);not null;default:0" json:"price"`
	ImageURL    string          `gorm:"size:512" json:"imageUrl"`
	Lessons     []Lesson        `gorm:"foreignKey:CourseID" json:"lessons"`
}

func (Course) TableName() string {
	return "courses"
}

// IsPaid 价格大于 0 的课程需要链上支付
func (c *Course) IsPaid() bool {
	return c.Price.IsPositive()
}

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	CourseID    string `gorm:"type:varchar(36);index;not null" json:"courseId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Content     string `gorm:"type:text" json:"content"`
	Order       int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	Duration    int    `gorm:"not null;default:0" json:"duration"` // 分钟
}

func (Lesson) TableName() string {
	return "lessons"
}
