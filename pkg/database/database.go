package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"
	applog "polkaedu_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按驱动打开数据库，memory 驱动每次调用得到一个独立的内存库
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", util.DriverMemory:
		name := cfg.DSN
		if name == "" {
			name = uuid.NewString()
		}
		dialector = sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name))
	case util.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case util.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver != util.DriverMySQL {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite 单写者；内存库在最后一个连接关闭后即被销毁
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Certificate{},
	)
}

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	applog.Log.Info("Database migration completed")
	return db, nil
}

type seedLesson struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Order       int    `json:"order"`
	Duration    int    `json:"duration"`
}

type seedCourse struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Lessons     []seedLesson    `json:"lessons"`
}

// SeedCourses 课程表为空时从 JSON 文件导入示例课程，返回导入数量
func SeedCourses(db *gorm.DB, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	var count int64
	if err := db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applog.Log.Warn("Seed file not found, skipping", zap.String("path", path))
			return 0, nil
		}
		return 0, err
	}

	var seeds []seedCourse
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	courses := make([]model.Course, 0, len(seeds))
	for _, s := range seeds {
		course := model.Course{
			Title:       s.Title,
			Description: s.Description,
			Instructor:  s.Instructor,
			Duration:    s.Duration,
			Price:       s.Price,
			ImageURL:    s.ImageURL,
		}
		for i, l := range s.Lessons {
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
		courses = append(courses, course)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range courses {
			if err := tx.Create(&courses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	applog.Log.Info("Seeded sample courses", zap.Int("count", len(courses)), zap.String("path", path))
	return len(courses), nil
}
