package repository

import (
	"errors"
	"polkaedu_backend/internal/model"

	"gorm.io/gorm"
)

// ErrCertificateExists 同一报名已存在证书
var ErrCertificateExists = errors.New("certificate already exists for enrollment")

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) Create(cert *model.Certificate) error {
	err := r.DB.Omit("Course", "User").Create(cert).Error
	if IsDuplicateKey(err) {
		return ErrCertificateExists
	}
	return err
}

func (r *CertificateRepository) FindByID(id string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Preload("Course").Preload("User").Where("id = ?", id).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByEnrollmentID(enrollmentID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("enrollment_id = ?", enrollmentID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) List() ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Preload("Course").Order("issued_at DESC").Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) ListByUser(userID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Preload("Course").Where("user_id = ?", userID).Order("issued_at DESC").Find(&certs).Error
	return certs, err
}

type StatusCount struct {
	Status model.CertificateStatus
	Count  int64
}

// CountByStatus 各状态证书数量，供监控指标使用
func (r *CertificateRepository) CountByStatus() (map[model.CertificateStatus]int64, error) {
	var rows []StatusCount
	err := r.DB.Model(&model.Certificate{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.CertificateStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
