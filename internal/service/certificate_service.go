package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/logger"
	"polkaedu_backend/pkg/monitoring"
	"polkaedu_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CertificateMinter NFTService 实现了它
type CertificateMinter interface {
	CreateCertificateNFT(ctx context.Context, recipient string, metadata model.CertificateMetadata) (*model.MintResult, error)
	CollectionID() uint32
}

type CertificateService struct {
	CertificateRepo *repository.CertificateRepository
	UserRepo        *repository.UserRepository
	Minter          CertificateMinter
	// Locker 串行化同一报名的证书签发
	Locker MintLocker

	now func() time.Time
}

func NewCertificateService(certRepo *repository.CertificateRepository, userRepo *repository.UserRepository, minter CertificateMinter) *CertificateService {
	return &CertificateService{
		CertificateRepo: certRepo,
		UserRepo:        userRepo,
		Minter:          minter,
		Locker:          NewLocalMintLocker(),
		now:             time.Now,
	}
}

// CertificateMetadataFor 构造上传到 IPFS 的证书元数据
func CertificateMetadataFor(user *model.User, course *model.Course, issuedAt time.Time) model.CertificateMetadata {
	return model.CertificateMetadata{
		Name:        "Certificate: " + course.Title,
		Description: "Certificate of completion for the course " + course.Title,
		CourseID:    course.ID,
		CourseTitle: course.Title,
		StudentName: user.DisplayName(),
		IssuedAt:    issuedAt.UTC().Format(time.RFC3339),
		Attributes: []model.MetadataAttribute{
			{TraitType: "Course", Value: course.Title},
			{TraitType: "Instructor", Value: course.Instructor},
			{TraitType: "Duration", Value: fmt.Sprintf("%d hours", course.Duration)},
		},
	}
}

// Issue 为已完成的报名生成证书，每个报名至多一张。
// 链上铸造失败不会返回错误，而是记录为 failed / pending 证书；只有数据库错误才会返回。
func (s *CertificateService) Issue(ctx context.Context, enrollment *model.Enrollment) (*model.Certificate, error) {
	ctx, span := tracing.Tracer.Start(ctx, "certificate.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("enrollment.id", enrollment.ID))

	// 持锁后再查重，并发完成同一课程时只铸造一次
	unlock, err := s.Locker.Lock(ctx, "certificate:"+enrollment.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.CertificateRepo.FindByEnrollmentID(enrollment.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	issuedAt := s.now()
	cert := &model.Certificate{
		EnrollmentID:    enrollment.ID,
		UserID:          enrollment.UserID,
		CourseID:        enrollment.CourseID,
		NFTCollectionID: strconv.FormatUint(uint64(s.Minter.CollectionID()), 10),
		IssuedAt:        issuedAt,
	}
	s.mint(ctx, enrollment, cert)
	span.SetAttributes(attribute.String("certificate.status", string(cert.Status)))

	if err := s.CertificateRepo.Create(cert); err != nil {
		if errors.Is(err, repository.ErrCertificateExists) {
			return s.CertificateRepo.FindByEnrollmentID(enrollment.ID)
		}
		return nil, err
	}

	monitoring.CertificatesIssued.WithLabelValues(string(cert.Status)).Inc()
	logger.Log.Info("Certificate recorded",
		zap.String("certificateId", cert.ID),
		zap.String("enrollmentId", enrollment.ID),
		zap.String("status", string(cert.Status)))
	return cert, nil
}

// mint 填充证书的链上字段和状态
func (s *CertificateService) mint(ctx context.Context, enrollment *model.Enrollment, cert *model.Certificate) {
	fail := func(reason string) {
		cert.Status = model.CertificateFailed
		cert.FailureReason = reason
		logger.Log.Warn("Certificate NFT not issued",
			zap.String("enrollmentId", enrollment.ID),
			zap.String("reason", reason))
	}

	user := enrollment.User
	if user == nil {
		fail(util.ErrUserNotFound.Error())
		return
	}
	course := enrollment.Course
	if course == nil {
		fail(util.ErrCourseNotFound.Error())
		return
	}

	wallet := user.Wallet()
	if wallet == "" {
		cert.Status = model.CertificatePending
		logger.Log.Info("User has no wallet, certificate left pending", zap.String("enrollmentId", enrollment.ID))
		return
	}

	result, err := s.Minter.CreateCertificateNFT(ctx, wallet, CertificateMetadataFor(user, course, cert.IssuedAt))
	if err != nil {
		fail(err.Error())
		return
	}

	cert.NFTCollectionID = result.CollectionID
	if result.Pending {
		cert.Status = model.CertificatePending
		return
	}

	cert.Status = model.CertificateIssued
	cert.NFTTokenID = &result.TokenID
	cert.TransactionHash = &result.TransactionHash
	if result.MetadataURL != "" {
		cert.MetadataURL = &result.MetadataURL
	}
}

func (s *CertificateService) ListCertificates() ([]model.Certificate, error) {
	return s.CertificateRepo.List()
}

func (s *CertificateService) GetCertificate(id string) (*model.Certificate, error) {
	cert, err := s.CertificateRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertificateNotFound
	}
	return cert, err
}

func (s *CertificateService) ListByUser(userID string) ([]model.Certificate, error) {
	return s.CertificateRepo.ListByUser(userID)
}

// ListByWallet 钱包未注册时返回空列表
func (s *CertificateService) ListByWallet(wallet string) ([]model.Certificate, error) {
	user, err := s.UserRepo.FindByWallet(wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.Certificate{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.CertificateRepo.ListByUser(user.ID)
}

func (s *CertificateService) CountByStatus() (map[model.CertificateStatus]int64, error) {
	return s.CertificateRepo.CountByStatus()
}
