package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/logger"
	"polkaedu_backend/pkg/tracing"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository
	CourseRepo     *repository.CourseRepository
	Users          *UserService
	Payments       *PaymentService
	Certificates   *CertificateService

	now func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	users *UserService,
	payments *PaymentService,
	certificates *CertificateService,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		Users:          users,
		Payments:       payments,
		Certificates:   certificates,
		now:            time.Now,
	}
}

type EnrollRequest struct {
	UserID          string           `json:"userId" binding:"required"`
	CourseID        string           `json:"courseId" binding:"required"`
	TransactionHash string           `json:"transactionHash"`
	Amount          *decimal.Decimal `json:"amount"`
	SenderAddress   string           `json:"senderAddress"`
}

type WalletEnrollRequest struct {
	WalletAddress   string           `json:"walletAddress" binding:"required"`
	CourseID        string           `json:"courseId" binding:"required"`
	TransactionHash string           `json:"transactionHash"`
	Amount          *decimal.Decimal `json:"amount"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// PaymentProof 交易哈希或金额缺失时返回 nil，付费课程据此判定为未支付
func (r EnrollRequest) PaymentProof() *model.PaymentProof {
	return paymentProof(r.TransactionHash, r.Amount, r.SenderAddress)
}

func paymentProof(txHash string, amount *decimal.Decimal, sender string) *model.PaymentProof {
	if strings.TrimSpace(txHash) == "" || amount == nil {
		return nil
	}
	return &model.PaymentProof{TransactionHash: txHash, Amount: *amount, SenderAddress: sender}
}

// Enroll 付费课程先校验支付，再原子地创建报名；任何校验失败都不会写库
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string, payment *model.PaymentProof) (*model.Enrollment, error) {
	ctx, span := tracing.Tracer.Start(ctx, "enrollment.Enroll")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("course.id", courseID))

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	course, err := s.findCourse(courseID)
	if err != nil {
		return nil, err
	}

	if course.IsPaid() {
		if err := s.checkPayment(ctx, course, payment); err != nil {
			return nil, err
		}
	}

	enrollment := &model.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}

	logger.Log.Info("User enrolled",
		zap.String("enrollmentId", enrollment.ID),
		zap.String("userId", user.ID),
		zap.String("courseId", course.ID))

	enrollment.User = user
	enrollment.Course = course
	return enrollment, nil
}

func (s *EnrollmentService) findCourse(courseID string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *EnrollmentService) checkPayment(ctx context.Context, course *model.Course, payment *model.PaymentProof) error {
	if payment == nil || strings.TrimSpace(payment.TransactionHash) == "" {
		return util.ErrPaymentRequired
	}

	verification, err := s.Payments.Verify(ctx, *payment)
	if err != nil {
		return err
	}
	if !verification.Valid {
		return util.Errorf(util.ErrPaymentInvalid, "payment verification failed: %s", verification.Error)
	}

	if payment.Amount.LessThan(course.Price) {
		return util.Errorf(util.ErrPaymentInsufficient, "amount paid (%s) is less than course price (%s)",
			payment.Amount.String(), course.Price.String())
	}
	return nil
}

// EnrollByWallet 按钱包找到（或创建）用户后报名；重复报名在校验支付之前拒绝
func (s *EnrollmentService) EnrollByWallet(ctx context.Context, req WalletEnrollRequest) (*model.Enrollment, error) {
	user, err := s.Users.GetOrCreateByWallet(req.WalletAddress, "", "")
	if err != nil {
		return nil, err
	}

	if _, err := s.findCourse(req.CourseID); err != nil {
		return nil, err
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(user.ID, req.CourseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.Enroll(ctx, user.ID, req.CourseID, paymentProof(req.TransactionHash, req.Amount, req.WalletAddress))
}

func (s *EnrollmentService) GetEnrollment(id string) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrEnrollmentNotFound
	}
	return enrollment, err
}

func (s *EnrollmentService) ListByUser(userID string) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

// ListByWallet 钱包未注册时返回空列表
func (s *EnrollmentService) ListByWallet(wallet string) ([]model.Enrollment, error) {
	user, err := s.UserRepo.FindByWallet(wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.Enrollment{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.EnrollmentRepo.ListByUser(user.ID)
}

// UpdateProgress 进度被限制在 [0,100]；首次达到 100 时签发证书
func (s *EnrollmentService) UpdateProgress(ctx context.Context, id string, progress int) (*model.Enrollment, error) {
	enrollment, err := s.GetEnrollment(id)
	if err != nil {
		return nil, err
	}

	enrollment.SetProgress(progress, s.now())
	if err := s.EnrollmentRepo.SaveProgress(enrollment); err != nil {
		return nil, err
	}

	if enrollment.Completed && enrollment.Certificate == nil {
		s.issueCertificate(ctx, enrollment)
	}
	return enrollment, nil
}

// CompleteCourse 幂等：已完成时直接返回已有证书。
// 先持久化完成状态，再尝试签发证书，签发失败不回滚完成状态。
func (s *EnrollmentService) CompleteCourse(ctx context.Context, id string) (*model.Enrollment, error) {
	ctx, span := tracing.Tracer.Start(ctx, "enrollment.CompleteCourse")
	defer span.End()

	enrollment, err := s.GetEnrollment(id)
	if err != nil {
		return nil, err
	}

	if !enrollment.Completed {
		enrollment.SetProgress(model.MaxProgress, s.now())
		if err := s.EnrollmentRepo.SaveProgress(enrollment); err != nil {
			return nil, err
		}
	}

	if enrollment.Certificate == nil {
		s.issueCertificate(ctx, enrollment)
	}
	return enrollment, nil
}

func (s *EnrollmentService) issueCertificate(ctx context.Context, enrollment *model.Enrollment) {
	cert, err := s.Certificates.Issue(ctx, enrollment)
	if err != nil {
		// 完成状态已保存，证书问题只记录日志
		logger.Log.Error("Failed to record certificate",
			zap.String("enrollmentId", enrollment.ID),
			zap.Error(err))
		return
	}
	enrollment.Certificate = cert
}
