package service

import (
	"polkaedu_backend/internal/model"
	"polkaedu_backend/pkg/logger"
	"polkaedu_backend/pkg/monitoring"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var certificateStatuses = []model.CertificateStatus{
	model.CertificateIssued,
	model.CertificatePending,
	model.CertificateFailed,
}

// JobService 后台定时任务
type JobService struct {
	Certificates *CertificateService
	cron         *cron.Cron
}

func NewJobService(certificates *CertificateService) *JobService {
	return &JobService{
		Certificates: certificates,
		cron:         cron.New(),
	}
}

// Start 按 cron 表达式（或 @every）刷新证书状态指标
func (s *JobService) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RefreshCertificateStats); err != nil {
		return err
	}
	s.cron.Start()
	logger.Log.Info("Background jobs started", zap.String("schedule", schedule))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *JobService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *JobService) RefreshCertificateStats() {
	counts, err := s.Certificates.CountByStatus()
	if err != nil {
		logger.Log.Error("Failed to count certificates", zap.Error(err))
		return
	}
	for _, status := range certificateStatuses {
		monitoring.CertificatesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
