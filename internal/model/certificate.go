package model

import (
	"time"

	"gorm.io/gorm"
)

type CertificateStatus string

const (
	// CertificateIssued 已上链，带 tokenId 与交易哈希
	CertificateIssued CertificateStatus = "issued"
	// CertificateFailed 上链失败，FailureReason 记录原因
	CertificateFailed CertificateStatus = "failed"
	// CertificatePending 网络不支持 NFT 或未配置链，等待后续处理
	CertificatePending CertificateStatus = "pending"
)

// swagger:model Certificate
type Certificate struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EnrollmentID    string            `gorm:"type:varchar(36);not null;uniqueIndex" json:"enrollmentId"`
	UserID          string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	CourseID        string            `gorm:"type:varchar(36);not null;index" json:"courseId"`
	Status          CertificateStatus `gorm:"size:16;not null;index" json:"status"`
	NFTTokenID      *string           `gorm:"column:nft_token_id;size:32" json:"nftTokenId,omitempty"`
	NFTCollectionID string            `gorm:"column:nft_collection_id;size:32" json:"nftCollectionId"`
	TransactionHash *string           `gorm:"size:80" json:"transactionHash,omitempty"`
	MetadataURL     *string           `gorm:"size:512" json:"metadataUrl,omitempty"`
	FailureReason   string            `gorm:"type:text" json:"failureReason,omitempty"`
	IssuedAt        time.Time         `json:"issuedAt"`
	Course          *Course           `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	User            *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = GenerateID()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now()
	}
	return nil
}

// IsPending 没有链上凭证（pending 或 failed）
func (c *Certificate) IsPending() bool {
	return c.Status != CertificateIssued
}
