package service

import (
	"context"
	"regexp"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"

	"github.com/shopspring/decimal"
)

var txHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// PaymentService 课程支付校验。
// 只校验格式（地址校验和、交易哈希格式、金额为正），不在链上确认转账是否真实发生。
type PaymentService struct {
	Chain        ChainProvider
	AdminAddress string
	Decimals     int32
}

func NewPaymentService(provider ChainProvider, adminAddress string, decimals int32) *PaymentService {
	return &PaymentService{
		Chain:        provider,
		AdminAddress: adminAddress,
		Decimals:     decimals,
	}
}

// Recipient 收款地址：优先使用配置的管理员地址，否则使用签名账户地址
func (s *PaymentService) Recipient(ctx context.Context) (string, error) {
	if s.AdminAddress != "" {
		return s.AdminAddress, nil
	}
	client, err := s.Chain.Client(ctx)
	if err != nil {
		return "", util.Wrap(util.ErrUnavailable, err, "payment recipient not configured")
	}
	signer, err := client.Signer()
	if err != nil {
		return "", util.Wrap(util.ErrUnavailable, err, "payment recipient not configured")
	}
	return signer.Address, nil
}

// Verify 校验顺序：地址 -> 哈希格式 -> 金额。不合法时返回 Valid=false 而非 error。
func (s *PaymentService) Verify(ctx context.Context, proof model.PaymentProof) (*model.PaymentVerification, error) {
	recipient, err := s.Recipient(ctx)
	if err != nil {
		return nil, err
	}
	return VerifyPaymentFormat(proof, recipient), nil
}

func VerifyPaymentFormat(proof model.PaymentProof, recipient string) *model.PaymentVerification {
	if !chain.ValidateAddress(recipient) {
		return &model.PaymentVerification{Valid: false, Error: "invalid address"}
	}
	if proof.SenderAddress != "" && !chain.ValidateAddress(proof.SenderAddress) {
		return &model.PaymentVerification{Valid: false, Error: "invalid address"}
	}

	if !txHashPattern.MatchString(proof.TransactionHash) {
		return &model.PaymentVerification{Valid: false, Error: "invalid transaction hash format"}
	}

	if !proof.Amount.IsPositive() {
		return &model.PaymentVerification{Valid: false, Error: "amount must be greater than 0"}
	}

	return &model.PaymentVerification{
		Valid:           true,
		TransactionHash: proof.TransactionHash,
		Amount:          proof.Amount.String(),
		To:              recipient,
		From:            proof.SenderAddress,
	}
}

// FormattedBalance 可用余额（最小单位）及保留 4 位小数的显示值
func (s *PaymentService) FormattedBalance(ctx context.Context, address string) (*model.FormattedBalance, error) {
	info, err := queryAccount(ctx, s.Chain, address)
	if err != nil {
		return nil, err
	}
	return &model.FormattedBalance{
		Balance:   info.Free.String(),
		Formatted: decimal.NewFromBigInt(info.Free, -s.Decimals).StringFixed(4),
	}, nil
}
