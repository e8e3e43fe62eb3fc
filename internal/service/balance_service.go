package service

import (
	"context"
	"math/big"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"

	"github.com/shopspring/decimal"
)

type BalanceService struct {
	Chain    ChainProvider
	Decimals int32
}

func NewBalanceService(provider ChainProvider, decimals int32) *BalanceService {
	return &BalanceService{Chain: provider, Decimals: decimals}
}

func queryAccount(ctx context.Context, provider ChainProvider, address string) (*chain.AccountInfo, error) {
	accountID, err := chain.DecodeAddress(address)
	if err != nil {
		return nil, util.Errorf(util.ErrValidation, "invalid address: %s", address)
	}

	client, err := provider.Client(ctx)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "blockchain connection not available")
	}

	info, err := chain.QueryAccount(ctx, client, accountID)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to query balance")
	}
	return info, nil
}

func (s *BalanceService) units(v *big.Int) string {
	return decimal.NewFromBigInt(v, -s.Decimals).String()
}

// Balance 余额，已换算为代币单位
func (s *BalanceService) Balance(ctx context.Context, address string) (*model.BalanceInfo, error) {
	info, err := queryAccount(ctx, s.Chain, address)
	if err != nil {
		return nil, err
	}
	return &model.BalanceInfo{
		Address:  address,
		Free:     s.units(info.Free),
		Reserved: s.units(info.Reserved),
		Frozen:   s.units(info.Frozen),
		Total:    s.units(info.Total()),
	}, nil
}

// MyBalance 管理员签名账户的余额
func (s *BalanceService) MyBalance(ctx context.Context) (*model.BalanceInfo, error) {
	client, err := s.Chain.Client(ctx)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "blockchain connection not available")
	}
	signer, err := client.Signer()
	if err != nil {
		return nil, util.Wrap(util.ErrValidation, err, "no signing account configured, set NFT_ADMIN_MNEMONIC")
	}
	return s.Balance(ctx, signer.Address)
}

// AccountInfo System.Account 原始字段，余额为最小单位
func (s *BalanceService) AccountInfo(ctx context.Context, address string) (*model.AccountInfo, error) {
	info, err := queryAccount(ctx, s.Chain, address)
	if err != nil {
		return nil, err
	}
	return &model.AccountInfo{
		Address:     address,
		Nonce:       info.Nonce,
		Consumers:   info.Consumers,
		Providers:   info.Providers,
		Sufficients: info.Sufficients,
		Data: model.BalanceInfo{
			Address:  address,
			Free:     info.Free.String(),
			Reserved: info.Reserved.String(),
			Frozen:   info.Frozen.String(),
			Total:    info.Total().String(),
		},
	}, nil
}
