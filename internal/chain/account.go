package chain

import (
	"context"
	"fmt"
	"math/big"
)

// AccountInfo System.Account 存储值
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Free        *big.Int
	Reserved    *big.Int
	Frozen      *big.Int
}

func (a *AccountInfo) Total() *big.Int {
	return new(big.Int).Add(a.Free, a.Reserved)
}

func AccountKey(accountID []byte) []byte {
	return MapKey("System", "Account", accountID)
}

// QueryAccount 账户不存在时返回全零余额
func QueryAccount(ctx context.Context, l Ledger, accountID []byte) (*AccountInfo, error) {
	raw, err := l.Storage(ctx, AccountKey(accountID))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &AccountInfo{Free: new(big.Int), Reserved: new(big.Int), Frozen: new(big.Int)}, nil
	}
	return decodeAccountInfo(raw)
}

func decodeAccountInfo(raw []byte) (*AccountInfo, error) {
	dec := newDecoder(raw)
	info := &AccountInfo{}
	var err error

	for _, dst := range []*uint32{&info.Nonce, &info.Consumers, &info.Providers, &info.Sufficients} {
		if *dst, err = readU32(dec); err != nil {
			return nil, fmt.Errorf("decode account info: %w", err)
		}
	}
	for _, dst := range []**big.Int{&info.Free, &info.Reserved, &info.Frozen} {
		if *dst, err = readU128(dec); err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
	}
	return info, nil
}
