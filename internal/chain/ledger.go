package chain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoSigner      = errors.New("no admin signing key configured")
	ErrSubmitTimeout = errors.New("timed out waiting for extrinsic inclusion")
	ErrNoNFTPallet   = errors.New("no NFT pallet available on this network")
	ErrNotConnected  = errors.New("blockchain connection disabled")
)

// Call 一次运行时调用，Name 形如 "Uniques.mint"
type Call struct {
	Name string
	Args []interface{}
}

func NewCall(name string, args ...interface{}) Call {
	return Call{Name: name, Args: args}
}

// Receipt 交易已打包进区块
type Receipt struct {
	TxHash    string
	BlockHash string
	// DispatchChecked 为 false 表示无法解析区块事件，调用方需自行核对链上状态
	DispatchChecked bool
}

type Signer struct {
	Address   string
	PublicKey []byte
}

// DispatchError 运行时拒绝执行的交易，Error() 形如 "uniques.InUse: The asset ID is already taken."
type DispatchError struct {
	Pallet string
	Name   string
	Docs   string
}

func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("%s.%s", e.Pallet, e.Name)
	if e.Docs != "" {
		msg += ": " + e.Docs
	}
	return "Transaction failed: " + msg
}

// Is 按错误名匹配，便于 errors.Is(err, &DispatchError{Name: "InUse"})
func (e *DispatchError) Is(target error) bool {
	t, ok := target.(*DispatchError)
	if !ok {
		return false
	}
	return t.Name == e.Name && (t.Pallet == "" || t.Pallet == e.Pallet)
}

// Ledger 链访问的最小接口，NFT pallet 实现基于它编写
type Ledger interface {
	// Storage 返回原始存储值，不存在时返回 nil
	Storage(ctx context.Context, key []byte) ([]byte, error)
	StorageKeys(ctx context.Context, prefix []byte) ([][]byte, error)
	HasCall(name string) bool
	// Submit 签名并提交，多个调用以 Utility.batch_all 原子执行
	Submit(ctx context.Context, calls ...Call) (*Receipt, error)
	Signer() (*Signer, error)
	SS58Format() uint16
}

// Client 业务层使用的链客户端
type Client interface {
	Ledger
	// NFTPallet 连接时探测一次，不支持时为 nil
	NFTPallet() NFTPallet
}
