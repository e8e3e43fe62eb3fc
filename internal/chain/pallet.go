package chain

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Item 链上 NFT 的二级地址 (collection, item)
type Item struct {
	Collection uint32
	Item       uint32
}

type ItemInfo struct {
	Owner    []byte
	Metadata string
}

// NFTPallet 屏蔽 uniques 与 nfts 两个 pallet 的差异
type NFTPallet interface {
	Name() string
	// AssignsCollectionIDs 为 true 时 collection id 由链自增分配，传入的 id 被忽略
	AssignsCollectionIDs() bool
	// CollectionOwner collection 不存在时 exists 为 false
	CollectionOwner(ctx context.Context, collection uint32) (owner []byte, exists bool, err error)
	CreateCollection(ctx context.Context, collection uint32, admin []byte) (uint32, *Receipt, error)
	ItemExists(ctx context.Context, collection, item uint32) (bool, error)
	// MintWithMetadata 在一个 batch_all 中铸造并写入元数据
	MintWithMetadata(ctx context.Context, collection, item uint32, owner []byte, metadata string) (*Receipt, error)
	ItemsOwnedBy(ctx context.Context, owner []byte, collection *uint32) ([]Item, error)
	ItemInfo(ctx context.Context, collection, item uint32) (*ItemInfo, error)
}

// DetectNFTPallet 优先使用 uniques，其次 nfts，都不支持时返回 nil
func DetectNFTPallet(l Ledger) NFTPallet {
	switch {
	case l.HasCall("Uniques.mint"):
		return &uniquesPallet{ledger: l}
	case l.HasCall("Nfts.mint"):
		return &nftsPallet{ledger: l}
	default:
		return nil
	}
}

func multiAddress(accountID []byte) (types.MultiAddress, error) {
	addr, err := types.NewMultiAddressFromAccountID(accountID)
	if err != nil {
		return types.MultiAddress{}, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	return addr, nil
}

// ownerFromStorage 读取存储值开头的 owner 字段
func ownerFromStorage(ctx context.Context, l Ledger, key []byte) ([]byte, bool, error) {
	raw, err := l.Storage(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	owner, err := readAccountID(newDecoder(raw))
	if err != nil {
		return nil, false, fmt.Errorf("decode owner: %w", err)
	}
	return owner, true, nil
}

func exists(ctx context.Context, l Ledger, key []byte) (bool, error) {
	raw, err := l.Storage(ctx, key)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// ownedItems 遍历 Account(owner, collection, item) 三级 map 的键
func ownedItems(ctx context.Context, l Ledger, pallet string, owner []byte, collection *uint32) ([]Item, error) {
	prefix := MapKey(pallet, "Account", owner)
	if collection != nil {
		prefix = append(prefix, blake2_128Concat(u32LE(*collection))...)
	}

	keys, err := l.StorageKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	base := len(MapKey(pallet, "Account", owner))
	items := make([]Item, 0, len(keys))
	for _, key := range keys {
		if len(key) < base {
			continue
		}
		parts, err := splitConcatKeys(key[base:], 4, 4)
		if err != nil {
			continue
		}
		items = append(items, Item{
			Collection: leU32(parts[0]),
			Item:       leU32(parts[1]),
		})
	}
	return items, nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// verifyMinted Receipt 未能确认执行结果时，以链上状态为准
func verifyMinted(ctx context.Context, p NFTPallet, receipt *Receipt, collection, item uint32) error {
	if receipt.DispatchChecked {
		return nil
	}
	ok, err := p.ItemExists(ctx, collection, item)
	if err != nil {
		return fmt.Errorf("verify mint: %w", err)
	}
	if !ok {
		return fmt.Errorf("extrinsic %s included but item %d/%d was not minted", receipt.TxHash, collection, item)
	}
	return nil
}
