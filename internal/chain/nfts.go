package chain

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// nftsPallet collection id 由链上 NextCollectionId 自增分配
type nftsPallet struct {
	ledger Ledger
}

// collectionConfig pallet-nfts CollectionConfig，全部使用默认设置
type collectionConfig struct {
	Settings            types.U64
	MaxSupply           types.OptionU32
	MintType            types.U8
	Price               types.OptionU32 // Option<Balance>::None，None 的编码与内部类型无关
	StartBlock          types.OptionU32
	EndBlock            types.OptionU32
	DefaultItemSettings types.U64
}

func (p *nftsPallet) Name() string { return "nfts" }

func (p *nftsPallet) AssignsCollectionIDs() bool { return true }

func (p *nftsPallet) CollectionOwner(ctx context.Context, collection uint32) ([]byte, bool, error) {
	return ownerFromStorage(ctx, p.ledger, MapKey("Nfts", "Collection", u32LE(collection)))
}

func (p *nftsPallet) nextCollectionID(ctx context.Context) (uint32, error) {
	raw, err := p.ledger.Storage(ctx, StoragePrefix("Nfts", "NextCollectionId"))
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	return readU32(newDecoder(raw))
}

// CreateCollection 忽略传入的 id，返回链实际分配的 id
func (p *nftsPallet) CreateCollection(ctx context.Context, _ uint32, admin []byte) (uint32, *Receipt, error) {
	addr, err := multiAddress(admin)
	if err != nil {
		return 0, nil, err
	}

	next, err := p.nextCollectionID(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("read next collection id: %w", err)
	}

	cfg := collectionConfig{
		MaxSupply:  types.NewOptionU32Empty(),
		Price:      types.NewOptionU32Empty(),
		StartBlock: types.NewOptionU32Empty(),
		EndBlock:   types.NewOptionU32Empty(),
	}
	receipt, err := p.ledger.Submit(ctx, NewCall("Nfts.create", addr, cfg))
	if err != nil {
		return 0, nil, err
	}
	return next, receipt, nil
}

func (p *nftsPallet) ItemExists(ctx context.Context, collection, item uint32) (bool, error) {
	return exists(ctx, p.ledger, MapKey("Nfts", "Item", u32LE(collection), u32LE(item)))
}

func (p *nftsPallet) MintWithMetadata(ctx context.Context, collection, item uint32, owner []byte, metadata string) (*Receipt, error) {
	addr, err := multiAddress(owner)
	if err != nil {
		return nil, err
	}

	receipt, err := p.ledger.Submit(ctx,
		NewCall("Nfts.mint", types.NewU32(collection), types.NewU32(item), addr, types.NewOptionU32Empty()),
		NewCall("Nfts.set_metadata", types.NewU32(collection), types.NewU32(item), types.NewBytes([]byte(metadata))),
	)
	if err != nil {
		return nil, err
	}
	if err := verifyMinted(ctx, p, receipt, collection, item); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (p *nftsPallet) ItemsOwnedBy(ctx context.Context, owner []byte, collection *uint32) ([]Item, error) {
	return ownedItems(ctx, p.ledger, "Nfts", owner, collection)
}

func (p *nftsPallet) ItemInfo(ctx context.Context, collection, item uint32) (*ItemInfo, error) {
	owner, ok, err := ownerFromStorage(ctx, p.ledger, MapKey("Nfts", "Item", u32LE(collection), u32LE(item)))
	if err != nil || !ok {
		return nil, err
	}

	info := &ItemInfo{Owner: owner}
	raw, err := p.ledger.Storage(ctx, MapKey("Nfts", "ItemMetadataOf", u32LE(collection), u32LE(item)))
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		// ItemMetadata { deposit: { account: Option<AccountId>, amount: u128 }, data: BoundedVec<u8> }
		dec := newDecoder(raw)
		if err := skipOptionAccountID(dec); err != nil {
			return nil, fmt.Errorf("decode item metadata: %w", err)
		}
		if _, err := readU128(dec); err != nil {
			return nil, fmt.Errorf("decode item metadata: %w", err)
		}
		data, err := readBytes(dec)
		if err != nil {
			return nil, fmt.Errorf("decode item metadata: %w", err)
		}
		info.Metadata = string(data)
	}
	return info, nil
}
