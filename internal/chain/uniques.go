package chain

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// uniquesPallet collection 与 item id 均由调用方指定
type uniquesPallet struct {
	ledger Ledger
}

func (p *uniquesPallet) Name() string { return "uniques" }

func (p *uniquesPallet) AssignsCollectionIDs() bool { return false }

func (p *uniquesPallet) CollectionOwner(ctx context.Context, collection uint32) ([]byte, bool, error) {
	return ownerFromStorage(ctx, p.ledger, MapKey("Uniques", "Class", u32LE(collection)))
}

func (p *uniquesPallet) CreateCollection(ctx context.Context, collection uint32, admin []byte) (uint32, *Receipt, error) {
	addr, err := multiAddress(admin)
	if err != nil {
		return 0, nil, err
	}
	receipt, err := p.ledger.Submit(ctx, NewCall("Uniques.create", types.NewU32(collection), addr))
	if err != nil {
		return 0, nil, err
	}
	return collection, receipt, nil
}

func (p *uniquesPallet) ItemExists(ctx context.Context, collection, item uint32) (bool, error) {
	return exists(ctx, p.ledger, MapKey("Uniques", "Asset", u32LE(collection), u32LE(item)))
}

func (p *uniquesPallet) MintWithMetadata(ctx context.Context, collection, item uint32, owner []byte, metadata string) (*Receipt, error) {
	addr, err := multiAddress(owner)
	if err != nil {
		return nil, err
	}

	receipt, err := p.ledger.Submit(ctx,
		NewCall("Uniques.mint", types.NewU32(collection), types.NewU32(item), addr),
		NewCall("Uniques.set_metadata", types.NewU32(collection), types.NewU32(item), types.NewBytes([]byte(metadata)), types.NewBool(false)),
	)
	if err != nil {
		return nil, err
	}
	if err := verifyMinted(ctx, p, receipt, collection, item); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (p *uniquesPallet) ItemsOwnedBy(ctx context.Context, owner []byte, collection *uint32) ([]Item, error) {
	return ownedItems(ctx, p.ledger, "Uniques", owner, collection)
}

func (p *uniquesPallet) ItemInfo(ctx context.Context, collection, item uint32) (*ItemInfo, error) {
	owner, ok, err := ownerFromStorage(ctx, p.ledger, MapKey("Uniques", "Asset", u32LE(collection), u32LE(item)))
	if err != nil || !ok {
		return nil, err
	}

	info := &ItemInfo{Owner: owner}
	raw, err := p.ledger.Storage(ctx, MapKey("Uniques", "InstanceMetadataOf", u32LE(collection), u32LE(item)))
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		// ItemMetadata { deposit: u128, data: BoundedVec<u8>, is_frozen: bool }
		dec := newDecoder(raw)
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
