package service

import (
	"context"
	"encoding/hex"
	"sort"
	"sync"
	"testing"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	alicePubHex  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	bobAddress   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	bobPubHex    = "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"

	validTxHash = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

func pub(t *testing.T, h string) []byte {
	t.Helper()
	b, err := hex.DecodeString(h)
	require.NoError(t, err)
	return b
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type mintCall struct {
	Collection uint32
	Item       uint32
	Owner      []byte
	Metadata   string
}

// fakePallet 内存版 NFT pallet
type fakePallet struct {
	mu sync.Mutex

	name    string
	assigns bool
	nextID  uint32

	owners map[uint32][]byte
	items  map[chain.Item]*chain.ItemInfo

	createErrs   []error
	ignoreCreate bool
	mintErr      error
	queryErr     error
	existsErr    error
	createdWith  []uint32
	minted       []mintCall
}

func newFakePallet() *fakePallet {
	return &fakePallet{
		name:   "uniques",
		nextID: 50,
		owners: map[uint32][]byte{},
		items:  map[chain.Item]*chain.ItemInfo{},
	}
}

func (p *fakePallet) Name() string { return p.name }

func (p *fakePallet) AssignsCollectionIDs() bool { return p.assigns }

func (p *fakePallet) CollectionOwner(_ context.Context, collection uint32) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queryErr != nil {
		return nil, false, p.queryErr
	}
	owner, ok := p.owners[collection]
	return owner, ok, nil
}

func (p *fakePallet) CreateCollection(_ context.Context, collection uint32, admin []byte) (uint32, *chain.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createdWith = append(p.createdWith, collection)
	if len(p.createErrs) > 0 {
		err := p.createErrs[0]
		p.createErrs = p.createErrs[1:]
		return 0, nil, err
	}
	id := collection
	if p.assigns {
		id = p.nextID
		p.nextID++
	}
	if !p.ignoreCreate {
		p.owners[id] = admin
	}
	return id, &chain.Receipt{TxHash: "0xcreate", DispatchChecked: true}, nil
}

func (p *fakePallet) ItemExists(_ context.Context, collection, item uint32) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.existsErr != nil {
		return false, p.existsErr
	}
	_, ok := p.items[chain.Item{Collection: collection, Item: item}]
	return ok, nil
}

func (p *fakePallet) MintWithMetadata(_ context.Context, collection, item uint32, owner []byte, metadata string) (*chain.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mintErr != nil {
		return nil, p.mintErr
	}
	key := chain.Item{Collection: collection, Item: item}
	if _, ok := p.items[key]; ok {
		return nil, &chain.DispatchError{Pallet: p.name, Name: "AlreadyExists"}
	}
	p.items[key] = &chain.ItemInfo{Owner: owner, Metadata: metadata}
	p.minted = append(p.minted, mintCall{Collection: collection, Item: item, Owner: owner, Metadata: metadata})
	return &chain.Receipt{TxHash: "0xmint", DispatchChecked: true}, nil
}

func (p *fakePallet) ItemsOwnedBy(_ context.Context, owner []byte, collection *uint32) ([]chain.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []chain.Item
	for key, info := range p.items {
		if !chain.SameAccount(info.Owner, owner) {
			continue
		}
		if collection != nil && key.Collection != *collection {
			continue
		}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Collection != out[j].Collection {
			return out[i].Collection < out[j].Collection
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

func (p *fakePallet) ItemInfo(_ context.Context, collection, item uint32) (*chain.ItemInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items[chain.Item{Collection: collection, Item: item}], nil
}

func (p *fakePallet) mintedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.minted)
}

// fakeClient 只实现业务层用到的部分
type fakeClient struct {
	pallet    *fakePallet
	signer    *chain.Signer
	signerErr error
	storage   map[string][]byte
	storeErr  error
}

func (c *fakeClient) Storage(_ context.Context, key []byte) ([]byte, error) {
	if c.storeErr != nil {
		return nil, c.storeErr
	}
	return c.storage[string(key)], nil
}

func (c *fakeClient) StorageKeys(context.Context, []byte) ([][]byte, error) { return nil, nil }

func (c *fakeClient) HasCall(string) bool { return false }

func (c *fakeClient) Submit(context.Context, ...chain.Call) (*chain.Receipt, error) {
	return nil, chain.ErrNoSigner
}

func (c *fakeClient) Signer() (*chain.Signer, error) {
	if c.signerErr != nil {
		return nil, c.signerErr
	}
	if c.signer == nil {
		return nil, chain.ErrNoSigner
	}
	return c.signer, nil
}

func (c *fakeClient) SS58Format() uint16 { return 42 }

func (c *fakeClient) NFTPallet() chain.NFTPallet {
	if c.pallet == nil {
		return nil
	}
	return c.pallet
}

type fakeProvider struct {
	client chain.Client
	err    error
}

func (p *fakeProvider) Client(context.Context) (chain.Client, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.client, nil
}

type fakePinner struct {
	mu   sync.Mutex
	uri  string
	err  error
	docs []interface{}
}

func (p *fakePinner) Pin(_ context.Context, _ string, document interface{}) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs = append(p.docs, document)
	if p.err != nil {
		return "", p.err
	}
	return p.uri, nil
}

func (p *fakePinner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.docs)
}

func (p *fakePinner) lastMetadata() model.CertificateMetadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docs[len(p.docs)-1].(model.CertificateMetadata)
}
