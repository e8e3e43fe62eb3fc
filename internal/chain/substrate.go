package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"golang.org/x/crypto/blake2b"
)

type Options struct {
	URL            string
	ConnectTimeout time.Duration
	SubmitTimeout  time.Duration
	Mnemonic       string
	SS58Format     uint16
}

// SubstrateClient 基于 go-substrate-rpc-client 的 Client 实现
type SubstrateClient struct {
	api     *gsrpc.SubstrateAPI
	meta    *types.Metadata
	genesis types.Hash
	runtime *types.RuntimeVersion
	keyring *signature.KeyringPair
	opts    Options
	pallet  NFTPallet

	// 同一签名账户的 nonce 读取与提交必须串行
	submitMu sync.Mutex
}

// Dial 建立连接并加载元数据，超过 ConnectTimeout 返回错误
func Dial(ctx context.Context, opts Options) (*SubstrateClient, error) {
	type dialResult struct {
		api *gsrpc.SubstrateAPI
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	ch := make(chan dialResult, 1)
	go func() {
		api, err := gsrpc.NewSubstrateAPI(opts.URL)
		ch <- dialResult{api: api, err: err}
	}()

	var api *gsrpc.SubstrateAPI
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.api != nil {
				r.api.Client.Close()
			}
		}()
		return nil, fmt.Errorf("connect %s: %w", opts.URL, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("connect %s: %w", opts.URL, r.err)
		}
		api = r.api
	}

	c := &SubstrateClient{api: api, opts: opts}
	if err := c.load(); err != nil {
		api.Client.Close()
		return nil, err
	}
	c.pallet = DetectNFTPallet(c)
	return c, nil
}

func (c *SubstrateClient) load() error {
	meta, err := c.api.RPC.State.GetMetadataLatest()
	if err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	genesis, err := c.api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return fmt.Errorf("get genesis hash: %w", err)
	}
	rv, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return fmt.Errorf("get runtime version: %w", err)
	}
	c.meta, c.genesis, c.runtime = meta, genesis, rv

	if c.opts.Mnemonic != "" {
		kp, err := signature.KeyringPairFromSecret(c.opts.Mnemonic, c.opts.SS58Format)
		if err != nil {
			return fmt.Errorf("load admin key: %w", err)
		}
		c.keyring = &kp
	}
	return nil
}

func (c *SubstrateClient) Close() {
	c.api.Client.Close()
}

func (c *SubstrateClient) NFTPallet() NFTPallet {
	return c.pallet
}

func (c *SubstrateClient) SS58Format() uint16 {
	return c.opts.SS58Format
}

func (c *SubstrateClient) Signer() (*Signer, error) {
	if c.keyring == nil {
		return nil, ErrNoSigner
	}
	return &Signer{
		Address:   EncodeAddress(c.keyring.PublicKey, c.opts.SS58Format),
		PublicKey: c.keyring.PublicKey,
	}, nil
}

func (c *SubstrateClient) HasCall(name string) bool {
	_, err := c.meta.FindCallIndex(name)
	return err == nil
}

func (c *SubstrateClient) Storage(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.api.RPC.State.GetStorageRawLatest(types.StorageKey(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return []byte(*raw), nil
}

const keysPageSize = 1000

func (c *SubstrateClient) StorageKeys(ctx context.Context, prefix []byte) ([][]byte, error) {
	var (
		keys    [][]byte
		startAt *string
	)
	prefixHex := hexString(prefix)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page []string
		args := []interface{}{prefixHex, keysPageSize}
		if startAt != nil {
			args = append(args, *startAt)
		}
		if err := c.api.Client.Call(&page, "state_getKeysPaged", args...); err != nil {
			return nil, fmt.Errorf("state_getKeysPaged: %w", err)
		}

		for _, k := range page {
			b, err := hex.DecodeString(strings.TrimPrefix(k, "0x"))
			if err != nil {
				return nil, fmt.Errorf("decode storage key: %w", err)
			}
			keys = append(keys, b)
		}

		if len(page) < keysPageSize {
			return keys, nil
		}
		last := page[len(page)-1]
		startAt = &last
	}
}

func (c *SubstrateClient) buildCall(calls []Call) (types.Call, error) {
	built := make([]types.Call, 0, len(calls))
	for _, call := range calls {
		tc, err := types.NewCall(c.meta, call.Name, call.Args...)
		if err != nil {
			return types.Call{}, fmt.Errorf("build call %s: %w", call.Name, err)
		}
		built = append(built, tc)
	}
	if len(built) == 1 {
		return built[0], nil
	}
	return types.NewCall(c.meta, "Utility.batch_all", built)
}

func (c *SubstrateClient) Submit(ctx context.Context, calls ...Call) (*Receipt, error) {
	if c.keyring == nil {
		return nil, ErrNoSigner
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("no calls to submit")
	}

	call, err := c.buildCall(calls)
	if err != nil {
		return nil, err
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	account, err := QueryAccount(ctx, c, c.keyring.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("read signer nonce: %w", err)
	}

	ext := types.NewExtrinsic(call)
	err = ext.Sign(*c.keyring, types.SignatureOptions{
		BlockHash:          c.genesis,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        c.genesis,
		Nonce:              types.NewUCompactFromUInt(uint64(account.Nonce)),
		SpecVersion:        c.runtime.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: c.runtime.TransactionVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("sign extrinsic: %w", err)
	}

	encoded, err := codec.Encode(ext)
	if err != nil {
		return nil, fmt.Errorf("encode extrinsic: %w", err)
	}
	txHash := blake2b.Sum256(encoded)

	sub, err := c.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return nil, fmt.Errorf("submit extrinsic: %w", err)
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(c.opts.SubmitTimeout)
	defer timer.Stop()

	var blockHash types.Hash
wait:
	for {
		select {
		case status := <-sub.Chan():
			switch {
			case status.IsInBlock:
				blockHash = status.AsInBlock
				break wait
			case status.IsFinalized:
				blockHash = status.AsFinalized
				break wait
			case status.IsDropped, status.IsInvalid, status.IsUsurped:
				return nil, fmt.Errorf("extrinsic 0x%x was dropped or invalid", txHash)
			}
		case err := <-sub.Err():
			return nil, fmt.Errorf("watch extrinsic: %w", err)
		case <-timer.C:
			return nil, ErrSubmitTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	receipt := &Receipt{
		TxHash:    hexString(txHash[:]),
		BlockHash: blockHash.Hex(),
	}
	if err := c.checkDispatch(blockHash, hexString(encoded), receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// checkDispatch 在区块事件中查找本交易的 ExtrinsicFailed；事件无法解析时保留 DispatchChecked=false
func (c *SubstrateClient) checkDispatch(blockHash types.Hash, extHex string, receipt *Receipt) error {
	var block struct {
		Block struct {
			Extrinsics []string `json:"extrinsics"`
		} `json:"block"`
	}
	if err := c.api.Client.Call(&block, "chain_getBlock", blockHash.Hex()); err != nil {
		return nil
	}

	index := -1
	for i, x := range block.Block.Extrinsics {
		if strings.EqualFold(x, extHex) {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	raw, err := c.api.RPC.State.GetStorageRaw(types.StorageKey(StoragePrefix("System", "Events")), blockHash)
	if err != nil || raw == nil {
		return nil
	}

	var events types.EventRecords
	if err := types.EventRecordsRaw(*raw).DecodeEventRecords(c.meta, &events); err != nil {
		return nil
	}

	receipt.DispatchChecked = true
	for _, e := range events.System_ExtrinsicFailed {
		if e.Phase.IsApplyExtrinsic && uint32(e.Phase.AsApplyExtrinsic) == uint32(index) {
			return describeDispatchError(c.meta, e.DispatchError)
		}
	}
	return nil
}

// describeDispatchError 模块错误查元数据，其余按 DispatchError 变体命名
func describeDispatchError(meta *types.Metadata, de types.DispatchError) error {
	if de.IsModule {
		return LookupModuleError(meta, uint8(de.ModuleError.Index), uint8(de.ModuleError.Error[0]))
	}
	return &DispatchError{Pallet: "system", Name: dispatchErrorVariant(de)}
}

func dispatchErrorVariant(de types.DispatchError) string {
	switch {
	case de.IsOther:
		return "Other"
	case de.IsCannotLookup:
		return "CannotLookup"
	case de.IsBadOrigin:
		return "BadOrigin"
	case de.IsConsumerRemaining:
		return "ConsumerRemaining"
	case de.IsNoProviders:
		return "NoProviders"
	case de.IsTooManyConsumers:
		return "TooManyConsumers"
	case de.IsToken:
		return "Token"
	case de.IsArithmetic:
		return "Arithmetic"
	case de.IsTransactional:
		return "Transactional"
	}
	return "DispatchError"
}

// LookupModuleError 通过 V14 元数据把 (pallet index, error index) 还原为可读错误
func LookupModuleError(meta *types.Metadata, palletIndex, errorIndex uint8) *DispatchError {
	unknown := &DispatchError{
		Pallet: fmt.Sprintf("pallet%d", palletIndex),
		Name:   fmt.Sprintf("error%d", errorIndex),
	}
	if meta == nil || meta.Version != 14 {
		return unknown
	}

	for _, p := range meta.AsMetadataV14.Pallets {
		if uint8(p.Index) != palletIndex {
			continue
		}
		unknown.Pallet = lowerFirst(string(p.Name))
		if !p.HasErrors {
			return unknown
		}
		typeID := p.Errors.Type.Int64()
		for _, t := range meta.AsMetadataV14.Lookup.Types {
			if t.ID.Int64() != typeID || !t.Type.Def.IsVariant {
				continue
			}
			for _, v := range t.Type.Def.Variant.Variants {
				if uint8(v.Index) != errorIndex {
					continue
				}
				docs := make([]string, 0, len(v.Docs))
				for _, d := range v.Docs {
					docs = append(docs, strings.TrimSpace(string(d)))
				}
				return &DispatchError{
					Pallet: unknown.Pallet,
					Name:   string(v.Name),
					Docs:   strings.Join(docs, " "),
				}
			}
		}
		return unknown
	}
	return unknown
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func hexString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
