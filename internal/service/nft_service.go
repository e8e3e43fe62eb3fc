package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/logger"
	"polkaedu_backend/pkg/monitoring"
	"polkaedu_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ChainProvider 延迟获取链客户端，chain.Connector 实现了它
type ChainProvider interface {
	Client(ctx context.Context) (chain.Client, error)
}

type NFTOptions struct {
	CollectionID          uint32
	SettleDelay           time.Duration
	MaxCollectionAttempts int
	MaxTokenAttempts      int
	TokenRetryDelay       time.Duration
}

const (
	collectionIDModulus = 4000000000
	minCollectionID     = 1000
	maxTokenID          = 4294967295
)

// NFTService 证书 NFT 的铸造与查询
type NFTService struct {
	Chain  ChainProvider
	Pinner MetadataPinner
	Locker MintLocker
	opts   NFTOptions

	// 当前生效的 collection，所有权校验失败后会被替换
	mu           sync.Mutex
	collectionID uint32

	now      func() time.Time
	randIntn func(n int) int
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewNFTService(provider ChainProvider, pinner MetadataPinner, locker MintLocker, opts NFTOptions) *NFTService {
	if opts.MaxCollectionAttempts <= 0 {
		opts.MaxCollectionAttempts = 5
	}
	if opts.MaxTokenAttempts <= 0 {
		opts.MaxTokenAttempts = 100
	}
	if opts.TokenRetryDelay <= 0 {
		opts.TokenRetryDelay = 10 * time.Millisecond
	}
	if locker == nil {
		locker = NewLocalMintLocker()
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var rndMu sync.Mutex

	return &NFTService{
		Chain:        provider,
		Pinner:       pinner,
		Locker:       locker,
		opts:         opts,
		collectionID: opts.CollectionID,
		now:          time.Now,
		randIntn: func(n int) int {
			rndMu.Lock()
			defer rndMu.Unlock()
			return rnd.Intn(n)
		},
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CollectionID 当前用于铸造的 collection
func (s *NFTService) CollectionID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionID
}

func (s *NFTService) setCollectionID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionID != id {
		logger.Log.Info("Using NFT collection", zap.Uint32("previous", s.collectionID), zap.Uint32("collectionId", id))
	}
	s.collectionID = id
}

func (s *NFTService) ValidateAddress(address string) bool {
	return chain.ValidateAddress(address)
}

func (s *NFTService) client(ctx context.Context) (chain.Client, error) {
	client, err := s.Chain.Client(ctx)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "blockchain connection not available")
	}
	return client, nil
}

// CreateCertificateNFT 上传元数据并铸造证书 NFT。
// 网络不支持 NFT（或未启用链）时返回 Pending 结果而不是错误。
func (s *NFTService) CreateCertificateNFT(ctx context.Context, recipient string, metadata model.CertificateMetadata) (*model.MintResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "nft.CreateCertificateNFT")
	defer span.End()

	owner, err := chain.DecodeAddress(recipient)
	if err != nil {
		return nil, util.Errorf(util.ErrValidation, "invalid recipient address: %s", recipient)
	}

	client, err := s.client(ctx)
	if err != nil {
		if errors.Is(err, chain.ErrNotConnected) {
			return s.pendingResult("blockchain disabled"), nil
		}
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	pallet := client.NFTPallet()
	if pallet == nil {
		return s.pendingResult("no NFT pallet on network"), nil
	}
	span.SetAttributes(attribute.String("nft.pallet", pallet.Name()))

	signer, err := client.Signer()
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		return nil, util.Wrap(util.ErrUnavailable, err, "NFT admin account not configured")
	}

	metadataURL, err := s.Pinner.Pin(ctx, metadata.Name, metadata)
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		var appErr *util.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to upload metadata")
	}

	unlock, err := s.Locker.Lock(ctx, "mint:"+signer.Address)
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to acquire mint lock")
	}
	defer unlock()

	collectionID, err := s.ensureCollection(ctx, pallet, signer)
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	tokenID, err := s.generateUniqueTokenID(ctx, pallet, collectionID)
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	span.SetAttributes(attribute.Int64("nft.collection", int64(collectionID)), attribute.Int64("nft.token", int64(tokenID)))

	receipt, err := pallet.MintWithMetadata(ctx, collectionID, tokenID, owner, metadataURL)
	if err != nil {
		monitoring.MintTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		logger.Log.Warn("NFT mint failed",
			zap.Uint32("collectionId", collectionID),
			zap.Uint32("tokenId", tokenID),
			zap.String("recipient", recipient),
			zap.Error(err))
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to mint certificate NFT")
	}

	monitoring.MintTotal.WithLabelValues("issued").Inc()
	logger.Log.Info("Certificate NFT minted",
		zap.Uint32("collectionId", collectionID),
		zap.Uint32("tokenId", tokenID),
		zap.String("recipient", recipient),
		zap.String("txHash", receipt.TxHash))

	return &model.MintResult{
		TokenID:         strconv.FormatUint(uint64(tokenID), 10),
		CollectionID:    strconv.FormatUint(uint64(collectionID), 10),
		TransactionHash: receipt.TxHash,
		MetadataURL:     metadataURL,
	}, nil
}

func (s *NFTService) pendingResult(reason string) *model.MintResult {
	now := s.now()
	monitoring.MintTotal.WithLabelValues("pending").Inc()
	logger.Log.Warn("NFT minting unavailable, returning pending result", zap.String("reason", reason))

	return &model.MintResult{
		TokenID:         strconv.FormatUint(uint64(s.candidateTokenID()), 10),
		CollectionID:    strconv.FormatUint(uint64(s.CollectionID()), 10),
		TransactionHash: fmt.Sprintf("pending-%d", now.UnixMilli()),
		Pending:         true,
	}
}

// ensureCollection 确认当前 collection 归签名账户所有，否则创建新的 collection 并等待其生效
func (s *NFTService) ensureCollection(ctx context.Context, pallet chain.NFTPallet, signer *chain.Signer) (uint32, error) {
	ctx, span := tracing.Tracer.Start(ctx, "nft.ensureCollection")
	defer span.End()

	candidate := s.CollectionID()
	for attempt := 0; attempt < s.opts.MaxCollectionAttempts; attempt++ {
		monitoring.CollectionAttempts.Inc()

		if s.ownedBy(ctx, pallet, candidate, signer) {
			s.setCollectionID(candidate)
			return candidate, nil
		}

		next := s.candidateCollectionID(attempt)
		created, _, err := pallet.CreateCollection(ctx, next, signer.PublicKey)
		if err != nil {
			if collectionIDTaken(err) {
				logger.Log.Info("Collection id already taken, retrying", zap.Uint32("collectionId", next))
				continue
			}
			span.RecordError(err)
			return 0, util.Wrap(util.ErrUnavailable, err, "failed to create NFT collection")
		}
		candidate = created

		if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
			return 0, err
		}

		if s.ownedBy(ctx, pallet, candidate, signer) {
			s.setCollectionID(candidate)
			return candidate, nil
		}
		logger.Log.Warn("Created collection not yet owned by signer", zap.Uint32("collectionId", candidate), zap.Int("attempt", attempt+1))
	}

	return 0, util.Errorf(util.ErrUnavailable, "could not obtain an NFT collection owned by %s after %d attempts", signer.Address, s.opts.MaxCollectionAttempts)
}

func (s *NFTService) ownedBy(ctx context.Context, pallet chain.NFTPallet, collection uint32, signer *chain.Signer) bool {
	owner, exists, err := pallet.CollectionOwner(ctx, collection)
	if err != nil {
		logger.Log.Warn("Failed to query collection", zap.Uint32("collectionId", collection), zap.Error(err))
		return false
	}
	if !exists {
		logger.Log.Info("Collection does not exist", zap.Uint32("collectionId", collection))
		return false
	}
	if !chain.SameAccount(owner, signer.PublicKey) {
		logger.Log.Warn("Collection owned by another account",
			zap.Uint32("collectionId", collection),
			zap.String("owner", fmt.Sprintf("0x%x", owner)))
		return false
	}
	return true
}

func collectionIDTaken(err error) bool {
	return errors.Is(err, &chain.DispatchError{Name: "InUse"}) ||
		errors.Is(err, &chain.DispatchError{Name: "CollectionIdInUse"})
}

// candidateCollectionID 由时间派生，每次重试偏移 1000
func (s *NFTService) candidateCollectionID(attempt int) uint32 {
	ms := s.now().UnixMilli() + int64(attempt)*1000
	id := uint32(ms % collectionIDModulus)
	if id < minCollectionID {
		id += minCollectionID
	}
	return id
}

// candidateTokenID 毫秒时间 + 随机数 + 微秒，折叠到 u32
func (s *NFTService) candidateTokenID() uint32 {
	now := s.now()
	ms := uint64(now.UnixMilli()) % collectionIDModulus
	micro := uint64(now.Nanosecond()/1000) % 1000
	v := (ms*1000000 + uint64(s.randIntn(100000))*1000 + micro) % maxTokenID
	if v == 0 {
		v = 1
	}
	return uint32(v)
}

// generateUniqueTokenID 查询失败时视为可用，由铸造交易本身兜底
func (s *NFTService) generateUniqueTokenID(ctx context.Context, pallet chain.NFTPallet, collection uint32) (uint32, error) {
	for attempt := 0; attempt < s.opts.MaxTokenAttempts; attempt++ {
		id := s.candidateTokenID()
		taken, err := pallet.ItemExists(ctx, collection, id)
		if err != nil {
			logger.Log.Debug("Token id check failed, assuming available", zap.Uint32("tokenId", id), zap.Error(err))
			return id, nil
		}
		if !taken {
			return id, nil
		}
		if err := s.sleep(ctx, s.opts.TokenRetryDelay); err != nil {
			return 0, err
		}
	}
	return 0, util.Errorf(util.ErrUnavailable, "failed to generate a unique token id after %d attempts", s.opts.MaxTokenAttempts)
}

// GetUserNFTs 列出地址持有的 NFT，collection 为 nil 时不过滤
func (s *NFTService) GetUserNFTs(ctx context.Context, address string, collection *uint32) ([]model.OwnedNFT, error) {
	owner, err := chain.DecodeAddress(address)
	if err != nil {
		return nil, util.Errorf(util.ErrValidation, "invalid address: %s", address)
	}

	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	nfts := []model.OwnedNFT{}
	pallet := client.NFTPallet()
	if pallet == nil {
		return nfts, nil
	}

	items, err := pallet.ItemsOwnedBy(ctx, owner, collection)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to query NFTs")
	}

	for _, item := range items {
		owned := model.OwnedNFT{
			CollectionID: strconv.FormatUint(uint64(item.Collection), 10),
			TokenID:      strconv.FormatUint(uint64(item.Item), 10),
			Owner:        address,
		}
		info, err := pallet.ItemInfo(ctx, item.Collection, item.Item)
		if err != nil {
			logger.Log.Debug("Failed to load NFT info", zap.Uint32("collectionId", item.Collection), zap.Uint32("tokenId", item.Item), zap.Error(err))
		} else if info != nil {
			owned.Info = s.toNFTInfo(client, pallet, item.Collection, item.Item, info)
		}
		nfts = append(nfts, owned)
	}
	return nfts, nil
}

func (s *NFTService) GetNFTInfo(ctx context.Context, collection, token uint32) (*model.NFTInfo, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	pallet := client.NFTPallet()
	if pallet == nil {
		return nil, util.Wrap(util.ErrUnavailable, chain.ErrNoNFTPallet, "NFT query unavailable")
	}

	info, err := pallet.ItemInfo(ctx, collection, token)
	if err != nil {
		return nil, util.Wrap(util.ErrUnavailable, err, "failed to query NFT")
	}
	if info == nil {
		return nil, util.ErrNFTNotFound
	}
	return s.toNFTInfo(client, pallet, collection, token, info), nil
}

func (s *NFTService) toNFTInfo(client chain.Client, pallet chain.NFTPallet, collection, token uint32, info *chain.ItemInfo) *model.NFTInfo {
	return &model.NFTInfo{
		CollectionID: strconv.FormatUint(uint64(collection), 10),
		TokenID:      strconv.FormatUint(uint64(token), 10),
		Owner:        chain.EncodeAddress(info.Owner, client.SS58Format()),
		Metadata:     info.Metadata,
		Pallet:       pallet.Name(),
	}
}
