package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/logger"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/go-resty/resty/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MetadataPinner 把 JSON 元数据上传到内容寻址存储，返回写入链上的元数据指针
type MetadataPinner interface {
	Pin(ctx context.Context, name string, document interface{}) (string, error)
}

// PinataPinner 通过 Pinata pinJSONToIPFS 上传，返回 ipfs://<cid>
type PinataPinner struct {
	client *resty.Client
}

type pinataRequest struct {
	PinataContent  interface{}       `json:"pinataContent"`
	PinataMetadata map[string]string `json:"pinataMetadata,omitempty"`
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewPinataPinner 凭证缺失时立即返回 util.ErrPinningNotConfigured
func NewPinataPinner(cfg config.PinataConfig) (*PinataPinner, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, util.ErrPinningNotConfigured
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("pinata_api_key", cfg.APIKey).
		SetHeader("pinata_secret_api_key", cfg.SecretKey)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &PinataPinner{client: client}, nil
}

func (p *PinataPinner) Pin(ctx context.Context, name string, document interface{}) (string, error) {
	var result pinataResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pinataRequest{
			PinataContent:  document,
			PinataMetadata: map[string]string{"name": name},
		}).
		SetResult(&result).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return "", fmt.Errorf("upload metadata to IPFS: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload metadata to IPFS: pinata returned %d: %s", resp.StatusCode(), resp.String())
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("upload metadata to IPFS: empty IpfsHash in response")
	}

	return "ipfs://" + result.IpfsHash, nil
}

// ObjectStore 对象存储的最小接口
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// ObjectStoragePinner 以文档 sha256 作为对象名，实现内容寻址
type ObjectStoragePinner struct {
	Store ObjectStore
}

func (p *ObjectStoragePinner) Pin(ctx context.Context, name string, document interface{}) (string, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	sum := sha256.Sum256(data)
	key := "metadata/" + hex.EncodeToString(sum[:]) + ".json"
	if err := p.Store.Put(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("upload metadata %s: %w", name, err)
	}
	return p.Store.URL(key), nil
}

// MinioStore MinIO 对象存储
type MinioStore struct {
	Config config.ObjectStoreConfig
	Client *minio.Client
}

func NewMinioStore(cfg config.ObjectStoreConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, util.ErrPinningNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{Config: cfg, Client: client}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.Client.PutObject(ctx, s.Config.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) URL(key string) string {
	if s.Config.PublicURL != "" {
		return strings.TrimRight(s.Config.PublicURL, "/") + "/" + key
	}
	return "/" + s.Config.Bucket + "/" + key
}

// OSSStore 阿里云 OSS 对象存储
type OSSStore struct {
	Config config.ObjectStoreConfig
	Client *oss.Client
}

func NewOSSStore(cfg config.ObjectStoreConfig) (*OSSStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, util.ErrPinningNotConfigured
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStore{Config: cfg, Client: client}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	bucket, err := s.Client.Bucket(s.Config.Bucket)
	if err != nil {
		return err
	}
	return bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(contentType))
}

func (s *OSSStore) URL(key string) string {
	if s.Config.PublicURL != "" {
		return strings.TrimRight(s.Config.PublicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.%s/%s", s.Config.Bucket, s.Config.Endpoint, key)
}

// unavailablePinner 未配置或配置错误时使用，每次调用都返回原因
type unavailablePinner struct {
	err error
}

func (p unavailablePinner) Pin(context.Context, string, interface{}) (string, error) {
	return "", p.err
}

// NewMetadataPinner 按配置选择实现，凭证缺失时返回的 pinner 会拒绝所有上传
func NewMetadataPinner(cfg config.PinningConfig) MetadataPinner {
	var (
		pinner MetadataPinner
		err    error
	)

	switch cfg.Provider {
	case util.PinningPinata:
		pinner, err = NewPinataPinner(cfg.Pinata)
	case util.PinningMinio:
		var store *MinioStore
		if store, err = NewMinioStore(cfg.Minio); err == nil {
			pinner = &ObjectStoragePinner{Store: store}
		}
	case util.PinningOSS:
		var store *OSSStore
		if store, err = NewOSSStore(cfg.OSS); err == nil {
			pinner = &ObjectStoragePinner{Store: store}
		}
	default:
		err = util.ErrPinningNotConfigured
	}

	if err != nil {
		logger.Log.Warn("Metadata pinning disabled, NFT minting will fail until configured",
			zap.String("provider", cfg.Provider), zap.Error(err))
		if err != util.ErrPinningNotConfigured {
			err = util.Errorf(util.ErrUnavailable, "metadata pinning unavailable: %v", err)
		}
		return unavailablePinner{err: err}
	}
	return pinner
}
