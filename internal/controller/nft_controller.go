package controller

import (
	"context"
	"strconv"
	"strings"

	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// NFTIssuer service.NFTService 实现了它
type NFTIssuer interface {
	CreateCertificateNFT(ctx context.Context, recipient string, metadata model.CertificateMetadata) (*model.MintResult, error)
	ValidateAddress(address string) bool
	GetUserNFTs(ctx context.Context, address string, collection *uint32) ([]model.OwnedNFT, error)
	GetNFTInfo(ctx context.Context, collection, token uint32) (*model.NFTInfo, error)
	CollectionID() uint32
}

type NFTController struct {
	NFTService NFTIssuer
}

func NewNFTController(nftService NFTIssuer) *NFTController {
	return &NFTController{NFTService: nftService}
}

// swagger:model CreateNFTRequest
type CreateNFTRequest struct {
	RecipientAddress string                    `json:"recipientAddress"`
	Metadata         model.CertificateMetadata `json:"metadata"`
}

// swagger:model ValidateAddressRequest
type ValidateAddressRequest struct {
	Address string `json:"address"`
}

// CreateNFT godoc
// @Summary 直接铸造证书 NFT
// @Description 网络不支持 NFT 时返回 pending 结果
// @Tags NFT
// @Accept  json
// @Produce  json
// @Param   body body CreateNFTRequest true "接收地址与元数据"
// @Success 201 {object} util.Response{data=model.MintResult} "铸造成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 500 {object} util.Response "链上操作失败"
// @Router /api/nfts [post]
func (c *NFTController) CreateNFT(ctx *gin.Context) {
	var req CreateNFTRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if req.RecipientAddress == "" {
		util.BadRequest(ctx, "recipientAddress is required")
		return
	}
	if !c.NFTService.ValidateAddress(req.RecipientAddress) {
		util.BadRequest(ctx, "invalid Polkadot address: SS58 format expected")
		return
	}
	if strings.TrimSpace(req.Metadata.Name) == "" || strings.TrimSpace(req.Metadata.Description) == "" {
		util.BadRequest(ctx, "metadata.name and metadata.description are required")
		return
	}

	result, err := c.NFTService.CreateCertificateNFT(ctx.Request.Context(), req.RecipientAddress, req.Metadata)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"tokenId":          result.TokenID,
		"transactionHash":  result.TransactionHash,
		"recipientAddress": req.RecipientAddress,
		"collectionId":     result.CollectionID,
		"metadataUrl":      result.MetadataURL,
		"pending":          result.Pending,
	})
}

// ValidateAddress godoc
// @Summary 校验 Polkadot 地址格式
// @Tags NFT
// @Accept  json
// @Produce  json
// @Param   body body ValidateAddressRequest true "地址"
// @Success 200 {object} util.Response "校验结果"
// @Failure 400 {object} util.Response "缺少地址"
// @Router /api/nfts/validate-address [post]
func (c *NFTController) ValidateAddress(ctx *gin.Context) {
	var req ValidateAddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Address == "" {
		util.BadRequest(ctx, "address is required")
		return
	}

	valid := c.NFTService.ValidateAddress(req.Address)
	message := "valid address"
	if !valid {
		message = "invalid address: SS58 format expected"
	}
	util.Success(ctx, gin.H{
		"valid":   valid,
		"address": req.Address,
		"message": message,
	})
}

// GetUserNFTs godoc
// @Summary 查询地址持有的 NFT
// @Description 未指定 collectionId 时遍历所有集合
// @Tags NFT
// @Produce  json
// @Param   address path string true "钱包地址"
// @Param   collectionId query int false "集合ID"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "地址无效"
// @Router /api/nfts/user/{address} [get]
func (c *NFTController) GetUserNFTs(ctx *gin.Context) {
	address := ctx.Param("address")
	if !c.NFTService.ValidateAddress(address) {
		util.BadRequest(ctx, "invalid Polkadot address")
		return
	}

	var filter *uint32
	if raw := ctx.Query("collectionId"); raw != "" {
		id, err := util.ParseUint32(raw)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		filter = &id
	}

	nfts, err := c.NFTService.GetUserNFTs(ctx.Request.Context(), address, filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	collectionID := strconv.FormatUint(uint64(c.NFTService.CollectionID()), 10)
	if filter != nil {
		collectionID = strconv.FormatUint(uint64(*filter), 10)
	} else if len(nfts) > 0 {
		collectionID = dominantCollection(nfts)
	}

	util.Success(ctx, gin.H{
		"address":      address,
		"collectionId": collectionID,
		"nfts":         nfts,
		"count":        len(nfts),
	})
}

// dominantCollection 持有数量最多的集合，数量相同时取先出现的
func dominantCollection(nfts []model.OwnedNFT) string {
	counts := make(map[string]int)
	best := ""
	for _, nft := range nfts {
		counts[nft.CollectionID]++
		if best == "" || counts[nft.CollectionID] > counts[best] {
			best = nft.CollectionID
		}
	}
	return best
}

// GetNFTInfo godoc
// @Summary 查询单个 NFT
// @Tags NFT
// @Produce  json
// @Param   collectionId path int true "集合ID"
// @Param   tokenId path int true "Token ID"
// @Success 200 {object} util.Response{data=model.NFTInfo} "成功"
// @Failure 400 {object} util.Response "ID 无效"
// @Failure 404 {object} util.Response "NFT 不存在"
// @Router /api/nfts/{collectionId}/{tokenId} [get]
func (c *NFTController) GetNFTInfo(ctx *gin.Context) {
	collection, err := util.ParseUint32(ctx.Param("collectionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	token, err := util.ParseUint32(ctx.Param("tokenId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	info, err := c.NFTService.GetNFTInfo(ctx.Request.Context(), collection, token)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, info)
}
