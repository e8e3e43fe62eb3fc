package controller

import (
	"net/http"

	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentController struct {
	PaymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{PaymentService: paymentService}
}

// swagger:model VerifyPaymentRequest
type VerifyPaymentRequest struct {
	TransactionHash string           `json:"transactionHash"`
	Amount          *decimal.Decimal `json:"amount"`
	SenderAddress   string           `json:"senderAddress"`
}

// VerifyPayment godoc
// @Summary 校验支付凭证格式
// @Description 只检查地址、交易哈希和金额的格式，收款地址为平台管理员地址
// @Tags 支付
// @Accept  json
// @Produce  json
// @Param   body body VerifyPaymentRequest true "支付凭证"
// @Success 200 {object} util.Response{data=model.PaymentVerification} "凭证有效"
// @Failure 400 {object} util.Response{data=model.PaymentVerification} "凭证无效"
// @Router /api/payments/verify [post]
func (c *PaymentController) VerifyPayment(ctx *gin.Context) {
	var req VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.TransactionHash == "" || req.Amount == nil {
		util.BadRequest(ctx, "transactionHash and amount are required")
		return
	}

	verification, err := c.PaymentService.Verify(ctx.Request.Context(), model.PaymentProof{
		TransactionHash: req.TransactionHash,
		Amount:          *req.Amount,
		SenderAddress:   req.SenderAddress,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if !verification.Valid {
		ctx.JSON(http.StatusBadRequest, util.Response{
			Code:    http.StatusBadRequest,
			Message: verification.Error,
			Data:    verification,
		})
		return
	}
	util.Success(ctx, verification)
}

// GetBalance godoc
// @Summary 查询地址余额
// @Tags 支付
// @Produce  json
// @Param   address path string true "钱包地址"
// @Success 200 {object} util.Response{data=model.FormattedBalance} "成功"
// @Failure 400 {object} util.Response "地址无效"
// @Failure 500 {object} util.Response "链不可用"
// @Router /api/payments/balance/{address} [get]
func (c *PaymentController) GetBalance(ctx *gin.Context) {
	balance, err := c.PaymentService.FormattedBalance(ctx.Request.Context(), ctx.Param("address"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, balance)
}

// GetAdminAddress godoc
// @Summary 平台收款地址
// @Tags 支付
// @Produce  json
// @Success 200 {object} util.Response "成功"
// @Failure 500 {object} util.Response "未配置收款地址"
// @Router /api/payments/admin-address [get]
func (c *PaymentController) GetAdminAddress(ctx *gin.Context) {
	address, err := c.PaymentService.Recipient(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"address": address})
}
