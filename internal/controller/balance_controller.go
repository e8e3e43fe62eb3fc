package controller

import (
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BalanceController struct {
	BalanceService *service.BalanceService
}

func NewBalanceController(balanceService *service.BalanceService) *BalanceController {
	return &BalanceController{BalanceService: balanceService}
}

// GetMyBalance godoc
// @Summary 管理员签名账户余额
// @Tags 余额
// @Produce  json
// @Success 200 {object} util.Response{data=model.BalanceInfo} "成功"
// @Failure 400 {object} util.Response "未配置签名账户"
// @Router /api/balance/me [get]
func (c *BalanceController) GetMyBalance(ctx *gin.Context) {
	balance, err := c.BalanceService.MyBalance(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, balance)
}

// GetBalance godoc
// @Summary 查询地址余额
// @Tags 余额
// @Produce  json
// @Param   address path string true "钱包地址"
// @Success 200 {object} util.Response{data=model.BalanceInfo} "成功"
// @Failure 400 {object} util.Response "地址无效"
// @Router /api/balance/{address} [get]
func (c *BalanceController) GetBalance(ctx *gin.Context) {
	balance, err := c.BalanceService.Balance(ctx.Request.Context(), ctx.Param("address"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, balance)
}

// GetAccountInfo godoc
// @Summary 查询账户详情
// @Tags 余额
// @Produce  json
// @Param   address path string true "钱包地址"
// @Success 200 {object} util.Response{data=model.AccountInfo} "成功"
// @Failure 400 {object} util.Response "地址无效"
// @Router /api/balance/{address}/info [get]
func (c *BalanceController) GetAccountInfo(ctx *gin.Context) {
	info, err := c.BalanceService.AccountInfo(ctx.Request.Context(), ctx.Param("address"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, info)
}
