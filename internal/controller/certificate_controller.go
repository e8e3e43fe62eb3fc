package controller

import (
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// GetCertificates godoc
// @Summary 获取全部证书
// @Tags 证书
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certificates [get]
func (c *CertificateController) GetCertificates(ctx *gin.Context) {
	certs, err := c.CertificateService.ListCertificates()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// GetByUser godoc
// @Summary 按用户查询证书
// @Tags 证书
// @Produce  json
// @Param   userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certificates/user/{userId} [get]
func (c *CertificateController) GetByUser(ctx *gin.Context) {
	certs, err := c.CertificateService.ListByUser(ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// GetByWallet godoc
// @Summary 按钱包查询证书
// @Tags 证书
// @Produce  json
// @Param   walletAddress path string true "钱包地址"
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certificates/wallet/{walletAddress} [get]
func (c *CertificateController) GetByWallet(ctx *gin.Context) {
	certs, err := c.CertificateService.ListByWallet(ctx.Param("walletAddress"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// GetCertificate godoc
// @Summary 获取证书详情
// @Tags 证书
// @Produce  json
// @Param   id path string true "证书ID"
// @Success 200 {object} util.Response{data=model.Certificate} "成功"
// @Failure 404 {object} util.Response "证书不存在"
// @Router /api/certificates/{id} [get]
func (c *CertificateController) GetCertificate(ctx *gin.Context) {
	cert, err := c.CertificateService.GetCertificate(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}
