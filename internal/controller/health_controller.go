package controller

import (
	"net/http"

	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	serviceName    = "PolkaEdu Backend API"
	serviceVersion = "1.0.0"
)

// ChainStatus chain.Connector 实现了它
type ChainStatus interface {
	Connected() bool
}

type HealthController struct {
	DB    *gorm.DB
	Chain ChainStatus
}

func NewHealthController(db *gorm.DB, chain ChainStatus) *HealthController {
	return &HealthController{DB: db, Chain: chain}
}

// @Summary 健康检查
// @Description 检查数据库和链连接状态，链未连接不影响健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "数据库不可用"
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	chainState := "disconnected"
	if c.Chain != nil && c.Chain.Connected() {
		chainState = "connected"
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"chain":    chainState,
		},
	})
}

// @Summary 服务信息
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router / [get]
func (c *HealthController) Root(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"service": serviceName,
		"version": serviceVersion,
		"docs":    "/swagger/index.html",
		"api":     "/api",
	})
}

type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var apiEndpoints = map[string][]endpoint{
	"users": {
		{"GET", "/api/users", "list users"},
		{"POST", "/api/users", "create a user with email and password"},
		{"POST", "/api/users/wallet", "get or create a user by wallet address"},
		{"POST", "/api/users/login", "log in with email and password"},
		{"GET", "/api/users/me", "current user (bearer token)"},
		{"GET", "/api/users/:id", "get a user"},
		{"PUT", "/api/users/:id", "update a user"},
		{"DELETE", "/api/users/:id", "delete a user"},
		{"POST", "/api/users/:id/wallet", "associate a wallet with a user"},
	},
	"courses": {
		{"GET", "/api/courses", "list courses with lessons"},
		{"POST", "/api/courses", "create a course with optional lessons"},
		{"GET", "/api/courses/:id", "get a course with lessons"},
		{"PUT", "/api/courses/:id", "update a course"},
		{"DELETE", "/api/courses/:id", "delete a course and its lessons"},
		{"GET", "/api/courses/:id/lessons", "list lessons of a course"},
	},
	"enrollments": {
		{"POST", "/api/enrollments", "enroll a user in a course"},
		{"POST", "/api/enrollments/wallet", "enroll by wallet address"},
		{"GET", "/api/enrollments/user/:userId", "enrollments of a user"},
		{"GET", "/api/enrollments/wallet/:walletAddress", "enrollments of a wallet"},
		{"GET", "/api/enrollments/:id", "get an enrollment"},
		{"PUT", "/api/enrollments/:id/progress", "update progress (0-100)"},
		{"POST", "/api/enrollments/:id/complete", "complete the course and issue a certificate"},
	},
	"certificates": {
		{"GET", "/api/certificates", "list certificates"},
		{"GET", "/api/certificates/user/:userId", "certificates of a user"},
		{"GET", "/api/certificates/wallet/:walletAddress", "certificates of a wallet"},
		{"GET", "/api/certificates/:id", "get a certificate"},
	},
	"nfts": {
		{"POST", "/api/nfts", "mint a certificate NFT"},
		{"POST", "/api/nfts/validate-address", "validate an SS58 address"},
		{"GET", "/api/nfts/user/:address", "NFTs owned by an address, optional ?collectionId="},
		{"GET", "/api/nfts/:collectionId/:tokenId", "get an NFT"},
	},
	"payments": {
		{"POST", "/api/payments/verify", "check a payment proof"},
		{"GET", "/api/payments/balance/:address", "balance of an address"},
		{"GET", "/api/payments/admin-address", "payment recipient address"},
	},
	"balance": {
		{"GET", "/api/balance/me", "balance of the admin signer"},
		{"GET", "/api/balance/:address", "balance of an address"},
		{"GET", "/api/balance/:address/info", "account info of an address"},
	},
}

// @Summary 接口列表
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api [get]
func (c *HealthController) APIIndex(ctx *gin.Context) {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	util.Success(ctx, gin.H{
		"service":   serviceName,
		"version":   serviceVersion,
		"baseUrl":   scheme + "://" + ctx.Request.Host,
		"endpoints": apiEndpoints,
	})
}
