package controller

import (
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// AssociateWalletRequest 绑定钱包请求
// swagger:model AssociateWalletRequest
type AssociateWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// CreateUser godoc
// @Summary 创建用户
// @Description 使用邮箱和密码注册，可同时绑定钱包
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Param   body body service.CreateUserRequest true "用户信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.CreateUser(req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// GetOrCreateByWallet godoc
// @Summary 按钱包获取或创建用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Param   body body service.WalletUserRequest true "钱包信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/users/wallet [post]
func (c *UserController) GetOrCreateByWallet(ctx *gin.Context) {
	var req service.WalletUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "walletAddress is required")
		return
	}

	user, err := c.UserService.GetOrCreateByWallet(req.WalletAddress, req.Name, req.Email)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// AssociateWallet godoc
// @Summary 为用户绑定钱包
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Param   id path string true "用户ID"
// @Param   body body AssociateWalletRequest true "钱包地址"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "地址无效或已被绑定"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id}/wallet [post]
func (c *UserController) AssociateWallet(ctx *gin.Context) {
	var req AssociateWalletRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "walletAddress is required")
		return
	}

	user, err := c.UserService.AssociateWallet(ctx.Param("id"), req.WalletAddress)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// Login godoc
// @Summary 邮箱登录
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResponse} "成功"
// @Failure 400 {object} util.Response "邮箱或密码错误"
// @Router /api/users/login [post]
func (c *UserController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "email and password are required")
		return
	}

	resp, err := c.UserService.Login(req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// GetProfile godoc
// @Summary 当前登录用户
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.UserService.GetUser(claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetUsers godoc
// @Summary 获取用户列表
// @Tags 用户管理
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Router /api/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	users, err := c.UserService.ListUsers()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetUser godoc
// @Summary 获取单个用户信息
// @Tags 用户管理
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.GetUser(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户
// @Description 只更新请求中出现的字段，walletAddress 为空字符串时解除绑定
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Param   id path string true "用户ID"
// @Param   body body service.UpdateUserRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req service.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateUser(ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 报名与证书记录会保留
// @Tags 用户管理
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	if err := c.UserService.DeleteUser(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "user deleted"})
}
