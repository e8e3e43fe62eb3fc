package controller

import (
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 付费课程需要提供 transactionHash 和 amount
// @Tags 报名
// @Accept  json
// @Produce  json
// @Param   body body service.EnrollRequest true "报名信息"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 400 {object} util.Response "支付无效或已报名"
// @Failure 404 {object} util.Response "用户或课程不存在"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req service.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "userId and courseId are required")
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), req.UserID, req.CourseID, req.PaymentProof())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// EnrollByWallet godoc
// @Summary 使用钱包地址报名
// @Description 钱包对应的用户不存在时自动创建；重复报名在校验支付前拒绝
// @Tags 报名
// @Accept  json
// @Produce  json
// @Param   body body service.WalletEnrollRequest true "报名信息"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 400 {object} util.Response "支付无效或已报名"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/enrollments/wallet [post]
func (c *EnrollmentController) EnrollByWallet(ctx *gin.Context) {
	var req service.WalletEnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "walletAddress and courseId are required")
		return
	}

	enrollment, err := c.EnrollmentService.EnrollByWallet(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// GetByWallet godoc
// @Summary 按钱包查询报名
// @Tags 报名
// @Produce  json
// @Param   walletAddress path string true "钱包地址"
// @Success 200 {object} util.Response{data=[]model.Enrollment} "成功"
// @Router /api/enrollments/wallet/{walletAddress} [get]
func (c *EnrollmentController) GetByWallet(ctx *gin.Context) {
	enrollments, err := c.EnrollmentService.ListByWallet(ctx.Param("walletAddress"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// GetByUser godoc
// @Summary 按用户查询报名
// @Tags 报名
// @Produce  json
// @Param   userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Enrollment} "成功"
// @Router /api/enrollments/user/{userId} [get]
func (c *EnrollmentController) GetByUser(ctx *gin.Context) {
	enrollments, err := c.EnrollmentService.ListByUser(ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// GetEnrollment godoc
// @Summary 获取报名详情
// @Tags 报名
// @Produce  json
// @Param   id path string true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id} [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	enrollment, err := c.EnrollmentService.GetEnrollment(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// UpdateProgress godoc
// @Summary 更新学习进度
// @Description 进度被限制在 0-100，首次达到 100 时签发证书
// @Tags 报名
// @Accept  json
// @Produce  json
// @Param   id path string true "报名ID"
// @Param   body body service.ProgressRequest true "进度"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id}/progress [put]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	var req service.ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "progress must be a number")
		return
	}

	enrollment, err := c.EnrollmentService.UpdateProgress(ctx.Request.Context(), ctx.Param("id"), *req.Progress)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CompleteCourse godoc
// @Summary 完成课程并签发证书
// @Description 幂等；证书签发失败时课程仍标记为完成
// @Tags 报名
// @Produce  json
// @Param   id path string true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id}/complete [post]
func (c *EnrollmentController) CompleteCourse(ctx *gin.Context) {
	enrollment, err := c.EnrollmentService.CompleteCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}
