package app

import (
	"polkaedu_backend/docs"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/middleware"
	"polkaedu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	if cfg.Monitoring.Enabled {
		router.GET("/metrics", monitoring.PrometheusHandler())
	}

	router.GET("/", c.health.Root)
	router.GET("/health", c.health.HealthCheck)
	router.GET("/api", c.health.APIIndex)

	api := router.Group("/api")
	a.registerUserRoutes(api, c, cfg)
	a.registerCourseRoutes(api, c)
	a.registerEnrollmentRoutes(api, c)
	a.registerCertificateRoutes(api, c)
	a.registerChainRoutes(api, c)
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers, cfg *config.Config) {
	users := api.Group("/users")
	{
		users.GET("", c.user.GetUsers)
		users.POST("", c.user.CreateUser)
		users.POST("/wallet", c.user.GetOrCreateByWallet)
		users.POST("/login", c.user.Login)
		users.GET("/me", middleware.AuthMiddleware(cfg.JWT.Secret), c.user.GetProfile)
		users.GET("/:id", c.user.GetUser)
		users.PUT("/:id", c.user.UpdateUser)
		users.DELETE("/:id", c.user.DeleteUser)
		users.POST("/:id/wallet", c.user.AssociateWallet)
	}
}

func (a *App) registerCourseRoutes(api *gin.RouterGroup, c *controllers) {
	courses := api.Group("/courses")
	{
		courses.GET("", c.course.GetCourses)
		courses.POST("", c.course.CreateCourse)
		courses.GET("/:id", c.course.GetCourse)
		courses.PUT("/:id", c.course.UpdateCourse)
		courses.DELETE("/:id", c.course.DeleteCourse)
		courses.GET("/:id/lessons", c.course.GetLessons)
	}
}

func (a *App) registerEnrollmentRoutes(api *gin.RouterGroup, c *controllers) {
	enrollments := api.Group("/enrollments")
	{
		enrollments.POST("", c.enrollment.Enroll)
		enrollments.POST("/wallet", c.enrollment.EnrollByWallet)
		enrollments.GET("/user/:userId", c.enrollment.GetByUser)
		enrollments.GET("/wallet/:walletAddress", c.enrollment.GetByWallet)
		enrollments.GET("/:id", c.enrollment.GetEnrollment)
		enrollments.PUT("/:id/progress", c.enrollment.UpdateProgress)
		enrollments.POST("/:id/complete", c.enrollment.CompleteCourse)
	}
}

func (a *App) registerCertificateRoutes(api *gin.RouterGroup, c *controllers) {
	certificates := api.Group("/certificates")
	{
		certificates.GET("", c.certificate.GetCertificates)
		certificates.GET("/user/:userId", c.certificate.GetByUser)
		certificates.GET("/wallet/:walletAddress", c.certificate.GetByWallet)
		certificates.GET("/:id", c.certificate.GetCertificate)
	}
}

// registerChainRoutes NFT、支付和余额接口都直接访问链
func (a *App) registerChainRoutes(api *gin.RouterGroup, c *controllers) {
	nfts := api.Group("/nfts")
	{
		nfts.POST("", c.nft.CreateNFT)
		nfts.POST("/validate-address", c.nft.ValidateAddress)
		nfts.GET("/user/:address", c.nft.GetUserNFTs)
		nfts.GET("/:collectionId/:tokenId", c.nft.GetNFTInfo)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/verify", c.payment.VerifyPayment)
		payments.GET("/balance/:address", c.payment.GetBalance)
		payments.GET("/admin-address", c.payment.GetAdminAddress)
	}

	balance := api.Group("/balance")
	{
		balance.GET("/me", c.balance.GetMyBalance)
		balance.GET("/:address", c.balance.GetBalance)
		balance.GET("/:address/info", c.balance.GetAccountInfo)
	}
}
