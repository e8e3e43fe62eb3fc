package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/controller"
	"polkaedu_backend/internal/middleware"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/service"
	"polkaedu_backend/pkg/configwatcher"
	"polkaedu_backend/pkg/database"
	"polkaedu_backend/pkg/logger"
	"polkaedu_backend/pkg/monitoring"
	"polkaedu_backend/pkg/security"
	"polkaedu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Chain  *chain.Connector

	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	certificate *repository.CertificateRepository
}

type services struct {
	user        *service.UserService
	course      *service.CourseService
	payment     *service.PaymentService
	balance     *service.BalanceService
	nft         *service.NFTService
	certificate *service.CertificateService
	enrollment  *service.EnrollmentService
	jobs        *service.JobService
}

type controllers struct {
	user        *controller.UserController
	course      *controller.CourseController
	enrollment  *controller.EnrollmentController
	certificate *controller.CertificateController
	nft         *controller.NFTController
	payment     *controller.PaymentController
	balance     *controller.BalanceController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

// initChain 未启用链时返回始终未连接的 Connector，证书会以 pending 状态记录
func (a *App) initChain(cfg *config.Config) *chain.Connector {
	if !cfg.Chain.Enabled {
		logger.Log.Warn("Blockchain disabled, certificates will be recorded as pending")
		return chain.NewStaticConnector(nil)
	}
	return chain.NewConnector(chain.Options{
		URL:            cfg.Chain.WSURL,
		ConnectTimeout: cfg.Chain.ConnectTimeout,
		SubmitTimeout:  cfg.Chain.SubmitTimeout,
		Mnemonic:       cfg.Chain.AdminMnemonic,
		SS58Format:     cfg.Chain.SS58Format,
	}, nil)
}

func (a *App) mintLocker() service.MintLocker {
	if a.Redis != nil {
		return service.NewRedisMintLocker(a.Redis, 0)
	}
	return service.NewLocalMintLocker()
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.user = service.NewUserService(repos.user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	s.course = service.NewCourseService(repos.course)
	s.payment = service.NewPaymentService(a.Chain, cfg.Chain.AdminAddress, cfg.Chain.TokenDecimals)
	s.balance = service.NewBalanceService(a.Chain, cfg.Chain.TokenDecimals)

	locker := a.mintLocker()
	s.nft = service.NewNFTService(a.Chain, service.NewMetadataPinner(cfg.Pinning), locker, service.NFTOptions{
		CollectionID:          cfg.Chain.CollectionID,
		SettleDelay:           cfg.Chain.CollectionSettle,
		MaxCollectionAttempts: cfg.Chain.CollectionMaxAttempt,
		MaxTokenAttempts:      cfg.Chain.TokenMaxAttempt,
	})

	s.certificate = service.NewCertificateService(repos.certificate, repos.user, s.nft)
	s.certificate.Locker = locker
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.user, repos.course, s.user, s.payment, s.certificate)
	s.jobs = service.NewJobService(s.certificate)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		user:        controller.NewUserController(s.user),
		course:      controller.NewCourseController(s.course),
		enrollment:  controller.NewEnrollmentController(s.enrollment),
		certificate: controller.NewCertificateController(s.certificate),
		nft:         controller.NewNFTController(s.nft),
		payment:     controller.NewPaymentController(s.payment),
		balance:     controller.NewBalanceController(s.balance),
		health:      controller.NewHealthController(db, a.Chain),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	if cfg.Monitoring.Enabled {
		router.Use(monitoring.MetricsMiddleware())
	}

	router.Use(middleware.RequestLogger())
}

// applyConfig 只重新应用可热更新的配置：日志级别和限流
func (a *App) applyConfig(cfg *config.Config) {
	if cfg.Log.Level != "" && !logger.SetLevel(cfg.Log.Level) {
		logger.Log.Warn("Unknown log level in reloaded config", zap.String("level", cfg.Log.Level))
	}
	a.limiter.SetLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Configuration reloaded",
		zap.String("logLevel", logger.Level().String()),
		zap.Float64("rps", cfg.RateLimit.RequestsPerSecond),
		zap.Int("burst", cfg.RateLimit.Burst))
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	if err := a.services.jobs.Start(a.Config.Jobs.CertificateStatsSpec); err != nil {
		logger.Log.Error("Failed to schedule certificate stats job", zap.Error(err))
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	if a.Config.Dir != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.Config.Dir, a.applyConfig); err != nil {
				logger.Log.Warn("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 提前建立链连接，失败时在首次使用时重试
	if a.Config.Chain.Enabled {
		go func() {
			client, err := a.Chain.Client(ctx)
			if err != nil {
				logger.Log.Warn("Blockchain connection failed, will retry on demand", zap.Error(err))
				return
			}
			pallet := "none"
			if p := client.NFTPallet(); p != nil {
				pallet = p.Name()
			}
			logger.Log.Info("Blockchain connected", zap.String("url", a.Config.Chain.WSURL), zap.String("nftPallet", pallet))
		}()
	}
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if n, err := database.SeedCourses(db, cfg.Seed.CoursesFile); err != nil {
		logger.Log.Error("Failed to seed courses", zap.Error(err))
	} else if n > 0 {
		logger.Log.Info("Seeded sample courses", zap.Int("count", n))
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		limiter: security.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, falling back to in-process mint lock", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	app.Chain = app.initChain(cfg)

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app, nil
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundTasks(ctx)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	cancel()
	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 释放后台任务、链连接和外部客户端
func (a *App) Close() {
	if a.services != nil {
		a.services.jobs.Stop()
	}
	if a.Chain != nil {
		a.Chain.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}
