package app

import (
	"context"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/controller"
	"exam_portal_backend/internal/questionbank"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/pkg/configwatcher"
	"exam_portal_backend/pkg/database"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"
	"exam_portal_backend/pkg/security"
	"exam_portal_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Bank   *questionbank.Bank
}

type repositories struct {
	user  *repository.UserRepository
	score *repository.ScoreRepository
}

type services struct {
	identity    service.IdentityProvider
	storage     *service.StorageService
	mail        *service.MailService
	tokens      *service.ResetTokenStore
	auth        *service.AuthService
	user        *service.UserService
	exam        *service.ExamService
	dashboard   *service.DashboardService
	leaderboard *service.LeaderboardService
	admin       *service.AdminService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	exam        *controller.ExamController
	admin       *controller.AdminController
	leaderboard *controller.LeaderboardController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:  repository.NewUserRepository(db),
		score: repository.NewScoreRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.identity = service.NewIdentityProvider(cfg, db)
	s.storage = service.NewStorageService(cfg)
	s.mail = service.NewMailService(&cfg.Mail)
	s.tokens = service.NewResetTokenStore(rdb, service.ResetTokenTTL)

	s.auth = service.NewAuthService(repos.user, s.identity, s.mail, s.tokens, cfg)
	s.user = service.NewUserService(repos.user, s.storage)
	s.exam = service.NewExamService(a.Bank, repos.score, repos.user)
	s.dashboard = service.NewDashboardService(repos.score)
	s.leaderboard = service.NewLeaderboardService(repos.user, repos.score)
	s.admin = service.NewAdminService(repos.user, repos.score)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		user:        controller.NewUserController(s.user, s.auth, s.dashboard),
		exam:        controller.NewExamController(s.exam, a.Config),
		admin:       controller.NewAdminController(s.admin),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 题库文件热更新
func (a *App) startBackgroundTasks(cfg *config.Config) {
	if !cfg.Questions.WatchForChanges {
		return
	}
	go configwatcher.Watch(cfg.Questions.Path, func(path string) {
		if err := a.Bank.Reload(path); err != nil {
			logger.Log.Error("question bank reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Log.Info("question bank reloaded", zap.String("path", path))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	bank, err := questionbank.Load(cfg.Questions.Path)
	if err != nil {
		logger.Log.Fatal("Failed to load question bank", zap.Error(err))
		log.Fatalf("Failed to load question bank: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Bank:   bank,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exam-portal", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
