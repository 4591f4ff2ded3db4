package app

import (
	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/controller"
	"quiz_nft_backend/internal/middleware"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/pkg/configwatcher"
	"quiz_nft_backend/pkg/database"
	"quiz_nft_backend/pkg/logger"
	"quiz_nft_backend/pkg/monitoring"
	"quiz_nft_backend/pkg/security"
	"quiz_nft_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"go.uber.org/zap"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	quiz    *repository.QuizRepository
	result  *repository.ResultRepository
	payment *repository.PaymentRepository
	mint    *repository.MintRepository
}

type services struct {
	auth     *service.AuthService
	user     *service.UserService
	quiz     *service.QuizService
	scoring  *service.ScoringService
	quota    *service.QuotaService
	payment  *service.PaymentService
	storage  *service.StorageService
	images   *service.ImageService
	metadata *service.MetadataService
	wallet   *service.TonWalletService
	notifier *service.TelegramNotifier
	nft      *service.NFTService
}

type controllers struct {
	auth    *controller.AuthController
	user    *controller.UserController
	quiz    *controller.QuizController
	payment *controller.PaymentController
	nft     *controller.NFTController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		quiz:    repository.NewQuizRepository(db),
		result:  repository.NewResultRepository(db),
		payment: repository.NewPaymentRepository(db),
		mint:    repository.NewMintRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.scoring = service.NewScoringService()
	s.quota = service.NewQuotaService(rdb)
	s.storage = service.NewStorageService(cfg)
	s.images = service.NewImageService()
	s.metadata = service.NewMetadataService(cfg)
	s.wallet = service.NewTonWalletService(cfg)
	s.notifier = service.NewTelegramNotifier(cfg)

	s.auth = service.NewAuthService(cfg)
	s.user = service.NewUserService(repos.user)
	s.quiz = service.NewQuizService(repos.quiz, repos.result, repos.user, s.scoring, s.quota, cfg)
	s.payment = service.NewPaymentService(repos.payment, repos.result, s.quota, cfg)
	s.nft = service.NewNFTService(
		repos.mint,
		repos.result,
		repos.quiz,
		repos.user,
		repos.payment,
		s.storage,
		s.images,
		s.metadata,
		s.wallet,
		s.notifier,
		cfg,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		user:    controller.NewUserController(s.user),
		quiz:    controller.NewQuizController(s.quiz),
		payment: controller.NewPaymentController(s.payment),
		nft:     controller.NewNFTController(s.nft),
		health:  controller.NewHealthController(db, s.wallet),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// 中间件从上下文取配置（JWT 校验等）
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
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

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 限额依赖 redis，连不上时退化为不限额，服务本体照常启动
		logger.Log.Warn("Failed to initialize redis, quotas disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
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
		tp, err := tracing.InitTracer("quiz-nft-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers)

	// 配置热更新：价格、限额等字段运行时可调
	go configwatcher.WatchConfig("configs/config.yaml", app.applyConfig)

	return app
}

// applyConfig 只替换运行时可安全热更的配置段
func (a *App) applyConfig(newCfg *config.Config) {
	a.Config.Payment = newCfg.Payment
	a.Config.NFT = newCfg.NFT
	a.Config.TON = newCfg.TON
	logger.Log.Info("config reloaded")

	for _, cb := range a.configCallbacks {
		cb(newCfg)
	}
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

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	logger.Log.Sync()

	log.Println("Server exiting")
}
