package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renthub/backend/internal/auth"
	jwtpkg "renthub/backend/internal/auth/jwt"
	"renthub/backend/internal/config"
	"renthub/backend/internal/domain"
	"renthub/backend/internal/health"
	"renthub/backend/internal/logger"
	"renthub/backend/internal/monitoring"
	"renthub/backend/internal/pool"
	"renthub/backend/internal/service"
	"renthub/backend/internal/storage"
	"renthub/backend/internal/storage/filesystem"
	"renthub/backend/internal/storage/hybrid"
	"renthub/backend/internal/storage/memory"
	"renthub/backend/internal/storage/redis"
	sqlstore "renthub/backend/internal/storage/sql"
	httptransport "renthub/backend/internal/transport/http"
)

// main 启动租房平台后端服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting renthub server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	var cache *redis.Cache

	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		store, cache, err = initializeDatabaseStorage(cfg, log)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		// 内存存储（开发环境）
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, log)

	// 初始化文件系统存储（用于房源图片）
	fsStore, err := filesystem.NewStore(cfg.Listing.ImagePath)
	if err != nil {
		log.Warn("failed to initialize filesystem storage, continuing without it", zap.Error(err))
		fsStore = nil
	} else {
		log.Info("filesystem storage initialized", zap.String("path", cfg.Listing.ImagePath))
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 后台任务协程池（未读角标异步刷新）
	tasks := pool.NewWorkerPool(4, 256, log)
	tasks.Start(ctx)

	// 初始化服务层
	messagingService := service.NewMessagingService(
		store, store,
		cfg.Messaging.DefaultPageSize,
		cfg.Messaging.MaxPageSize,
		log,
	)
	listingService := service.NewListingService(store, cfg.Listing.MaxImageSize)
	if fsStore != nil {
		listingService.SetImageStore(fsStore)
	}
	adminService := service.NewAdminService(store)

	// Redis 缓存层：未读角标与统计信息
	if cache != nil {
		messagingService.SetBadgeCache(cache, tasks)
		adminService.SetStatisticsCache(cache)
	}

	// 初始化认证服务
	authService := auth.NewService(store)
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
		zap.Duration("refresh_expiry", cfg.JWT.RefreshExpiry),
	)

	// 解析客服账号：配置了地址但账号不存在属于部署错误，直接启动失败
	supportResolver, err := service.NewSupportResolver(cfg.Messaging.SupportAddress, store, log)
	if err != nil {
		log.Fatal("failed to resolve support account",
			zap.String("address", cfg.Messaging.SupportAddress),
			zap.Error(err),
		)
	}

	// 创建默认管理员用户（仅用于开发测试）
	if cfg.Log.Development {
		createDefaultAdmin(store, log)
	}

	// 创建 HTTP 服务器
	// 登出黑名单需要共享存储，只有启用 Redis 时才开启
	var jwtBlacklist storage.JWTRepository
	if cache != nil {
		jwtBlacklist = cache
	}

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:           cfg,
		MessagingService: messagingService,
		ListingService:   listingService,
		SupportResolver:  supportResolver,
		AuthService:      authService,
		AdminService:     adminService,
		JWTManager:       jwtManager,
		Store:            store,
		JWTBlacklist:     jwtBlacklist,
		Metrics:          metrics,
		HealthChecker:    healthChecker,
		Logger:           log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时更新系统指标 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		started := time.Now()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateSystemUptime(time.Since(started))
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		tasks.Stop()

		if err := store.Close(); err != nil {
			log.Warn("storage close warning", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// createDefaultAdmin 创建默认管理员用户（仅用于开发测试）
func createDefaultAdmin(store storage.Store, log *zap.Logger) {
	email := "admin@renthub.local"
	password := "Admin123456!"
	username := "admin"

	// 管理员已存在则跳过
	if _, err := store.GetUserByEmail(email); err == nil {
		log.Info("默认管理员用户已存在，跳过创建", zap.String("email", email))
		return
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Error("无法哈希密码", zap.Error(err))
		return
	}

	user := &domain.User{
		ID:              "super-admin-001",
		Email:           email,
		Username:        username,
		PasswordHash:    hashedPassword,
		Role:            domain.RoleSuper,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := store.CreateUser(user); err != nil {
		log.Error("创建默认管理员失败", zap.Error(err))
		return
	}

	log.Warn("默认管理员用户已创建（仅用于开发环境）",
		zap.String("email", email),
		zap.String("password", password),
		zap.String("role", string(domain.RoleSuper)),
	)
}

// initializeDatabaseStorage 初始化数据库存储
//
// 启用了 Redis 时返回混合存储（SQL + 缓存），否则返回纯 SQL 存储。
func initializeDatabaseStorage(cfg *config.Config, log *zap.Logger) (storage.Store, *redis.Cache, error) {
	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	db, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sql store: %w", err)
	}

	// 自动迁移表结构
	if err := db.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if !cfg.Redis.Enabled {
		return db, nil, nil
	}

	cache, err := redis.NewCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis cache: %w", err)
	}

	store, err := hybrid.NewStore(db, cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create hybrid store: %w", err)
	}

	return store, cache, nil
}
