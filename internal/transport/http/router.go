package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renthub/backend/internal/auth"
	jwtpkg "renthub/backend/internal/auth/jwt"
	"renthub/backend/internal/config"
	"renthub/backend/internal/health"
	"renthub/backend/internal/middleware"
	"renthub/backend/internal/monitoring"
	"renthub/backend/internal/service"
	"renthub/backend/internal/storage"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	messaging *service.MessagingService
	listings  *service.ListingService
	support   *service.SupportResolver
	log       *zap.Logger
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config           *config.Config
	MessagingService *service.MessagingService
	ListingService   *service.ListingService
	SupportResolver  *service.SupportResolver
	AuthService      *auth.Service
	AdminService     *service.AdminService
	JWTManager       *jwtpkg.Manager
	Store            storage.Store
	JWTBlacklist     storage.JWTRepository // 可选：登出令牌黑名单（需要 Redis）
	Metrics          *monitoring.Metrics      // 可选：Prometheus 指标
	HealthChecker    *health.HealthChecker    // 可选：健康检查
	Logger           *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())

	// 请求体大小限制：图片上传端点放宽，其余走默认限制
	router.Use(middleware.DynamicBodySizeLimit(map[string]int64{
		"/v1/listings/:id/images": middleware.MediumBodyLimit + 1024*1024, // multipart 编码开销
	}, middleware.SmallBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins: deps.Config.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 监控中间件
	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(mm.HTTPMetrics())
		router.Use(mm.BusinessMetrics())
		router.Use(mm.RateLimitMetrics())
	}

	// 按 IP 限流
	if deps.Config.RateLimit.RequestsPerSecond > 0 {
		ipLimiter := middleware.NewIPRateLimiter(
			deps.Config.RateLimit.RequestsPerSecond,
			deps.Config.RateLimit.Burst,
		)
		router.Use(ipLimiter.Handler())
	}

	// 创建处理器
	handler := &Handler{
		messaging: deps.MessagingService,
		listings:  deps.ListingService,
		support:   deps.SupportResolver,
		log:       log,
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.JWTManager, log)
	adminHandler := NewAdminHandler(deps.AdminService, log)

	// 创建中间件
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)
	adminAuth := middleware.NewAdminAuth(deps.AuthService)

	// JWT 黑名单：有共享存储时登出即时生效
	if deps.JWTBlacklist != nil {
		jwtAuth.SetBlacklist(deps.JWTBlacklist)
		authHandler.SetBlacklist(deps.JWTBlacklist)
	}

	// 健康检查
	if deps.HealthChecker != nil {
		router.GET("/live", gin.WrapH(deps.HealthChecker.Handler()))
		router.GET("/ready", gin.WrapH(deps.HealthChecker.Handler()))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Auth Routes ==========
		// 登录注册按 IP 做固定窗口限流，防止暴力破解
		authRateLimit := middleware.DistributedRateLimit(deps.Store, "auth", 30, time.Minute)

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authRateLimit, authHandler.Register)
			authRoutes.POST("/login", authRateLimit, authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/logout", jwtAuth.RequireAuth(), authHandler.Logout)
			authRoutes.GET("/me", jwtAuth.RequireAuth(), authHandler.Me)
			authRoutes.POST("/password", jwtAuth.RequireAuth(), authHandler.ChangePassword)
		}

		// ========== Message Routes ==========
		messageRoutes := v1.Group("/messages")
		messageRoutes.Use(jwtAuth.RequireAuth())
		{
			messageRoutes.POST("", handler.sendMessage)
			messageRoutes.POST("/:messageId/read", handler.markMessageRead)
		}

		// ========== Inbox Routes ==========
		inboxRoutes := v1.Group("/inbox")
		inboxRoutes.Use(jwtAuth.RequireAuth())
		{
			inboxRoutes.GET("", handler.getInbox)
			inboxRoutes.GET("/unread", handler.getUnreadCount)
		}

		// ========== Thread Routes ==========
		threadRoutes := v1.Group("/threads")
		threadRoutes.Use(jwtAuth.RequireAuth())
		{
			threadRoutes.GET("/:counterpartyId", handler.getConversation)
			threadRoutes.POST("/:counterpartyId/read", handler.markThreadRead)
		}

		// ========== Support Routes ==========
		supportRoutes := v1.Group("/support")
		{
			supportRoutes.GET("", handler.getSupportStatus)
			supportRoutes.POST("/messages", jwtAuth.RequireAuth(), handler.contactSupport)
		}

		// ========== Listing Routes ==========
		listingRoutes := v1.Group("/listings")
		{
			// 浏览端点：未登录可访问，登录后可查看自己的房源
			listingRoutes.GET("", jwtAuth.OptionalAuth(), handler.listListings)
			listingRoutes.GET("/:id", handler.getListing)
			listingRoutes.GET("/:id/images", handler.listImages)
			listingRoutes.GET("/:id/images/:imageId", handler.getImage)

			// 管理端点：需要登录
			listingRoutes.POST("", jwtAuth.RequireAuth(), handler.createListing)
			listingRoutes.PATCH("/:id", jwtAuth.RequireAuth(), handler.updateListing)
			listingRoutes.DELETE("/:id", jwtAuth.RequireAuth(), handler.deleteListing)
			listingRoutes.POST("/:id/images", jwtAuth.RequireAuth(), handler.uploadImage)
			listingRoutes.DELETE("/:id/images/:imageId", jwtAuth.RequireAuth(), handler.deleteImage)
		}

		// ========== Admin Routes ==========
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(jwtAuth.RequireAuth()) // 所有管理路由都需要认证
		{
			adminRoutes.GET("/users", adminAuth.RequireAdmin(), adminHandler.ListUsers)
			adminRoutes.GET("/users/:id", adminAuth.RequireAdmin(), adminHandler.GetUser)
			adminRoutes.PATCH("/users/:id", adminAuth.RequireAdmin(), adminHandler.UpdateUser)

			adminRoutes.GET("/statistics", adminAuth.RequireAdmin(), adminHandler.GetStatistics)
		}
	}

	return router
}
