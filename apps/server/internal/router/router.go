package router

import (
	"LovMapServer/apps/server/internal/handler"
	"LovMapServer/apps/server/internal/middleware"
	v1 "LovMapServer/apps/server/internal/router/v1"
	"LovMapServer/config"
	"LovMapServer/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的全部处理器（依赖注入）
type Handlers struct {
	Auth         *v1.AuthHandler
	Profile      *v1.ProfileHandler
	Friend       *v1.FriendHandler
	Lov          *v1.LovHandler
	Reaction     *v1.ReactionHandler
	Account      *v1.AccountHandler
	Notification *v1.NotificationHandler
	Geocode      *v1.GeocodeHandler
	WS           *handler.WSHandler
}

// InitRouter 初始化路由
func InitRouter(cfg config.ServerConfig, handlers *Handlers, ipLimiter, userLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 实时同步入口（鉴权走 query token，不经过 JWT 中间件）
	// 不套请求超时中间件：长连接的生命周期由连接自身管理
	r.GET("/ws", handlers.WS.ServeWS)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))
	{
		// 公开接口（不需要认证），IP 级限流防撞库
		public := api.Group("/auth")
		public.Use(middleware.IPRateLimitMiddleware(ipLimiter))
		{
			public.POST("/register", handlers.Auth.Register)
			public.POST("/login", handlers.Auth.Login)
		}

		// 需要认证的接口，用户级限流
		authed := api.Group("")
		authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		authed.Use(middleware.UserRateLimitMiddleware(userLimiter))
		{
			// 用户资料
			user := authed.Group("/user")
			{
				user.GET("/profile", handlers.Profile.GetProfile)
				user.PUT("/pseudo", handlers.Profile.SetPseudo)
				user.PUT("/notify-prefs", handlers.Profile.UpdateNotifyPrefs)
			}

			// 好友
			friend := authed.Group("/friend")
			{
				friend.POST("", handlers.Friend.AddFriend)
				friend.GET("/list", handlers.Friend.ListFriends)
				friend.POST("/colors/reassign", handlers.Friend.ReassignColors)
				friend.DELETE("/:friendUuid", handlers.Friend.RemoveFriend)
			}

			// 标记点与表态
			lov := authed.Group("/lov")
			{
				lov.POST("", handlers.Lov.AddLov)
				lov.GET("/list", handlers.Lov.ListVisible)
				lov.GET("/markers", handlers.Lov.ListMarkers)
				lov.GET("/nearby", handlers.Lov.Nearby)
				lov.GET("/user/:userUuid", handlers.Lov.ListUserLovs)
				lov.PUT("/:id", handlers.Lov.UpdateLov)
				lov.DELETE("/:id", handlers.Lov.DeleteLov)
				lov.POST("/:id/react", handlers.Reaction.Toggle)
				lov.GET("/:id/reactions", handlers.Reaction.Counts)
			}

			// 通知历史
			notification := authed.Group("/notification")
			{
				notification.GET("/list", handlers.Notification.List)
				notification.GET("/unread-count", handlers.Notification.UnreadCount)
				notification.PUT("/read-all", handlers.Notification.MarkAllRead)
				notification.PUT("/:id/read", handlers.Notification.MarkRead)
				notification.DELETE("/:id", handlers.Notification.Delete)
				notification.DELETE("", handlers.Notification.Clear)
			}

			// 地理编码
			geocode := authed.Group("/geocode")
			{
				geocode.GET("/search", handlers.Geocode.Search)
			}

			// 账号生命周期
			authed.DELETE("/account", handlers.Account.DeleteAccount)
		}
	}

	return r
}
