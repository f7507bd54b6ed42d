package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"LovMapServer/apps/server/internal/handler"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/manager"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/router"
	v1 "LovMapServer/apps/server/internal/router/v1"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/apps/server/mq"
	"LovMapServer/config"
	"LovMapServer/model"
	"LovMapServer/pkg/async"
	"LovMapServer/pkg/logger"
	"LovMapServer/pkg/mysql"
	pkgredis "LovMapServer/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 初始化日志
	logCfg := config.DefaultLoggerConfig()
	zl, err := logger.Build(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 2. 初始化协程池（缓存扇出、通知分发都走这里）
	asyncCfg := config.DefaultAsyncConfig()
	if err := async.Init(asyncCfg); err != nil {
		log.Fatalf("初始化协程池失败: %v", err)
	}
	defer func() {
		if err := async.Release(); err != nil {
			logger.Error(ctx, "释放协程池失败", logger.ErrorField("error", err))
		}
	}()

	// 3. 初始化MySQL
	dbCfg := config.DefaultMySQLConfig()
	db, err := mysql.Build(dbCfg)
	if err != nil {
		log.Fatalf("初始化MySQL失败: %v", err)
	}
	mysql.ReplaceGlobal(db)

	if err := db.AutoMigrate(
		&model.UserProfile{},
		&model.Friendship{},
		&model.Lov{},
		&model.Reaction{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化Redis
	redisCfg := config.DefaultRedisConfig()
	// 调整 Redis 读写超时时间为 50ms（快速失败）
	redisCfg.ReadTimeout = 50 * time.Millisecond
	redisCfg.WriteTimeout = 50 * time.Millisecond

	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		// Redis 初始化失败不阻塞启动（降级到只用 MySQL + 本地限流）
		logger.Warn(ctx, "Redis 初始化失败，将降级到 MySQL-Only 模式",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 5. 初始化 Kafka 通知任务生产者
	kafkaCfg := config.DefaultKafkaConfig()
	mq.InitProducer(kafkaCfg)
	defer func() {
		if err := mq.CloseProducer(); err != nil {
			logger.Error(ctx, "关闭 Kafka Producer 失败", logger.ErrorField("error", err))
		}
	}()

	// 6. 组装依赖 - Repository 层
	userRepo := repository.NewUserRepository(db, redisClient)
	friendRepo := repository.NewFriendshipRepository(db, redisClient)
	lovRepo := repository.NewLovRepository(db, redisClient)
	reactionRepo := repository.NewReactionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 7. 组装依赖 - 实时事件 Hub 与连接管理
	hub := live.NewHub()
	connManager := manager.NewConnectionManager()
	defer connManager.Shutdown()

	// 8. 组装依赖 - Service 层
	serverCfg := config.DefaultServerConfig()
	notifier := service.NewNotifier(userRepo, notificationRepo, hub)
	profileService := service.NewProfileService(userRepo, friendRepo, hub)
	authService := service.NewAuthService(userRepo, profileService, serverCfg)
	friendService := service.NewFriendService(userRepo, friendRepo, hub, notifier)
	lovService := service.NewLovService(userRepo, friendRepo, lovRepo, reactionRepo, hub, notifier)
	reactionService := service.NewReactionService(userRepo, friendRepo, lovRepo, reactionRepo, hub, notifier)
	accountService := service.NewAccountService(userRepo, friendRepo, lovRepo, reactionRepo, notificationRepo, hub, serverCfg)
	notificationService := service.NewNotificationService(notificationRepo)

	geocodeService, err := service.NewGeocodeService(config.DefaultGeocoderConfig())
	if err != nil {
		log.Fatalf("初始化地理编码服务失败: %v", err)
	}

	// 9. 组装依赖 - Handler 层
	handlers := &router.Handlers{
		Auth:         v1.NewAuthHandler(authService),
		Profile:      v1.NewProfileHandler(profileService),
		Friend:       v1.NewFriendHandler(friendService),
		Lov:          v1.NewLovHandler(lovService),
		Reaction:     v1.NewReactionHandler(reactionService),
		Account:      v1.NewAccountHandler(accountService),
		Notification: v1.NewNotificationHandler(notificationService),
		Geocode:      v1.NewGeocodeHandler(geocodeService),
		WS:           handler.NewWSHandler(connManager, hub, friendService, serverCfg.JWTSecret),
	}

	// 限流：公开接口按 IP 收紧，认证接口按用户放宽
	ipLimiter := middleware.NewRateLimiter(redisClient, 5, 10)
	userLimiter := middleware.NewRateLimiter(redisClient, 20, 40)

	// 10. 启动 HTTP Server
	engine := router.InitRouter(serverCfg, handlers, ipLimiter, userLimiter)
	server := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info(ctx, "LovMap 服务启动成功",
			logger.String("address", serverCfg.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP Server 启动失败", logger.ErrorField("error", err))
		}
	}()

	// 11. 等待退出信号，优雅关停
	<-ctx.Done()
	stop()
	logger.Info(context.Background(), "收到退出信号，开始优雅关停")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP Server 关停失败", logger.ErrorField("error", err))
	}
}
