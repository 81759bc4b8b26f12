package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"innoteach/backend/config"
	"innoteach/backend/internal/api/handler"
	"innoteach/backend/internal/api/router"
	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/repository"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/database"
	"innoteach/backend/pkg/jwt"
	applogger "innoteach/backend/pkg/logger"
	"innoteach/backend/pkg/openrouter"
	"innoteach/backend/pkg/redis"
	"innoteach/backend/pkg/storage"
	"innoteach/backend/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config/config.yaml")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("upload_driver", cfg.Upload.Driver),
	)

	ctx := context.Background()

	// 3. 链路追踪
	shutdownTracing, err := tracing.Init(ctx, &cfg.Trace, logger)
	if err != nil {
		logger.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	// 4. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger, cfg.Log.Level == "debug")
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：连接失败时限流降级放行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，登录限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 6. 基础组件
	jwtMgr := jwt.NewManager(&cfg.Auth)

	az, err := authz.New()
	if err != nil {
		logger.Fatal("初始化授权策略失败", zap.Error(err))
	}

	store, err := storage.New(ctx, &cfg.Upload, logger)
	if err != nil {
		logger.Fatal("初始化附件存储失败", zap.Error(err))
	}

	if cfg.AI.APIKey == "" {
		logger.Warn("未配置 ai.api_key，AI 评阅请求将返回上游错误")
	}
	grader := openrouter.NewClient(&cfg.AI, logger)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Repo:      repo,
		JWT:       jwtMgr,
		Authz:     az,
		Storage:   store,
		Grader:    grader,
		AITimeout: cfg.AI.Timeout,
		Logger:    logger,
	})

	checks := map[string]func(context.Context) error{
		"db": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}

	h := handler.NewHandler(svc, handler.Options{
		Cookie: handler.CookieOptions{
			TTL:      jwtMgr.TTL(),
			Secure:   cfg.Auth.Cookie.Secure,
			SameSite: cfg.Auth.Cookie.SameSite,
			Domain:   cfg.Auth.Cookie.Domain,
		},
		MaxUploadSize: cfg.Upload.MaxSize,
		Checks:        checks,
	})

	// 8. 初始化路由
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	// WriteTimeout 需覆盖 AI 评阅耗时
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("链路追踪关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
