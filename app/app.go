package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	codecHttp "f2v2f-service/ddd/adapter/http"
	codecapp "f2v2f-service/ddd/application/app"
	"f2v2f-service/internal/resource"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/observability"
	"f2v2f-service/pkg/task"

	_ "f2v2f-service/ddd/adapter/component"
	_ "f2v2f-service/ddd/adapter/grpc"
	_ "f2v2f-service/ddd/infrastructure/worker"
)

const serviceName = "f2v2f-service"

func Run(cfgPath string) {
	// 先使用标准输出确保能看到日志
	fmt.Println("[STARTUP] Starting f2v2f service...")

	if cfgPath == "" {
		cfgPath = resolveConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})

	profiler := observability.StartProfiling(serviceName, cfg.Profiling)
	defer profiler.Stop()

	logger.Infof("Initializing resource manager...")
	manager.MustInitResources()
	defer manager.CloseResources()
	logger.Infof("Resource manager initialized")

	codecApp := codecapp.DefaultCodecApp()
	logger.Infof("Codec service ready codec=%s container=%s", codecApp.Version().Codec, codecApp.Version().Container)

	deps := &manager.Dependencies{
		DB:       resource.DefaultDatabaseResource().MainDB(),
		Config:   cfg,
		CodecApp: codecApp,
	}

	logger.Infof("Initializing components...")
	manager.MustInitComponents(deps)
	logger.Infof("All components initialized")

	if err := task.StartAll(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}

	router := codecHttp.NewRouter(cfg)
	addr := cfg.Server.GetServerAddr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started addr=%s service=%s health_url=%s", addr, serviceName, fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port))

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	// 先停后台任务（worker 会等待进行中的任务），再停组件
	task.StopAll()
	manager.Shutdown()
	codecApp.Close()
	logger.Infof("Server exited safely")

	logService.Close()
	fmt.Println("[SHUTDOWN] f2v2f service exited safely")
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
