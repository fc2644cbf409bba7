package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/metrics"
	"github.com/palemoky/who-spies/internal/server"
	"github.com/palemoky/who-spies/internal/server/storage"
	"github.com/palemoky/who-spies/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	if loadErr != nil {
		logger.LogInfo("加载配置文件失败，使用默认配置: %v", loadErr)
	}

	if err := run(cfg); err != nil {
		logger.LogError("服务器异常退出: %v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("打开存储失败: %w", err)
	}
	defer func() { _ = store.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	repo := session.NewRepository(store, session.OptionsFromConfig(cfg, metrics.NewMetrics("whospies", registry)))
	srv := server.NewServer(cfg, repo, registry)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.LogInfo("🎮 谁是卧底服务器启动中... 每局 %s, %d 个地点, 存储 %s",
		repo.RoundDuration(), len(repo.Locations()), cfg.Store.Backend)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.LogInfo("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
