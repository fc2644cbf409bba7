package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/palemoky/who-spies/internal/logger"
)

// Start 启动服务器和后台维护任务，阻塞直到服务器关闭
func (s *Server) Start() error {
	go s.maintenanceLoop()

	logger.LogInfo("🚀 服务器启动在 http://%s (CPU核心数: %d)", s.httpServer.Addr, runtime.NumCPU())
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 停止接收请求，关闭所有推送连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	s.rateLimiter.Stop()

	err := s.httpServer.Shutdown(ctx)

	finished := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		logger.LogError("⚠️ 超时，仍有 %d 个推送连接未关闭", s.StreamCount())
		if err == nil {
			err = ctx.Err()
		}
	}

	logger.LogInfo("服务器已关闭")
	return err
}

// maintenanceLoop 定期清理空闲房间并输出运行状态
func (s *Server) maintenanceLoop() {
	ticker := time.NewTicker(s.config.Game.CleanupIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.runMaintenance()
		}
	}
}

func (s *Server) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Store.OpTimeoutDuration())
	defer cancel()

	if _, err := s.repo.CleanupIdle(ctx, s.config.Game.IdleTimeoutDuration()); err != nil {
		logger.LogError("清理空闲房间失败: %v", err)
	}

	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		logger.LogError("读取房间列表失败: %v", err)
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.LogInfo("📊 [监控] 房间: %d | 推送连接: %d | Goroutines: %d | 内存: %.2f MB",
		len(rooms), s.StreamCount(), runtime.NumGoroutine(), float64(m.Alloc)/1024/1024)
}
