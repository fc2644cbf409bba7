// Package server 对外的 HTTP/WebSocket 接口：房间操作、房间状态推送、指标和健康检查
package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/session"
)

// Server HTTP 服务器
type Server struct {
	config   *config.Config
	repo     *session.Repository
	registry *prometheus.Registry
	validate *validator.Validate

	originChecker *OriginChecker
	rateLimiter   *RateLimiter
	upgrader      websocket.Upgrader

	router     http.Handler
	httpServer *http.Server

	streams     sync.WaitGroup
	streamCount atomic.Int64
	done        chan struct{}
	closeOnce   sync.Once
}

// NewServer 创建服务器实例，registry 为 nil 时使用独立的注册表
func NewServer(cfg *config.Config, repo *session.Repository, registry *prometheus.Registry) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		config:        cfg,
		repo:          repo,
		registry:      registry,
		validate:      validator.New(),
		originChecker: NewOriginChecker(cfg.Server.AllowedOrigins),
		rateLimiter:   NewRateLimiter(cfg.Server.RateLimit),
		done:          make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.LogInfo("🔒 安全配置: 请求限制=%d/s %d/min, 允许来源=%v",
		cfg.Server.RateLimit.MaxPerSecond, cfg.Server.RateLimit.MaxPerMinute, cfg.Server.AllowedOrigins)
	return s
}

// Handler 返回路由（测试时配合 httptest 使用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// StreamCount 当前的推送连接数
func (s *Server) StreamCount() int {
	return int(s.streamCount.Load())
}
