package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/logger"
)

const (
	visitorTTL    = 10 * time.Minute // 无请求且未封禁的记录保留时长
	sweepInterval = 5 * time.Minute
)

// fixedWindow 固定窗口计数，limit <= 0 表示不限制
type fixedWindow struct {
	size  time.Duration
	limit int
	start time.Time
	count int
}

// add 计入一次请求，返回是否仍在限额内
func (w *fixedWindow) add(now time.Time) bool {
	if now.Sub(w.start) >= w.size {
		w.start, w.count = now, 0
	}
	w.count++
	return w.limit <= 0 || w.count <= w.limit
}

type visitor struct {
	windows     []fixedWindow
	lastSeen    time.Time
	bannedUntil time.Time
}

// RateLimiter 按 IP 的写操作限流，任一窗口超限即封禁一段时间
type RateLimiter struct {
	cfg config.RateLimitConfig
	now func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter 创建限流器并启动过期记录清理，使用完毕需调用 Stop
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Allow 记录一次请求并判断是否放行
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{windows: []fixedWindow{
			{size: time.Second, limit: rl.cfg.MaxPerSecond},
			{size: time.Minute, limit: rl.cfg.MaxPerMinute},
		}}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	if now.Before(v.bannedUntil) {
		return false
	}

	allowed := true
	for i := range v.windows {
		if !v.windows[i].add(now) {
			allowed = false
		}
	}
	if !allowed {
		ban := rl.cfg.BanDurationTime()
		v.bannedUntil = now.Add(ban)
		logger.LogInfo("⚠️ IP %s 请求过于频繁，封禁 %v", ip, ban)
	}
	return allowed
}

// Banned IP 是否处于封禁期
func (rl *RateLimiter) Banned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitors[ip]
	return ok && rl.now().Before(v.bannedUntil)
}

// Stop 停止清理协程，可重复调用
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL && !now.Before(v.bannedUntil) {
			delete(rl.visitors, ip)
		}
	}
}

// OriginChecker 浏览器来源白名单，配置 "*" 时放行全部
type OriginChecker struct {
	any     bool
	origins map[string]struct{}
}

func NewOriginChecker(allowed []string) *OriginChecker {
	return &OriginChecker{
		any: lo.Contains(allowed, "*"),
		origins: lo.Associate(allowed, func(o string) (string, struct{}) {
			return strings.ToLower(o), struct{}{}
		}),
	}
}

// resolve 返回是否放行以及 CORS 头应回写的值。没有 Origin 头的请求（命令行、同源）放行但不回写。
func (oc *OriginChecker) resolve(origin string) (string, bool) {
	switch {
	case oc.any:
		return "*", true
	case origin == "":
		return "", true
	}
	if _, ok := oc.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	return "", false
}

// Check 供 HTTP 中间件和 WebSocket 升级共用
func (oc *OriginChecker) Check(r *http.Request) bool {
	_, ok := oc.resolve(r.Header.Get("Origin"))
	return ok
}

// AllowOrigin Access-Control-Allow-Origin 的值，为空时不设置
func (oc *OriginChecker) AllowOrigin(r *http.Request) string {
	echo, _ := oc.resolve(r.Header.Get("Origin"))
	return echo
}

// ClientIP 取代理头中最早的客户端地址，否则取连接地址
func ClientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
