package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/protocol"
)

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.corsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/ws/{id}", s.handleStream).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods(http.MethodGet)

	post := func(path string, h http.HandlerFunc) {
		r.Handle(path, s.rateLimitMiddleware(h)).Methods(http.MethodPost, http.MethodOptions)
	}
	post("/rooms", s.handleCreateRoom)
	post("/rooms/{id}/join", s.handleJoin)
	post("/rooms/{id}/leave", s.handleLeave)
	post("/rooms/{id}/ready", s.handleReady)
	post("/rooms/{id}/start", s.handleStart)
	post("/rooms/{id}/voting", s.handleStartVoting)
	post("/rooms/{id}/votes", s.handleVote)
	post("/rooms/{id}/guess", s.handleGuess)
	post("/rooms/{id}/reset", s.handleReset)

	return r
}

// corsMiddleware 按允许来源回写 CORS 头，预检请求直接返回
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.originChecker.AllowOrigin(r); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		}

		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if !s.originChecker.Check(r) {
			logger.LogInfo("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), ClientIP(r))
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware 按 IP 限制写操作频率
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && !s.rateLimiter.Allow(ClientIP(r)) {
			sendCode(w, http.StatusTooManyRequests, protocol.ErrCodeRateLimit)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware 处理器 panic 时记录日志并返回 500
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.LogPanic(rec)
				sendCode(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
