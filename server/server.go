package server

import (
	"context"
	"net/http"
	"time"

	"SyncWave/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册控制接口、会话推送和监控路由
func NewRouter(h *SessionHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, requestLogger)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/session/file", h.ChooseFile).Methods(http.MethodPost)
	api.HandleFunc("/session/analyze", h.Analyze).Methods(http.MethodPost)
	api.HandleFunc("/session/search", h.Search).Methods(http.MethodPost)
	api.HandleFunc("/session/refresh", h.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/session/select", h.SelectTrack).Methods(http.MethodPost)
	api.HandleFunc("/session/trim", h.SetTrim).Methods(http.MethodPut)
	api.HandleFunc("/session/selection", h.CancelSelection).Methods(http.MethodDelete)
	api.HandleFunc("/session/merge", h.Merge).Methods(http.MethodPost)
	api.HandleFunc("/session/reset", h.Reset).Methods(http.MethodPost)
	api.HandleFunc("/preview", h.TogglePreview).Methods(http.MethodPost)
	api.HandleFunc("/preview", h.StopPreview).Methods(http.MethodDelete)

	router.HandleFunc("/ws/session", h.SessionStream).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

// corsMiddleware 允许本地前端跨域访问
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger 记录请求日志并注入 X-Request-ID
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// websocket 升级需要原始 ResponseWriter
		if r.URL.Path == "/ws/session" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Debug("[Server] http_request",
			logger.String("rid", reqID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("latency", time.Since(start)))
	})
}

// Run 启动 HTTP 服务，ctx 结束后优雅关闭
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] 控制接口已启动", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Server] 正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[Server] 服务已停止")
	return nil
}
