// 程序入口：读取配置、加载国家数据集、初始化可选依赖并启动服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"globe-quiz/internal/api"
	"globe-quiz/internal/countries"
	"globe-quiz/internal/hints"
	"globe-quiz/internal/locate"
	"globe-quiz/internal/logger"
	"globe-quiz/internal/metrics"
	"globe-quiz/internal/middleware"
	"globe-quiz/internal/migrate"
	"globe-quiz/internal/session"
	"globe-quiz/internal/store"
	"globe-quiz/internal/utils"
	"globe-quiz/internal/version"

	"github.com/joho/godotenv"
)

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	ui := os.Getenv("UI_DIST")
	if ui == "" {
		ui = filepath.Join("ui", "dist")
	}
	l.Debug("config_paths", "api_base", apiBase, "ui", ui)

	rc := utils.PingRedis(ctx, utils.OpenRedisFromEnv())
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		l.Info("redis_ping_ok")
	}

	// 数据集：Redis 副本 → 本地文件 → 远端；启动时加载失败直接退出
	datasetPath := os.Getenv("DATASET_PATH")
	if datasetPath == "" {
		datasetPath = filepath.Join("data", "countries.geojson")
	}
	src := &countries.Source{
		URL:      os.Getenv("DATASET_URL"),
		Path:     datasetPath,
		RC:       rc,
		CacheTTL: time.Duration(envInt("DATASET_CACHE_TTL_H", 24)) * time.Hour,
	}
	opts := countries.Options{Exclude: envList("EXCLUDE_CODES")}
	cat, rep, err := src.Load(ctx, opts)
	if err != nil {
		l.Error("dataset_load_error", "err", err, "path", datasetPath)
		os.Exit(1)
	}
	l.Info("dataset_load_ok", "kept", rep.Kept, "remapped", rep.Remapped, "dropped", rep.Total-rep.Kept)
	var holder countries.Holder
	holder.Set(cat)
	metrics.DatasetFeatures.Set(float64(cat.Len()))
	countries.StartRefresh(ctx, src, &holder, opts, time.Duration(envInt("DATASET_REFRESH_H", 0))*time.Hour, func(c *countries.Catalog) {
		metrics.DatasetFeatures.Set(float64(c.Len()))
	})

	// 统计库可选：STATS_DRIVER 为空时不记录聚合计数
	var st *store.Store
	db, dialect, err := utils.OpenStatsFromEnv()
	switch {
	case err != nil:
		l.Error("stats_db_open_error", "err", err)
	case db == nil:
		l.Info("stats_disabled")
	default:
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("stats_db_ping_error", "err", err)
		} else if err := migrate.EnsureSchema(db, dialect); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		} else {
			st = store.AttachDB(db, dialect)
			l.Info("stats_db_ok", "dialect", string(dialect))
		}
	}

	var loc *locate.Locator
	if p := os.Getenv("GEOIP_PATH"); p != "" {
		if loc, err = locate.Open(p, &holder); err != nil {
			l.Error("geoip_open_error", "err", err)
			loc = nil
		} else {
			defer loc.Close()
			l.Info("geoip_ready", "path", p)
		}
	}

	sessions := session.NewRegistry(envInt("SESSION_MAX", 10000), time.Duration(envInt("SESSION_TTL_MIN", 120))*time.Minute)

	apiMux := api.BuildRoutes(api.Deps{
		Catalog:   &holder,
		Sessions:  sessions,
		Hints:     hints.Provider{},
		Stats:     st,
		Redis:     rc,
		Locator:   loc,
		PublicURL: os.Getenv("PUBLIC_URL"),
	})
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", middleware.AllowListFromEnv().Guard(metrics.Handler()))
	mux.Handle("/", http.FileServer(http.Dir(ui)))
	// 向前端暴露 API 基础路径与渲染约定，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'\n"))
		_, _ = w.Write([]byte("window.__GLOBE_RADIUS__=100\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "globe-quiz.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go serveRedirect(l, addr)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_done")
}
