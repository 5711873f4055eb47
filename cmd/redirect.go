package main

import (
	"log/slog"
	"net"
	"net/http"
	"os"

	"globe-quiz/internal/logger"
)

// serveRedirect：HTTP → HTTPS 跳转，目标端口取 HTTPS 监听端口
func serveRedirect(l *slog.Logger, httpsAddr string) {
	redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
	if redirAddr == "" {
		redirAddr = ":80"
	}
	l.Info("http_redirect_listening", "addr", redirAddr, "to", httpsAddr)
	if err := http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(redirectHandler(httpsAddr))); err != nil {
		l.Error("http_redirect_error", "err", err)
	}
}

// redirectHandler：保留请求主机名，端口换成 httpsAddr 的端口（443 省略）
// 约束：httpsAddr 可为 ":8443"、"0.0.0.0:8443" 或 "[::]:8443"；无法解析时不附加端口
func redirectHandler(httpsAddr string) http.Handler {
	_, httpsPort, err := net.SplitHostPort(httpsAddr)
	if err != nil {
		httpsPort = ""
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if httpsPort != "" && httpsPort != "443" {
			host = net.JoinHostPort(host, httpsPort)
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
