package api

import (
	"net"
	"net/http"
	"strings"
)

// 文档注释：获取访问者 IP（用于每日去重与首屏定位）
// 背景：多层代理下依次读取常见反向代理头，最后回退 RemoteAddr
// 约束：头部可被伪造，只用于统计与体验优化，不作鉴权依据
func getVisitorIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := strings.TrimSpace(h.Get(k)); x != "" {
			return x
		}
	}
	if x := h.Get("forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			y = strings.Trim(y, "\" []")
			return y
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// locateIP：/locate 允许 ?ip= 显式指定（调试），否则取访问者 IP
func locateIP(r *http.Request) net.IP {
	if q := r.URL.Query().Get("ip"); q != "" {
		return net.ParseIP(q)
	}
	return net.ParseIP(getVisitorIP(r))
}
