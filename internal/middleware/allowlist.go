package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"globe-quiz/internal/logger"
)

// AllowList：按来源 IP/CIDR 放行（用于 /metrics 等运维端点）
// 约束：来源以 RemoteAddr 为准；列表为空表示不限制
type AllowList struct {
	nets []*net.IPNet
}

// ParseAllowList：逗号分隔的 IP 或 CIDR；非法项记日志后忽略
func ParseAllowList(s string) *AllowList {
	al := &AllowList{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				p = ip.String() + "/" + strconv.Itoa(bits)
			}
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			logger.L().Warn("allowlist_entry_invalid", "entry", p)
			continue
		}
		al.nets = append(al.nets, n)
	}
	return al
}

// AllowListFromEnv：读取 METRICS_ALLOW
func AllowListFromEnv() *AllowList { return ParseAllowList(os.Getenv("METRICS_ALLOW")) }

// Allowed：空列表放行全部
func (a *AllowList) Allowed(ip net.IP) bool {
	if a == nil || len(a.nets) == 0 {
		return true
	}
	if ip == nil {
		return false
	}
	for _, n := range a.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Guard：不在名单内返回 403
func (a *AllowList) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !a.Allowed(net.ParseIP(host)) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
