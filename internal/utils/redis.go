package utils

import (
	"context"
	"os"
	"strconv"
	"time"

	"globe-quiz/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：按 REDIS_HOST/REDIS_PORT/REDIS_PASS/REDIS_DB 打开客户端
// 约束：未配置 REDIS_HOST 时返回 nil（缓存与去重功能关闭）；REDIS_DB 解析失败回退到 0
func OpenRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	addr := host + ":" + port
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
}

// PingRedis：启动期连通性检查；失败时关闭客户端并返回 nil，调用方按无 Redis 降级
func PingRedis(ctx context.Context, rc *redis.Client) *redis.Client {
	if rc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.L().Warn("redis_unavailable", "err", err)
		_ = rc.Close()
		return nil
	}
	return rc
}
