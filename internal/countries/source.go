package countries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"globe-quiz/internal/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultURL：Natural Earth 1:110m 国家边界
const DefaultURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_admin_0_countries.geojson"

const redisKey = "dataset:countries"

// maxDatasetBytes：单次下载上限，防止上游异常返回超大响应
const maxDatasetBytes = 64 << 20

// Source：数据集字节来源（Redis 副本 → 本地文件 → 远端 URL）
// 约束：RC、Path 可为空；远端拉取成功后回写本地文件与 Redis
type Source struct {
	URL      string
	Path     string
	RC       *redis.Client
	CacheTTL time.Duration
	Client   *http.Client
}

// Fetch：按优先级读取数据集字节（不校验内容）
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	if b := s.fromRedis(ctx); b != nil {
		return b, nil
	}
	if b := s.fromFile(); b != nil {
		s.remember(ctx, b)
		return b, nil
	}
	b, err := s.Download(ctx)
	if err != nil {
		return nil, err
	}
	s.keep(ctx, b)
	return b, nil
}

func (s *Source) fromRedis(ctx context.Context) []byte {
	if s.RC == nil {
		return nil
	}
	b, err := s.RC.Get(ctx, redisKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Error("dataset_redis_error", "err", err)
		}
		return nil
	}
	if len(b) == 0 {
		return nil
	}
	logger.L().Debug("dataset_redis_hit", "bytes", len(b))
	return b
}

func (s *Source) fromFile() []byte {
	if s.Path == "" {
		return nil
	}
	b, err := os.ReadFile(s.Path)
	if err != nil || len(b) == 0 {
		return nil
	}
	logger.L().Debug("dataset_file_hit", "path", s.Path, "bytes", len(b))
	return b
}

// keep：远端拉取成功后回写本地文件与 Redis
func (s *Source) keep(ctx context.Context, b []byte) {
	if s.Path != "" {
		if err := writeFile(s.Path, b); err != nil {
			logger.L().Error("dataset_file_write_error", "path", s.Path, "err", err)
		}
	}
	s.remember(ctx, b)
}

// Download：强制从远端拉取（刷新任务与离线工具使用）
func (s *Source) Download(ctx context.Context) ([]byte, error) {
	u := s.URL
	if u == "" {
		u = DefaultURL
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: unexpected status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	logger.L().Info("dataset_download_ok", "url", u, "bytes", len(b), "duration_ms", time.Since(t0).Milliseconds())
	return b, nil
}

// Load：Redis → 文件 → 远端 逐级读取并清洗为目录
// 约束：某一级内容无法解析或清洗后为空时记录日志并继续下一级，不让坏副本挡住启动
func (s *Source) Load(ctx context.Context, opts Options) (*Catalog, Report, error) {
	l := logger.L()
	if b := s.fromRedis(ctx); b != nil {
		cat, rep, err := parseUsable(b, opts)
		if err == nil {
			return cat, rep, nil
		}
		l.Warn("dataset_redis_invalid", "err", err)
	}
	if b := s.fromFile(); b != nil {
		cat, rep, err := parseUsable(b, opts)
		if err == nil {
			s.remember(ctx, b)
			return cat, rep, nil
		}
		l.Warn("dataset_file_invalid", "path", s.Path, "err", err)
	}
	b, err := s.Download(ctx)
	if err != nil {
		return nil, Report{}, err
	}
	cat, rep, err := parseUsable(b, opts)
	if err != nil {
		return nil, rep, err
	}
	s.keep(ctx, b)
	return cat, rep, nil
}

func parseUsable(b []byte, opts Options) (*Catalog, Report, error) {
	cat, rep, err := Parse(b, opts)
	if err != nil {
		return nil, rep, err
	}
	if cat.Len() == 0 {
		return nil, rep, errors.New("dataset has no usable features")
	}
	return cat, rep, nil
}

// Save：把已下载的字节写入本地文件并预热 Redis 副本（离线工具使用）
func (s *Source) Save(ctx context.Context, b []byte) error {
	if s.Path != "" {
		if err := writeFile(s.Path, b); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
	}
	s.remember(ctx, b)
	return nil
}

func (s *Source) remember(ctx context.Context, b []byte) {
	if s.RC == nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.RC.Set(ctx, redisKey, b, ttl).Err(); err != nil {
		logger.L().Error("dataset_redis_set_error", "err", err)
	}
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
