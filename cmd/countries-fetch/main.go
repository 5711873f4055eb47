// 数据集工具：下载国家边界 GeoJSON，按服务端同样的规则校验后写入本地文件，可选预热 Redis 副本
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/logger"
	"globe-quiz/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	defPath := os.Getenv("DATASET_PATH")
	if defPath == "" {
		defPath = filepath.Join("data", "countries.geojson")
	}
	url := flag.String("url", os.Getenv("DATASET_URL"), "dataset URL (default: Natural Earth 110m)")
	out := flag.String("out", defPath, "output file")
	warm := flag.Bool("redis", false, "also write the dataset into Redis (REDIS_HOST must be set)")
	exclude := flag.String("exclude", os.Getenv("EXCLUDE_CODES"), "comma separated ISO codes to exclude")
	list := flag.Bool("list", false, "print kept codes")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	src := &countries.Source{URL: *url, Path: *out}
	if *warm {
		if src.RC = utils.PingRedis(ctx, utils.OpenRedisFromEnv()); src.RC == nil {
			l.Error("redis_unavailable_for_warm")
			os.Exit(1)
		}
		defer src.RC.Close()
	}

	b, err := src.Download(ctx)
	if err != nil {
		l.Error("download_error", "err", err)
		os.Exit(1)
	}
	var opts countries.Options
	for _, c := range strings.Split(*exclude, ",") {
		if c = strings.TrimSpace(c); c != "" {
			opts.Exclude = append(opts.Exclude, c)
		}
	}
	cat, rep, err := countries.Parse(b, opts)
	if err != nil {
		l.Error("parse_error", "err", err)
		os.Exit(1)
	}
	if cat.Len() == 0 {
		l.Error("dataset_empty", "total", rep.Total)
		os.Exit(1)
	}
	if err := src.Save(ctx, b); err != nil {
		l.Error("save_error", "err", err)
		os.Exit(1)
	}
	l.Info("dataset_saved", "path", *out, "bytes", len(b), "kept", rep.Kept, "remapped", rep.Remapped,
		"invalid", rep.Invalid, "excluded", rep.Excluded, "bad_geom", rep.BadGeom, "duplicates", rep.Duplicates, "redis", *warm)
	if *list {
		fmt.Println(strings.Join(cat.Codes(), " "))
	}
}
