// 包 utils：数据库、Redis 与 TLS 的打开/生成工具，统一环境变量读取
package utils

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"globe-quiz/internal/logger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect：统计库方言；决定占位符写法
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Rebind：把 ? 占位符改写为方言写法（Postgres 为 $1..$n）
// 约束：SQL 文本中不得出现作为字面量的 ?
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func BuildPostgresDSNFromEnv() string {
	host := os.Getenv("PG_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("PG_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("PG_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv("PG_PASSWORD")
	db := os.Getenv("PG_DB")
	if db == "" {
		db = "globequiz"
	}
	ssl := os.Getenv("PG_SSLMODE")
	if ssl == "" {
		ssl = "disable"
	}
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := 20, 10
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxOpen = n
		}
	}
	if v := os.Getenv("PG_MAX_IDLE_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxIdle = n
		}
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

// OpenSQLite：打开（必要时创建）本地 SQLite 文件
// 约束：单写连接，避免 database is locked；开启 WAL 与忙等待
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenStatsFromEnv：按 STATS_DRIVER 打开统计库
// STATS_DRIVER=postgres 使用 PG_*；sqlite 使用 SQLITE_PATH（默认 data/quiz.db）；为空返回 nil 表示不启用
func OpenStatsFromEnv() (*sql.DB, Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("STATS_DRIVER"))) {
	case "":
		return nil, "", nil
	case "postgres", "pg":
		db, err := OpenPostgresFromEnv()
		return db, Postgres, err
	case "sqlite":
		p := os.Getenv("SQLITE_PATH")
		if p == "" {
			p = filepath.Join("data", "quiz.db")
		}
		logger.L().Debug("sqlite_open", "path", p)
		db, err := OpenSQLite(p)
		return db, SQLite, err
	default:
		return nil, "", fmt.Errorf("unknown STATS_DRIVER %q", os.Getenv("STATS_DRIVER"))
	}
}
