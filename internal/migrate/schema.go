// 包 migrate：统计库建表；Postgres 与 SQLite 共用同一组语句
package migrate

import (
	"database/sql"
	"fmt"

	"globe-quiz/internal/logger"
	"globe-quiz/internal/utils"
)

// 只保存聚合计数：不含会话、玩家或单局分数
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _quiz_stats_total (
		id INTEGER PRIMARY KEY,
		sessions BIGINT NOT NULL DEFAULT 0,
		guesses BIGINT NOT NULL DEFAULT 0,
		correct BIGINT NOT NULL DEFAULT 0,
		fuzzy BIGINT NOT NULL DEFAULT 0,
		hints BIGINT NOT NULL DEFAULT 0,
		points BIGINT NOT NULL DEFAULT 0,
		visitors BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS _quiz_stats_daily (
		day TEXT PRIMARY KEY,
		sessions BIGINT NOT NULL DEFAULT 0,
		guesses BIGINT NOT NULL DEFAULT 0,
		correct BIGINT NOT NULL DEFAULT 0,
		visitors BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS _quiz_country_stats (
		code TEXT PRIMARY KEY,
		attempts BIGINT NOT NULL DEFAULT 0,
		solved BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO _quiz_stats_total(id) VALUES(1) ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema：首次运行建表，可重复执行
func EnsureSchema(db *sql.DB, d utils.Dialect) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i, "dialect", string(d))
		if _, err := db.Exec(d.Rebind(s)); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
