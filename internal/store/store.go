// 包 store: 统计库访问层；只读写聚合计数（总量、按日、按国家），不保存任何玩家或分数记录
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"globe-quiz/internal/logger"
	"globe-quiz/internal/utils"
)

// Store: 持有连接池与方言
type Store struct {
	db  *sql.DB
	d   utils.Dialect
	now func() time.Time
}

func AttachDB(db *sql.DB, d utils.Dialect) *Store {
	return &Store{db: db, d: d, now: time.Now}
}

func (s *Store) day() string { return s.now().UTC().Format("2006-01-02") }

func (s *Store) exec(ctx context.Context, q string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.d.Rebind(q), args...)
	return err
}

// bumpDaily: 当日行不存在时插入，存在时累加指定列
func (s *Store) bumpDaily(ctx context.Context, col string, n int64) error {
	q := fmt.Sprintf(`INSERT INTO _quiz_stats_daily(day, %[1]s) VALUES(?, ?)
		ON CONFLICT (day) DO UPDATE SET %[1]s=_quiz_stats_daily.%[1]s+excluded.%[1]s`, col)
	return s.exec(ctx, q, s.day(), n)
}

// IncrSession: 新建会话计数
func (s *Store) IncrSession(ctx context.Context) error {
	err := errors.Join(
		s.exec(ctx, `UPDATE _quiz_stats_total SET sessions=sessions+1 WHERE id=1`),
		s.bumpDaily(ctx, "sessions", 1),
	)
	logger.L().Debug("stats_incr_session", "err", err)
	return err
}

// IncrVisitor: 当日首次出现的访客（由布隆去重后调用）
func (s *Store) IncrVisitor(ctx context.Context) error {
	return errors.Join(
		s.exec(ctx, `UPDATE _quiz_stats_total SET visitors=visitors+1 WHERE id=1`),
		s.bumpDaily(ctx, "visitors", 1),
	)
}

// Guess: 一次有效作答的统计维度
type Guess struct {
	Code    string
	Correct bool
	Fuzzy   bool
	Points  int
}

// RecordGuess: 累加作答、答对、拼写纠正与得分，并记入国家难度
func (s *Store) RecordGuess(ctx context.Context, g Guess) error {
	correct, fuzzy := b2i(g.Correct), b2i(g.Fuzzy)
	err := errors.Join(
		s.exec(ctx, `UPDATE _quiz_stats_total SET guesses=guesses+1, correct=correct+?, fuzzy=fuzzy+?, points=points+? WHERE id=1`,
			correct, fuzzy, int64(g.Points)),
		s.bumpDaily(ctx, "guesses", 1),
		s.exec(ctx, `INSERT INTO _quiz_country_stats(code, attempts, solved) VALUES(?, 1, ?)
			ON CONFLICT (code) DO UPDATE SET attempts=_quiz_country_stats.attempts+1, solved=_quiz_country_stats.solved+excluded.solved`,
			g.Code, correct),
	)
	if g.Correct {
		err = errors.Join(err, s.bumpDaily(ctx, "correct", 1))
	}
	logger.L().Debug("stats_record_guess", "code", g.Code, "correct", g.Correct, "err", err)
	return err
}

// IncrHint: 提示次数
func (s *Store) IncrHint(ctx context.Context) error {
	return s.exec(ctx, `UPDATE _quiz_stats_total SET hints=hints+1 WHERE id=1`)
}

// Totals: /stats 返回的累计与当日计数
type Totals struct {
	Sessions      int64 `json:"sessions"`
	Guesses       int64 `json:"guesses"`
	Correct       int64 `json:"correct"`
	Fuzzy         int64 `json:"fuzzy"`
	Hints         int64 `json:"hints"`
	Points        int64 `json:"points"`
	Visitors      int64 `json:"visitors"`
	TodaySessions int64 `json:"today_sessions"`
	TodayGuesses  int64 `json:"today_guesses"`
	TodayVisitors int64 `json:"today_visitors"`
}

// GetTotals: 当日行不存在时当日计数为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, `SELECT sessions, guesses, correct, fuzzy, hints, points, visitors FROM _quiz_stats_total WHERE id=1`)
	if err := row.Scan(&t.Sessions, &t.Guesses, &t.Correct, &t.Fuzzy, &t.Hints, &t.Points, &t.Visitors); err != nil {
		return nil, fmt.Errorf("read totals: %w", err)
	}
	row = s.db.QueryRowContext(ctx, s.d.Rebind(`SELECT sessions, guesses, visitors FROM _quiz_stats_daily WHERE day=?`), s.day())
	if err := row.Scan(&t.TodaySessions, &t.TodayGuesses, &t.TodayVisitors); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read daily: %w", err)
	}
	logger.L().Debug("stats_totals", "sessions", t.Sessions, "guesses", t.Guesses)
	return &t, nil
}

// CountryStat: 单个国家的作答与答对次数
type CountryStat struct {
	Code     string  `json:"code"`
	Attempts int64   `json:"attempts"`
	Solved   int64   `json:"solved"`
	Rate     float64 `json:"solve_rate"`
}

// Hardest: 至少有 minAttempts 次作答的国家中答对率最低的前 limit 个
func (s *Store) Hardest(ctx context.Context, minAttempts, limit int) ([]CountryStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, s.d.Rebind(`SELECT code, attempts, solved FROM _quiz_country_stats
		WHERE attempts >= ?
		ORDER BY CAST(solved AS REAL) / attempts ASC, attempts DESC, code ASC
		LIMIT ?`), minAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query hardest: %w", err)
	}
	defer rows.Close()
	var out []CountryStat
	for rows.Next() {
		var c CountryStat
		if err := rows.Scan(&c.Code, &c.Attempts, &c.Solved); err != nil {
			return nil, err
		}
		if c.Attempts > 0 {
			c.Rate = float64(c.Solved) / float64(c.Attempts)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
