// 包 session：单局答题状态机与进程内会话表
package session

import (
	"errors"
	"sync"
	"time"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/guess"
	"globe-quiz/internal/scoring"
)

var (
	ErrEmptyGuess      = errors.New("empty guess")
	ErrNoSelection     = errors.New("no country selected")
	ErrAlreadySolved   = errors.New("country already solved")
	ErrStaleSelection  = errors.New("selected country no longer in dataset")
	ErrInvalidCode     = errors.New("invalid country code")
	ErrHintUnavailable = errors.New("hint only available after a wrong guess")
	ErrSessionNotFound = errors.New("session not found")
)

// Outcome：当前选中国家的作答进度
type Outcome string

const (
	OutcomeNone    Outcome = "none"
	OutcomePending Outcome = "pending"
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// State：会话对外可见的快照
// 约束：Selected 只存代码，作答时再到当前目录中查找要素
type State struct {
	Selected          string  `json:"selected,omitempty"`
	Outcome           Outcome `json:"outcome"`
	LastPoints        *int    `json:"last_points"`
	HintShown         bool    `json:"hint_shown"`
	SpellingCorrected bool    `json:"spelling_corrected"`
	Correction        string  `json:"correction,omitempty"`
	Score             int     `json:"score"`
}

// Catalog：按代码取要素；countries.Catalog 满足该接口
type Catalog interface {
	Lookup(code string) (*countries.Feature, bool)
}

// HintProvider：为选中国家生成提示文本
type HintProvider interface {
	Hint(f *countries.Feature) string
}

// Verdict：一次提交的判定与得分
type Verdict struct {
	guess.Result
	Points int
}

// Session：单个玩家的一局；所有方法自行加锁，可被并发请求调用
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	state State
	score scoring.Accumulator
}

func newSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now(), state: State{Outcome: OutcomeNone}}
}

// Snapshot：当前状态的拷贝
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	st := s.state
	if st.LastPoints != nil {
		v := *st.LastPoints
		st.LastPoints = &v
	}
	st.Score = s.score.Total()
	return st
}

// Select：选中新国家并重置本题状态，累计分不变
func (s *Session) Select(code string) (State, error) {
	if !countries.ValidCode(code) {
		return s.Snapshot(), ErrInvalidCode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Selected: code, Outcome: OutcomePending}
	return s.snapshot(), nil
}

// Submit：判定一次作答
// 约束：空白输入、未选中、已答对、选中代码已不在目录中时状态保持不变并返回对应错误；
// 答错只改 Outcome，不扣分
func (s *Session) Submit(text string, cat Catalog, points scoring.PointsMap) (Verdict, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if guess.Normalize(text) == "" {
		return Verdict{Result: guess.Result{Empty: true}}, s.snapshot(), ErrEmptyGuess
	}
	if s.state.Selected == "" {
		return Verdict{}, s.snapshot(), ErrNoSelection
	}
	if s.state.Outcome == OutcomeCorrect {
		return Verdict{}, s.snapshot(), ErrAlreadySolved
	}
	f, ok := cat.Lookup(s.state.Selected)
	if !ok {
		return Verdict{}, s.snapshot(), ErrStaleSelection
	}

	res := guess.Check(text, guess.CanonicalName(f.Admin, f.NameEN))
	v := Verdict{Result: res}
	if !res.Correct {
		s.state.Outcome = OutcomeWrong
		return v, s.snapshot(), nil
	}
	v.Points = scoring.Award(points.Get(f.Code), res.Fuzzy, s.state.HintShown)
	s.score.Add(v.Points)
	pts := v.Points
	s.state.Outcome = OutcomeCorrect
	s.state.LastPoints = &pts
	s.state.SpellingCorrected = res.Fuzzy
	s.state.Correction = res.Correction
	return v, s.snapshot(), nil
}

// RevealHint：答错之后才能看提示；看过提示后答对按减半计分
func (s *Session) RevealHint(cat Catalog, hp HintProvider) (string, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Outcome != OutcomeWrong {
		return "", s.snapshot(), ErrHintUnavailable
	}
	f, ok := cat.Lookup(s.state.Selected)
	if !ok {
		return "", s.snapshot(), ErrStaleSelection
	}
	s.state.HintShown = true
	return hp.Hint(f), s.snapshot(), nil
}

// Close：关闭当前题目，累计分保留
func (s *Session) Close() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Outcome: OutcomeNone}
	return s.snapshot()
}
