// 包 scoring：按人口知名度分层计分，拼写纠正或使用提示时减半
package scoring

import "globe-quiz/internal/countries"

const (
	Tier1Points = 10
	Tier2Points = 25
	Tier3Points = 50
)

// tier1：人口最多的约 20 个国家
var tier1 = codeSet(
	"IN", "CN", "US", "ID", "PK", "NG", "BR", "BD", "RU", "ET", "MX", "JP", "PH", "EG", "CD", "VN", "TR", "IR", "DE", "TH",
)

// tier2：其后约 50 个
var tier2 = codeSet(
	"GB", "TZ", "FR", "ZA", "KE", "KR", "ES", "AR", "UG", "DZ", "SD", "UA", "IQ", "CA", "PL", "MA", "SA", "UZ", "PE", "AF",
	"MY", "AO", "MZ", "GH", "YE", "NP", "VE", "AU", "MG", "KP", "CM", "CI", "NE", "TW", "LK", "BF", "ML", "RO", "MW", "CL",
	"KZ", "ZM", "GT", "EC", "SY", "NL", "SN", "KH", "TD", "SO",
)

func codeSet(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// PointsFor：代码所属层级的基础分；未知代码按最稀有层计
func PointsFor(code string) int {
	if _, ok := tier1[code]; ok {
		return Tier1Points
	}
	if _, ok := tier2[code]; ok {
		return Tier2Points
	}
	return Tier3Points
}

// PointsMap：代码 → 基础分，构建后只读
type PointsMap map[string]int

// BuildPointsMap：为目录中每个有效代码分配分值
func BuildPointsMap(features []*countries.Feature) PointsMap {
	m := make(PointsMap, len(features))
	for _, f := range features {
		if f == nil || !countries.ValidCode(f.Code) {
			continue
		}
		m[f.Code] = PointsFor(f.Code)
	}
	return m
}

// Get：表内缺失时回落到最高档
func (m PointsMap) Get(code string) int {
	if v, ok := m[code]; ok {
		return v
	}
	return Tier3Points
}

// Award：纠正拼写或看过提示时向上取整减半，两者同时出现也只减一次
func Award(base int, fuzzy, hint bool) int {
	if fuzzy || hint {
		return (base + 1) / 2
	}
	return base
}

// Accumulator：单局累计分，只增不减
type Accumulator struct {
	total int
}

// Add：负数被忽略；返回累加后的总分
func (a *Accumulator) Add(n int) int {
	if n > 0 {
		a.total += n
	}
	return a.total
}

func (a *Accumulator) Total() int { return a.total }
