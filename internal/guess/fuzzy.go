package guess

import (
	"math"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// shortLen：短于该长度的串固定允许 2 处编辑
const shortLen = 10

var lev = metrics.NewLevenshtein()

// Distance：按字符（rune）计算的编辑距离，单位代价，区分大小写
func Distance(a, b string) int {
	return lev.Distance(a, b)
}

// IsSimilarEnough：编辑距离不超过阈值即视为拼写接近
// 阈值：较长串 < 10 个字符时为 2，否则为 ceil(0.3 × 较长串长度)
func IsSimilarEnough(a, b string) bool {
	n := utf8.RuneCountInString(a)
	if m := utf8.RuneCountInString(b); m > n {
		n = m
	}
	threshold := 2
	if n >= shortLen {
		threshold = int(math.Ceil(float64(n) * 0.3))
	}
	return Distance(a, b) <= threshold
}
