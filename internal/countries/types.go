// 包 countries：国家要素的加载、清洗与只读目录；拾取与计分只消费这里产出的要素
package countries

import (
	"strings"

	"github.com/paulmach/orb"
)

// InvalidCode：数据源中表示“无有效 ISO 代码”的哨兵值
const InvalidCode = "-99"

// Feature：一个国家的几何与属性，加载后不可变
// 约束：Code 非空且在目录内唯一；Geometry 仅为 Polygon 或 MultiPolygon（经度, 纬度）
type Feature struct {
	Code     string
	Admin    string
	NameEN   string
	PopEst   *float64
	Geometry orb.Geometry
	Bound    orb.Bound
	Area     float64
}

// ValidCode：两位字母才是可选中的代码；哨兵值与空值一律无效
func ValidCode(code string) bool {
	if len(code) != 2 || code == InvalidCode {
		return false
	}
	for i := 0; i < 2; i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
