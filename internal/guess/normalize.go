// 包 guess：自由文本猜测的规范化、别名解析与容错比对
package guess

import "strings"

// Normalize：去首尾空白、转小写、空白串压缩为单个空格
// 约束：幂等；不做重音折叠（"côte" 与 "cote" 靠别名表对齐）
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeCanonical：在 Normalize 基础上去掉开头的冠词 "the "
func NormalizeCanonical(s string) string {
	return strings.TrimPrefix(Normalize(s), "the ")
}

// CanonicalName：答案的标准拼写；优先英文名，缺省回落到行政名
func CanonicalName(admin, nameEN string) string {
	if nameEN != "" {
		return strings.TrimSpace(nameEN)
	}
	return strings.TrimSpace(admin)
}
