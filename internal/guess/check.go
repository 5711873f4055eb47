package guess

import "strings"

// Result：一次比对的结论
// 约束：Fuzzy 仅在 Correct 时可能为 true；Correction 仅在 Fuzzy 时非空；Empty 表示输入为空白，调用方不得改变状态
type Result struct {
	Correct    bool
	Fuzzy      bool
	Correction string
	Empty      bool
}

// Check：判定输入是否指向 canonical 表示的国家
// 顺序：去冠词精确 → 原样精确 → 去冠词模糊 → 原样模糊；任一命中即返回
func Check(input, canonical string) Result {
	if strings.TrimSpace(input) == "" {
		return Result{Empty: true}
	}
	resolved := ResolveAlias(input)

	stripped, strippedCanon := NormalizeCanonical(resolved), NormalizeCanonical(canonical)
	plain, plainCanon := Normalize(resolved), Normalize(canonical)

	if stripped == strippedCanon || plain == plainCanon {
		return Result{Correct: true}
	}
	if IsSimilarEnough(stripped, strippedCanon) || IsSimilarEnough(plain, plainCanon) {
		return Result{Correct: true, Fuzzy: true, Correction: canonical}
	}
	return Result{}
}
