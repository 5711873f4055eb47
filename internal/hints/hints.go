// 包 hints：答错后给出的提示文本（所在大洲、首都首字母、名称长度）
package hints

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/guess"

	iso "github.com/biter777/countries"
)

// Provider：基于 ISO 3166 资料生成提示；零值可用
type Provider struct{}

// Hint：拼装可用的线索；查不到资料时至少给出名称首字母与长度
func (Provider) Hint(f *countries.Feature) string {
	name := guess.CanonicalName(f.Admin, f.NameEN)
	var parts []string

	if c := iso.ByName(f.Code); c != iso.Unknown {
		if r := c.Region().String(); known(r) {
			parts = append(parts, "Located in "+r)
		}
		if capital := c.Capital().String(); known(capital) {
			first, _ := utf8.DecodeRuneInString(capital)
			parts = append(parts, fmt.Sprintf("its capital starts with %q", string(first)))
		}
	}
	if first, _ := utf8.DecodeRuneInString(name); first != utf8.RuneError {
		parts = append(parts, fmt.Sprintf("the name starts with %q and has %d letters", string(unicode.ToUpper(first)), letters(name)))
	}
	if len(parts) == 0 {
		return "No hint available for this one"
	}
	parts[0] = upperFirst(parts[0])
	return strings.Join(parts, "; ")
}

func known(s string) bool {
	return s != "" && !strings.EqualFold(s, "unknown") && !strings.EqualFold(s, "none")
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
