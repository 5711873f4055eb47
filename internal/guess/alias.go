package guess

// aliases：常见简称/别称/正式全称 → Natural Earth 的 NAME_EN；键为 Normalize 后的形式
// 约束：值必须是数据集实际使用的名称，否则别名输入永远判错
var aliases = map[string]string{
	"usa":                              "United States of America",
	"united states":                    "United States of America",
	"uk":                               "United Kingdom",
	"united kingdom":                   "United Kingdom",
	"the gambia":                       "Gambia",
	"gambia":                           "Gambia",
	"republic of the congo":            "Republic of the Congo",
	"democratic republic of the congo": "Democratic Republic of the Congo",
	"drc":                              "Democratic Republic of the Congo",
	"congo":                            "Republic of the Congo",
	"ivory coast":                      "Ivory Coast",
	"côte d'ivoire":                    "Ivory Coast",
	"cote d'ivoire":                    "Ivory Coast",
	"taiwan":                           "Taiwan",
	"vatican":                          "Vatican City",
	"vatican city":                     "Vatican City",
	"south korea":                      "South Korea",
	"north korea":                      "North Korea",
	"russia":                           "Russia",
	"russian federation":               "Russia",
	"iran":                             "Iran",
	"syria":                            "Syria",
	"laos":                             "Laos",
	"lao pdr":                          "Laos",
	"bolivia":                          "Bolivia",
	"venezuela":                        "Venezuela",
	"tanzania":                         "Tanzania",
	"united republic of tanzania":      "Tanzania",
	"brunei":                           "Brunei",
	"brunei darussalam":                "Brunei",
}

// ResolveAlias：命中别名表返回标准名，否则原样返回输入（未规范化）
func ResolveAlias(raw string) string {
	if v, ok := aliases[Normalize(raw)]; ok {
		return v
	}
	return raw
}

