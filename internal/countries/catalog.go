package countries

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Catalog：清洗后的只读要素目录
// 约束：构建后不再修改；会话只保存代码，通过 Lookup 取回要素，避免持有副本
type Catalog struct {
	features []*Feature
	byCode   map[string]*Feature
	builtAt  time.Time
}

func newCatalog(list []*Feature, builtAt time.Time) *Catalog {
	idx := make(map[string]*Feature, len(list))
	for _, f := range list {
		idx[f.Code] = f
	}
	return &Catalog{features: list, byCode: idx, builtAt: builtAt}
}

// NewCatalog：由已清洗的要素直接构建（测试与离线工具使用）；重复或无效代码被跳过
func NewCatalog(list []*Feature) *Catalog {
	out := make([]*Feature, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, f := range list {
		if f == nil || !ValidCode(f.Code) || seen[f.Code] {
			continue
		}
		seen[f.Code] = true
		out = append(out, f)
	}
	return newCatalog(out, time.Now())
}

// Features：要素切片的浅拷贝，调用方可自由重排而不影响目录
func (c *Catalog) Features() []*Feature {
	if c == nil {
		return nil
	}
	return append([]*Feature(nil), c.features...)
}

func (c *Catalog) Lookup(code string) (*Feature, bool) {
	if c == nil {
		return nil, false
	}
	f, ok := c.byCode[normalizeCode(code)]
	return f, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.features)
}

func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Codes：按字母序的全部代码
func (c *Catalog) Codes() []string {
	out := make([]string, 0, c.Len())
	for _, f := range c.features {
		out = append(out, f.Code)
	}
	sort.Strings(out)
	return out
}

// FeatureCollection：把目录还原为 GeoJSON，供渲染端绘制；属性只保留清洗后的字段
func (c *Catalog) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.features {
		gf := geojson.NewFeature(f.Geometry)
		gf.Properties["ISO_A2"] = f.Code
		gf.Properties["ADMIN"] = f.Admin
		if f.NameEN != "" {
			gf.Properties["NAME_EN"] = f.NameEN
		}
		if f.PopEst != nil {
			gf.Properties["POP_EST"] = *f.PopEst
		}
		fc.Append(gf)
	}
	return fc
}

// Holder：当前目录的原子引用，刷新时整体替换，读路径无锁
type Holder struct{ p atomic.Pointer[Catalog] }

// Load：未设置时返回 nil（服务在数据就绪前对拾取保持惰性）
func (h *Holder) Load() *Catalog { return h.p.Load() }

func (h *Holder) Set(c *Catalog) { h.p.Store(c) }
