package countries

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"globe-quiz/internal/geometry"
	"globe-quiz/internal/logger"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultOverrides：名称 → 代码 覆盖表，用于修复数据源中 ISO_A2 为哨兵值的国家
// 约束：键为 ADMIN 或 NAME_EN 的原文（区分大小写，已去首尾空白）
var DefaultOverrides = map[string]string{
	"France": "FR",
	"Norway": "NO",
	"Kosovo": "XK",
}

// DefaultExclude：不参与拾取与计分的领土
var DefaultExclude = []string{"AQ"}

// Options：清洗参数；零值使用默认覆盖表与排除列表
type Options struct {
	Overrides map[string]string
	Exclude   []string
}

// Report：一次构建的统计，便于日志与指标输出
type Report struct {
	Total      int
	Kept       int
	Remapped   int
	Invalid    int
	Excluded   int
	BadGeom    int
	Duplicates int
}

// Parse：解码 GeoJSON FeatureCollection 并清洗为目录
func Parse(data []byte, opts Options) (*Catalog, Report, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, Report{}, fmt.Errorf("decode feature collection: %w", err)
	}
	cat, rep := Build(fc, opts)
	return cat, rep, nil
}

// Build：按规则清洗要素
// 1. ISO_A2 去空白转大写；哨兵或非法值先查覆盖表，仍无效则静默丢弃
// 2. 排除列表内的代码丢弃
// 3. 非 Polygon/MultiPolygon 或空几何丢弃
// 4. 重复代码保留第一条
func Build(fc *geojson.FeatureCollection, opts Options) (*Catalog, Report) {
	overrides := opts.Overrides
	if overrides == nil {
		overrides = DefaultOverrides
	}
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[normalizeCode(c)] = true
	}

	var rep Report
	list := make([]*Feature, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	for _, gf := range fc.Features {
		rep.Total++
		props := gf.Properties
		admin := strings.TrimSpace(propString(props, "ADMIN", "admin"))
		nameEN := strings.TrimSpace(propString(props, "NAME_EN", "name_en"))

		code := normalizeCode(propString(props, "ISO_A2", "iso_a2"))
		if !ValidCode(code) {
			remap := overrides[admin]
			if remap == "" && nameEN != "" {
				remap = overrides[nameEN]
			}
			if remap == "" {
				rep.Invalid++
				logger.L().Debug("feature_drop", "reason", "invalid_code", "admin", admin, "code", code)
				continue
			}
			code = normalizeCode(remap)
			rep.Remapped++
		}
		if excluded[code] {
			rep.Excluded++
			continue
		}
		geom, ok := polygonal(gf.Geometry)
		if !ok {
			rep.BadGeom++
			logger.L().Debug("feature_drop", "reason", "geometry", "code", code)
			continue
		}
		if seen[code] {
			rep.Duplicates++
			logger.L().Warn("feature_drop", "reason", "duplicate_code", "code", code, "admin", admin)
			continue
		}
		seen[code] = true

		f := &Feature{
			Code:     code,
			Admin:    admin,
			NameEN:   nameEN,
			PopEst:   propFloat(props, "POP_EST", "pop_est"),
			Geometry: geom,
			Bound:    geom.Bound(),
			Area:     geometry.Area(geom),
		}
		list = append(list, f)
	}
	rep.Kept = len(list)
	return newCatalog(list, time.Now()), rep
}

func polygonal(g orb.Geometry) (orb.Geometry, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 || len(v[0]) < 3 {
			return nil, false
		}
		return v, true
	case orb.MultiPolygon:
		parts := make(orb.MultiPolygon, 0, len(v))
		for _, p := range v {
			if len(p) == 0 || len(p[0]) < 3 {
				continue
			}
			parts = append(parts, p)
		}
		if len(parts) == 0 {
			return nil, false
		}
		return parts, true
	}
	return nil, false
}

func propString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			switch x := v.(type) {
			case string:
				return x
			case json.Number:
				return string(x)
			}
		}
	}
	return ""
}

func propFloat(props geojson.Properties, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := props[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case float64:
			return &x
		case int:
			f := float64(x)
			return &f
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return &f
			}
		}
	}
	return nil
}
