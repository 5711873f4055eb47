package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：平面点入多边形与面积
// 背景：经纬度直接视为平面 (x=lng, y=lat)；射线求交已把点定位到国家尺度的区域，平面畸变可接受。
// 约束：仅支持 Polygon/MultiPolygon；其余几何类型一律视为不包含、面积为 0。

// RingContains：单环射线交叉判定（不考虑洞）
func RingContains(r orb.Ring, pt orb.Point) bool {
	if len(r) < 3 {
		return false
	}
	return planar.RingContains(r, pt)
}

// PolygonContains：外环命中且不在任何洞内
func PolygonContains(p orb.Polygon, pt orb.Point) bool {
	if len(p) == 0 || len(p[0]) < 3 {
		return false
	}
	return planar.PolygonContains(p, pt)
}

// GeometryContains：多面逐个独立判定，任意一个命中即包含
func GeometryContains(g orb.Geometry, pt orb.Point) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return PolygonContains(v, pt)
	case orb.MultiPolygon:
		for _, p := range v {
			if PolygonContains(p, pt) {
				return true
			}
		}
	}
	return false
}

// Area：平面绝对面积（外环减洞，多面为各部分之和），只用于候选之间的相对比较
// 约束：环的绕向不影响结果；其余几何类型面积为 0
func Area(g orb.Geometry) float64 {
	switch g.(type) {
	case orb.Ring, orb.Polygon, orb.MultiPolygon:
		return math.Abs(planar.Area(g))
	}
	return 0
}

// Centroid：面积加权质心；用于把地球仪转到某个国家的正面
func Centroid(g orb.Geometry) (lng, lat float64) {
	c, _ := planar.CentroidArea(g)
	return c.Lon(), c.Lat()
}
