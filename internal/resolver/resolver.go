package resolver

import (
	"globe-quiz/internal/countries"
	"globe-quiz/internal/geometry"

	"github.com/paulmach/orb"
)

// Hit：拾取球命中信息；Hit=false 表示点击没有落在地球仪上
type Hit struct {
	Hit   bool
	Point geometry.Vec3 // 物体空间
	Lng   float64
	Lat   float64
}

// Locate：指针 → 射线 → 拾取球交点 → 物体空间 → 经纬度
// 约束：globe 为地球仪的世界矩阵；交点必须先乘其逆矩阵再反投影，否则旋转后的地球仪会错位
func Locate(p Pointer, cam Camera, globe geometry.Mat4) Hit {
	x, y, ok := p.NDC()
	if !ok {
		return Hit{}
	}
	ray, ok := RayFromCamera(x, y, cam)
	if !ok {
		return Hit{}
	}
	inv, ok := globe.Invert()
	if !ok {
		return Hit{}
	}
	// 拾取球挂在地球仪下，与其同心同半径；在物体空间求交等价于世界空间求交后再逆变换
	origin := inv.TransformPoint(ray.Origin)
	far := inv.TransformPoint(ray.Origin.Add(ray.Direction))
	pt, ok := geometry.IntersectSphere(origin, far.Sub(origin), geometry.GlobeRadius)
	if !ok {
		return Hit{}
	}
	lng, lat := geometry.CartesianToLngLat(pt, geometry.GlobeRadius)
	return Hit{Hit: true, Point: pt, Lng: lng, Lat: lat}
}

// Resolve：一次点击解析为零或一个国家要素；纯函数，不修改任何输入
func Resolve(p Pointer, cam Camera, globe geometry.Mat4, candidates []*countries.Feature) (*countries.Feature, Hit) {
	h := Locate(p, cam, globe)
	if !h.Hit {
		return nil, h
	}
	return ResolveLngLat(h.Lng, h.Lat, candidates), h
}

// ResolveLngLat：在候选中找出包含该点的全部要素，再按面积最小者胜出
// 约束：哨兵/非法代码的候选即使几何包含也跳过；面积相同按代码字母序，结果与输入顺序无关
func ResolveLngLat(lng, lat float64, candidates []*countries.Feature) *countries.Feature {
	containing := Containing(lng, lat, candidates)
	switch len(containing) {
	case 0:
		return nil
	case 1:
		return containing[0]
	}
	best := containing[0]
	bestArea := featureArea(best)
	for _, f := range containing[1:] {
		a := featureArea(f)
		if a < bestArea || (a == bestArea && f.Code < best.Code) {
			best, bestArea = f, a
		}
	}
	return best
}

// Containing：包含集合（可能因飞地/争议领土重叠而多于一个）
func Containing(lng, lat float64, candidates []*countries.Feature) []*countries.Feature {
	pt := orb.Point{lng, lat}
	var out []*countries.Feature
	for _, f := range candidates {
		if f == nil || f.Geometry == nil || !countries.ValidCode(f.Code) {
			continue
		}
		if !f.Bound.IsEmpty() && !f.Bound.Contains(pt) {
			continue
		}
		if geometry.GeometryContains(f.Geometry, pt) {
			out = append(out, f)
		}
	}
	return out
}

func featureArea(f *countries.Feature) float64 {
	if f.Area > 0 {
		return f.Area
	}
	return geometry.Area(f.Geometry)
}
