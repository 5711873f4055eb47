package geometry

import "math"

// GlobeRadius：渲染端地球仪与拾取球共用的半径
// 约束：必须与渲染层 three-globe 的 GLOBE_RADIUS 一致，否则拾取点与多边形错位
const GlobeRadius = 100.0

// IntersectSphere：射线与以原点为球心的球求交，返回最近的前向交点
// 约束：dir 不要求单位化；两个根都在射线起点之后才视为命中，起点在球内时取出射点
func IntersectSphere(origin, dir Vec3, radius float64) (Vec3, bool) {
	a := dir.Dot(dir)
	if a == 0 {
		return Vec3{}, false
	}
	b := 2 * origin.Dot(dir)
	c := origin.Dot(origin) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
	}
	if t < 0 {
		return Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}

// CartesianToLngLat：球面点（物体空间）反投影为经纬度（度）
// 约束：是 three-globe polar2Cartesian 的精确逆：
// 纬度取自与 Y 轴的极角，经度 = 90 - atan2(z, x)；方位角小于 -90° 时经度减 360 保持日期变更线连续，
// 最终规整到 [-180, 180]。|p| 为 0 时以 radius 兜底。
func CartesianToLngLat(p Vec3, radius float64) (lng, lat float64) {
	r := p.Length()
	if r == 0 {
		r = radius
	}
	phi := math.Acos(clamp(p.Y/r, -1, 1))
	theta := math.Atan2(p.Z, p.X)
	lat = 90 - phi*180/math.Pi
	lng = 90 - theta*180/math.Pi
	if theta < -math.Pi/2 {
		lng -= 360
	}
	if lng > 180 {
		lng -= 360
	}
	if lng < -180 {
		lng += 360
	}
	return lng, lat
}

// LngLatToCartesian：正向投影（three-globe polar2Cartesian），供客户端对照与测试往返使用
func LngLatToCartesian(lng, lat, radius float64) Vec3 {
	phi := (90 - lat) * math.Pi / 180
	theta := (90 - lng) * math.Pi / 180
	return Vec3{
		X: radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
