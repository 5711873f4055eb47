package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const eps = 1e-9

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// TestProjectionRoundTrip 验证反投影与 three-globe 正向投影互逆，覆盖日期变更线两侧
func TestProjectionRoundTrip(t *testing.T) {
	tests := []struct{ lng, lat float64 }{
		{0, 0},
		{13.4, 52.5},
		{-74.0, 40.7},
		{151.2, -33.9},
		{179.5, 10},
		{-179.5, -10},
		{-91, 5},
		{-89, 5},
		{100, 89},
		{-45, -89},
	}
	for _, tc := range tests {
		p := LngLatToCartesian(tc.lng, tc.lat, GlobeRadius)
		lng, lat := CartesianToLngLat(p, GlobeRadius)
		if !near(lng, tc.lng, 1e-6) || !near(lat, tc.lat, 1e-6) {
			t.Errorf("round trip (%v,%v) = (%v,%v)", tc.lng, tc.lat, lng, lat)
		}
	}
}

func TestCartesianToLngLatAxes(t *testing.T) {
	tests := []struct {
		p        Vec3
		lng, lat float64
	}{
		{Vec3{0, 0, 100}, 0, 0},
		{Vec3{100, 0, 0}, 90, 0},
		{Vec3{-100, 0, 0}, -90, 0},
		{Vec3{0, 100, 0}, 90, 90},
		{Vec3{0, 0, 50}, 0, 0},
	}
	for _, tc := range tests {
		lng, lat := CartesianToLngLat(tc.p, GlobeRadius)
		if tc.lat == 90 {
			if !near(lat, 90, 1e-9) {
				t.Errorf("pole lat = %v", lat)
			}
			continue
		}
		if !near(lng, tc.lng, eps) || !near(lat, tc.lat, eps) {
			t.Errorf("CartesianToLngLat(%v) = (%v,%v), want (%v,%v)", tc.p, lng, lat, tc.lng, tc.lat)
		}
	}
}

func TestCartesianToLngLatZeroVector(t *testing.T) {
	lng, lat := CartesianToLngLat(Vec3{}, GlobeRadius)
	if math.IsNaN(lng) || math.IsNaN(lat) {
		t.Fatalf("zero vector produced NaN: %v %v", lng, lat)
	}
}

func TestIntersectSphere(t *testing.T) {
	hit, ok := IntersectSphere(Vec3{0, 0, 350}, Vec3{0, 0, -1}, GlobeRadius)
	if !ok {
		t.Fatal("expected hit")
	}
	if !near(hit.Z, 100, eps) || !near(hit.X, 0, eps) || !near(hit.Y, 0, eps) {
		t.Fatalf("hit = %v, want (0,0,100)", hit)
	}

	if _, ok := IntersectSphere(Vec3{0, 150, 350}, Vec3{0, 0, -1}, GlobeRadius); ok {
		t.Fatal("ray above the globe should miss")
	}
	if _, ok := IntersectSphere(Vec3{0, 0, 350}, Vec3{0, 0, 1}, GlobeRadius); ok {
		t.Fatal("ray pointing away should miss")
	}

	// 起点在球内取出射点
	hit, ok = IntersectSphere(Vec3{}, Vec3{1, 0, 0}, GlobeRadius)
	if !ok || !near(hit.X, 100, eps) {
		t.Fatalf("inside origin hit = %v ok=%v", hit, ok)
	}
}

func TestMat4Invert(t *testing.T) {
	m := RotationY(0.7).Mul(FromQuaternion(math.Sin(-0.15), 0, 0, math.Cos(-0.15)))
	m[12], m[13], m[14] = 5, -2, 9
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("expected invertible")
	}
	p := Vec3{12, -7, 3}
	back := inv.TransformPoint(m.TransformPoint(p))
	if !near(back.X, p.X, 1e-9) || !near(back.Y, p.Y, 1e-9) || !near(back.Z, p.Z, 1e-9) {
		t.Fatalf("inverse round trip = %v", back)
	}

	if _, ok := (Mat4{}).Invert(); ok {
		t.Fatal("zero matrix must not invert")
	}
}

func TestFromQuaternionMatchesRotationY(t *testing.T) {
	a := 0.9
	q := FromQuaternion(0, math.Sin(a/2), 0, math.Cos(a/2))
	r := RotationY(a)
	for i := range q {
		if !near(q[i], r[i], 1e-12) {
			t.Fatalf("element %d: %v != %v", i, q[i], r[i])
		}
	}
}

func TestPolygonContainsAndArea(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	withHole := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}
	multi := orb.MultiPolygon{
		{{{20, 20}, {22, 20}, {22, 22}, {20, 22}, {20, 20}}},
		square,
	}

	if !GeometryContains(square, orb.Point{5, 5}) {
		t.Error("square should contain center")
	}
	if GeometryContains(square, orb.Point{15, 5}) {
		t.Error("square should not contain outside point")
	}
	if GeometryContains(withHole, orb.Point{5, 5}) {
		t.Error("hole should not be contained")
	}
	if !GeometryContains(withHole, orb.Point{2, 2}) {
		t.Error("outer ring point should be contained")
	}
	if !GeometryContains(multi, orb.Point{21, 21}) || !GeometryContains(multi, orb.Point{1, 1}) {
		t.Error("any part of a multipolygon counts")
	}
	if GeometryContains(orb.LineString{{0, 0}, {1, 1}}, orb.Point{0, 0}) {
		t.Error("non polygon geometry must not contain")
	}

	if got := Area(square); !near(got, 100, eps) {
		t.Errorf("Area(square) = %v", got)
	}
	if got := Area(withHole); !near(got, 96, eps) {
		t.Errorf("Area(withHole) = %v", got)
	}
	if got := Area(multi); !near(got, 104, eps) {
		t.Errorf("Area(multi) = %v", got)
	}
	// 顺时针环面积仍为正
	cw := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	if got := Area(cw); !near(got, 100, eps) {
		t.Errorf("Area(cw) = %v", got)
	}
}

func TestRingContainsDegenerate(t *testing.T) {
	if RingContains(orb.Ring{{0, 0}, {1, 1}}, orb.Point{0.5, 0.5}) {
		t.Fatal("ring with fewer than 3 points contains nothing")
	}
}

func TestAreaIgnoresNonAreal(t *testing.T) {
	if got := Area(orb.LineString{{0, 0}, {10, 0}, {10, 10}}); got != 0 {
		t.Fatalf("Area(linestring) = %v, want 0", got)
	}
	if got := Area(orb.Ring{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}); !near(got, 16, eps) {
		t.Fatalf("Area(cw ring) = %v, want 16", got)
	}
}

func TestLookAtParallelUp(t *testing.T) {
	m := LookAt(Vec3{Y: 350}, Vec3{}, Vec3{Y: 1})
	// 第三列为相机 +Z，指向 eye 一侧
	back := Vec3{m[8], m[9], m[10]}
	if !near(back.Y, 1, 1e-6) {
		t.Fatalf("camera z axis = %v, want ~(0,1,0)", back)
	}
	for i, v := range m {
		if math.IsNaN(v) {
			t.Fatalf("element %d is NaN", i)
		}
	}
	m = LookAt(Vec3{Z: 5}, Vec3{}, Vec3{Z: 1})
	if !near(m[10], 1, 1e-6) || math.IsNaN(m[0]) {
		t.Fatalf("up along z: %v", m)
	}
}
