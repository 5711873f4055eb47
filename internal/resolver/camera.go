// 包 resolver：把一次指针点击解析为地球仪上的国家要素
package resolver

import (
	"globe-quiz/internal/geometry"
)

// Camera：透视相机参数，字段语义与 three.js PerspectiveCamera 一致
// 约束：若客户端直接回传 MatrixWorld / ProjectionMatrix（elements 列主序），优先使用，忽略其余参数
type Camera struct {
	Position geometry.Vec3
	Target   geometry.Vec3
	Up       geometry.Vec3
	FovY     float64
	Aspect   float64
	Near     float64
	Far      float64

	MatrixWorld      *geometry.Mat4
	ProjectionMatrix *geometry.Mat4
}

// DefaultCamera：与渲染端初始视角一致（z=350 看向原点，45° 视角）
func DefaultCamera(aspect float64) Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return Camera{
		Position: geometry.Vec3{Z: 350},
		Up:       geometry.Vec3{Y: 1},
		FovY:     45,
		Aspect:   aspect,
		Near:     1,
		Far:      1000,
	}
}

// WorldMatrix：相机到世界的变换
func (c Camera) WorldMatrix() geometry.Mat4 {
	if c.MatrixWorld != nil {
		return *c.MatrixWorld
	}
	up := c.Up
	if up.Length() == 0 {
		up = geometry.Vec3{Y: 1}
	}
	return geometry.LookAt(c.Position, c.Target, up)
}

// Projection：投影矩阵；缺省参数按 45°/1/1000 补齐
func (c Camera) Projection() geometry.Mat4 {
	if c.ProjectionMatrix != nil {
		return *c.ProjectionMatrix
	}
	fov, aspect, near, far := c.FovY, c.Aspect, c.Near, c.Far
	if fov <= 0 {
		fov = 45
	}
	if aspect <= 0 {
		aspect = 1
	}
	if near <= 0 {
		near = 1
	}
	if far <= near {
		far = near + 1000
	}
	return geometry.Perspective(fov, aspect, near, far)
}

// Pointer：渲染表面内的像素坐标与表面尺寸
type Pointer struct {
	X, Y          float64
	Width, Height float64
}

// NDC：像素坐标转归一化设备坐标（x 向右、y 向上，范围 [-1, 1]）
func (p Pointer) NDC() (x, y float64, ok bool) {
	if p.Width <= 0 || p.Height <= 0 {
		return 0, 0, false
	}
	return p.X/p.Width*2 - 1, -(p.Y/p.Height)*2 + 1, true
}

// Ray：世界空间射线
type Ray struct {
	Origin    geometry.Vec3
	Direction geometry.Vec3
}

// RayFromCamera：与 Raycaster.setFromCamera 相同：起点为相机世界位置，
// 方向指向 NDC 深度 0.5 处反投影得到的世界点
func RayFromCamera(ndcX, ndcY float64, c Camera) (Ray, bool) {
	world := c.WorldMatrix()
	projInv, ok := c.Projection().Invert()
	if !ok {
		return Ray{}, false
	}
	origin := world.Translation()
	pt := world.TransformPoint(projInv.TransformPoint(geometry.Vec3{X: ndcX, Y: ndcY, Z: 0.5}))
	dir := pt.Sub(origin).Normalize()
	if dir.Length() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: origin, Direction: dir}, true
}
