package api

import (
	"globe-quiz/internal/geometry"
	"globe-quiz/internal/resolver"
	"globe-quiz/internal/session"
)

// 文档注释：对外 JSON 模型
// 约束：字段稳定；矩阵均为 three.js Matrix4.elements 的列主序 16 元数组

type pointerJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type cameraJSON struct {
	Position         *[3]float64  `json:"position,omitempty"`
	Target           *[3]float64  `json:"target,omitempty"`
	Up               *[3]float64  `json:"up,omitempty"`
	Fov              float64      `json:"fov,omitempty"`
	Aspect           float64      `json:"aspect,omitempty"`
	Near             float64      `json:"near,omitempty"`
	Far              float64      `json:"far,omitempty"`
	MatrixWorld      *[16]float64 `json:"matrix_world,omitempty"`
	ProjectionMatrix *[16]float64 `json:"projection_matrix,omitempty"`
}

type lngLatJSON struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// clickRequest：pointer 与 lnglat 二选一；camera/globe 缺省时按渲染端初始状态补齐
// globe 为 matrixWorld；只回传 quaternion (x,y,z,w) 时按纯旋转处理
type clickRequest struct {
	Pointer         *pointerJSON `json:"pointer,omitempty"`
	Camera          *cameraJSON  `json:"camera,omitempty"`
	Globe           *[16]float64 `json:"globe,omitempty"`
	GlobeQuaternion *[4]float64  `json:"globe_quaternion,omitempty"`
	LngLat          *lngLatJSON  `json:"lnglat,omitempty"`
}

// globe：地球仪世界矩阵，缺省为单位阵
func (c *clickRequest) globe() geometry.Mat4 {
	switch {
	case c.Globe != nil:
		return geometry.Mat4(*c.Globe)
	case c.GlobeQuaternion != nil:
		q := c.GlobeQuaternion
		return geometry.FromQuaternion(q[0], q[1], q[2], q[3])
	}
	return geometry.Identity()
}

type countryJSON struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type clickResponse struct {
	Hit      bool          `json:"hit"`
	Lng      float64       `json:"lng"`
	Lat      float64       `json:"lat"`
	Selected *countryJSON  `json:"selected"`
	State    session.State `json:"state"`
}

type guessRequest struct {
	Guess string `json:"guess"`
}

type guessResponse struct {
	Ignored    bool          `json:"ignored,omitempty"`
	Correct    bool          `json:"correct"`
	Fuzzy      bool          `json:"fuzzy"`
	Correction string        `json:"correction,omitempty"`
	Points     int           `json:"points"`
	State      session.State `json:"state"`
}

type hintResponse struct {
	Hint  string        `json:"hint"`
	State session.State `json:"state"`
}

type sessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func vec(v *[3]float64, def geometry.Vec3) geometry.Vec3 {
	if v == nil {
		return def
	}
	return geometry.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// camera：请求中的相机参数 → resolver.Camera；未给出的字段取默认视角
func (c *cameraJSON) camera(aspect float64) resolver.Camera {
	cam := resolver.DefaultCamera(aspect)
	if c == nil {
		return cam
	}
	cam.Position = vec(c.Position, cam.Position)
	cam.Target = vec(c.Target, cam.Target)
	cam.Up = vec(c.Up, cam.Up)
	if c.Fov > 0 {
		cam.FovY = c.Fov
	}
	if c.Aspect > 0 {
		cam.Aspect = c.Aspect
	}
	if c.Near > 0 {
		cam.Near = c.Near
	}
	if c.Far > 0 {
		cam.Far = c.Far
	}
	if c.MatrixWorld != nil {
		m := geometry.Mat4(*c.MatrixWorld)
		cam.MatrixWorld = &m
	}
	if c.ProjectionMatrix != nil {
		m := geometry.Mat4(*c.ProjectionMatrix)
		cam.ProjectionMatrix = &m
	}
	return cam
}
