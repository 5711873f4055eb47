// 包 geometry：拾取链路所需的向量/矩阵运算、射线求交、球面反投影与平面多边形判定
package geometry

import "math"

// Vec3：世界/物体空间三维向量
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize：零向量原样返回零向量
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Mat4：4x4 矩阵，列主序存储，与 three.js Matrix4.elements 的布局一致
// 约束：元素 (row, col) 位于下标 col*4+row；客户端可直接回传 matrixWorld.elements
type Mat4 [16]float64

// Identity：单位矩阵
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func (m Mat4) at(row, col int) float64 { return m[col*4+row] }

func (m *Mat4) set(row, col int, v float64) { m[col*4+row] = v }

// Mul：返回 m × o
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s := 0.0
			for k := 0; k < 4; k++ {
				s += m.at(r, k) * o.at(k, c)
			}
			out.set(r, c, s)
		}
	}
	return out
}

// TransformPoint：按齐次坐标变换点并做透视除法（w 为 0 时不除）
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w == 0 || w == 1 {
		return Vec3{x, y, z}
	}
	return Vec3{x / w, y / w, z / w}
}

// Translation：矩阵的平移分量（相机世界位置即由此取出）
func (m Mat4) Translation() Vec3 { return Vec3{m[12], m[13], m[14]} }

// Invert：通用 4x4 求逆（余子式展开）；奇异矩阵返回 ok=false
func (m Mat4) Invert() (Mat4, bool) {
	var inv Mat4
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if det == 0 || math.IsNaN(det) {
		return Mat4{}, false
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, true
}

// RotationY：绕 Y 轴旋转（弧度），对应地球仪在轨道控制下的水平转动
func RotationY(rad float64) Mat4 {
	c, s := math.Cos(rad), math.Sin(rad)
	m := Identity()
	m.set(0, 0, c)
	m.set(0, 2, s)
	m.set(2, 0, -s)
	m.set(2, 2, c)
	return m
}

// FromQuaternion：单位四元数 (x,y,z,w) 转旋转矩阵，即 Object3D.quaternion 对应的旋转
func FromQuaternion(x, y, z, w float64) Mat4 {
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	m := Identity()
	m.set(0, 0, 1-(yy+zz))
	m.set(0, 1, xy-wz)
	m.set(0, 2, xz+wy)
	m.set(1, 0, xy+wz)
	m.set(1, 1, 1-(xx+zz))
	m.set(1, 2, yz-wx)
	m.set(2, 0, xz-wy)
	m.set(2, 1, yz+wx)
	m.set(2, 2, 1-(xx+yy))
	return m
}

// LookAt：构建相机世界矩阵（相机朝 -Z 看向 target），与 Matrix4.lookAt 一致
// 约束：eye 与 target 重合时视线取 +Z；up 与视线平行时把视线微调 1e-4 后重算
func LookAt(eye, target, up Vec3) Mat4 {
	z := eye.Sub(target)
	if z.Length() == 0 {
		z.Z = 1
	}
	z = z.Normalize()
	x := up.Cross(z)
	if x.Length() == 0 {
		if math.Abs(up.Z) == 1 {
			z.X += 1e-4
		} else {
			z.Z += 1e-4
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		eye.X, eye.Y, eye.Z, 1,
	}
}

// Perspective：透视投影矩阵，fovY 为竖直视角（角度），与 PerspectiveCamera.updateProjectionMatrix 一致
func Perspective(fovYDeg, aspect, near, far float64) Mat4 {
	top := near * math.Tan(fovYDeg*math.Pi/360)
	height := 2 * top
	width := aspect * height
	left := -width / 2
	right := left + width
	bottom := top - height

	var m Mat4
	m.set(0, 0, 2*near/(right-left))
	m.set(1, 1, 2*near/(top-bottom))
	m.set(0, 2, (right+left)/(right-left))
	m.set(1, 2, (top+bottom)/(top-bottom))
	m.set(2, 2, -(far+near)/(far-near))
	m.set(2, 3, -2*far*near/(far-near))
	m.set(3, 2, -1)
	return m
}
