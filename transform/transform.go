// Package transform implements the rigid-body pose algebra used by the
// pose-graph mapper: composition, inverse and orthogonalization of 3-D
// transforms, plus the opaque 6x6 covariance type carried alongside them.
//
// The vector/quaternion types use an array-backed layout, xyzw
// quaternion ordering and float64 throughout, so they compose cleanly
// with the gonum covariance matrices used by solver.Reference.
package transform

import "math"

// Vector3 is a 3-D translation, matching vec.Vector3D's array layout.
type Vector3 [3]float64

// Add returns v+other.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{v[0] + other[0], v[1] + other[1], v[2] + other[2]}
}

// Sub returns v-other.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// Scale returns v scaled by c.
func (v Vector3) Scale(c float64) Vector3 {
	return Vector3{v[0] * c, v[1] * c, v[2] * c}
}

// Dot returns the dot product of v and other.
func (v Vector3) Dot(other Vector3) float64 {
	return v[0]*other[0] + v[1]*other[1] + v[2]*other[2]
}

// Cross returns the cross product of v and other.
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		v[1]*other[2] - v[2]*other[1],
		v[2]*other[0] - v[0]*other[2],
		v[0]*other[1] - v[1]*other[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the Euclidean distance between v and other.
func (v Vector3) Distance(other Vector3) float64 {
	return v.Sub(other).Norm()
}

// Quaternion is a rotation in xyzw layout: vector part [x,y,z] at
// indices 0-2, scalar part w at index 3.
type Quaternion [4]float64

// IdentityQuaternion is the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

// Magnitude returns the quaternion's norm; a unit quaternion has Magnitude()==1.
func (q Quaternion) Magnitude() float64 {
	return math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
}

// Normalized returns q scaled to unit length. Returns the identity
// quaternion if q is degenerate (zero magnitude).
func (q Quaternion) Normalized() Quaternion {
	m := q.Magnitude()
	if m == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{q[0] / m, q[1] / m, q[2] / m, q[3] / m}
}

// Conjugate negates the vector part, inverting the rotation for unit quaternions.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{-q[0], -q[1], -q[2], q[3]}
}

// Mul returns the Hamilton product q*other (apply other, then q).
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		q[3]*other[0] + q[0]*other[3] + q[1]*other[2] - q[2]*other[1],
		q[3]*other[1] - q[0]*other[2] + q[1]*other[3] + q[2]*other[0],
		q[3]*other[2] + q[0]*other[1] - q[1]*other[0] + q[2]*other[3],
		q[3]*other[3] - q[0]*other[0] - q[1]*other[1] - q[2]*other[2],
	}
}

// RotateVector rotates v by the (assumed unit) quaternion q.
func (q Quaternion) RotateVector(v Vector3) Vector3 {
	qv := Quaternion{v[0], v[1], v[2], 0}
	r := q.Mul(qv).Mul(q.Conjugate())
	return Vector3{r[0], r[1], r[2]}
}

// Angle returns the rotation angle in radians, in [0, pi], matching
// Eigen::AngleAxis(t.rotation()).angle() used by the admission test.
func (q Quaternion) Angle() float64 {
	n := q.Normalized()
	axisNorm := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	return 2 * math.Atan2(axisNorm, math.Abs(n[3]))
}

// Pose is a rigid-body 3-D transform: rotation composed with translation.
type Pose struct {
	Translation Vector3
	Rotation    Quaternion
}

// Identity returns the identity transform.
func Identity() Pose {
	return Pose{Translation: Vector3{}, Rotation: IdentityQuaternion()}
}

// Compose returns p applied after other, i.e. p.Compose(other) == p ∘ other:
// a point is first transformed by other, then by p.
func (p Pose) Compose(other Pose) Pose {
	return Pose{
		Translation: p.Translation.Add(p.Rotation.RotateVector(other.Translation)),
		Rotation:    p.Rotation.Mul(other.Rotation),
	}
}

// Inverse returns the transform that undoes p.
func (p Pose) Inverse() Pose {
	rInv := p.Rotation.Conjugate().Normalized()
	return Pose{
		Translation: rInv.RotateVector(p.Translation).Scale(-1),
		Rotation:    rInv,
	}
}

// Orthogonalize re-normalizes the rotation quaternion, the Go analogue of
// projecting a near-rotation matrix back onto SO(3) after numerical drift
// from repeated composition.
func (p Pose) Orthogonalize() Pose {
	return Pose{Translation: p.Translation, Rotation: p.Rotation.Normalized()}
}

// ApproxEqual reports whether p and other are equal within the given
// per-component tolerance — used by invariant checks on inverse edges.
func (p Pose) ApproxEqual(other Pose, tol float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(p.Translation[i]-other.Translation[i]) > tol {
			return false
		}
	}
	for i := 0; i < 4; i++ {
		if math.Abs(p.Rotation[i]-other.Rotation[i]) > tol {
			return false
		}
	}
	return true
}
