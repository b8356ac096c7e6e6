package transform

import "gonum.org/v1/gonum/mat"

// CovarianceDim is the size of the (translation, rotation) error covariance.
const CovarianceDim = 6

// WithCovariance pairs a transform with its uncertainty, the Go analogue of
// slam3d's TransformWithCovariance.
type WithCovariance struct {
	Transform  Pose
	Covariance *mat.SymDense
}

// IdentityCovariance returns a diagonal 6x6 covariance with the given
// variance on every axis, e.g. a root vertex's initial "100*I"
// covariance.
func IdentityCovariance(variance float64) *mat.SymDense {
	data := make([]float64, CovarianceDim*CovarianceDim)
	for i := 0; i < CovarianceDim; i++ {
		data[i*CovarianceDim+i] = variance
	}
	return mat.NewSymDense(CovarianceDim, data)
}

// CloneCovariance returns a deep copy of c, or a fresh identity covariance
// if c is nil.
func CloneCovariance(c *mat.SymDense) *mat.SymDense {
	if c == nil {
		return IdentityCovariance(1)
	}
	n := c.SymmetricDim()
	clone := mat.NewSymDense(n, nil)
	clone.CopySym(c)
	return clone
}
