package geom

import "math"

// Eigen2x2 holds the eigen-decomposition of a symmetric 2x2 covariance
// matrix. Eigenvalues are ordered Lambda1 >= Lambda2; eigenvectors are unit
// length.
type Eigen2x2 struct {
	Lambda1, Lambda2 float64
	V1, V2           Point
}

// Covariance2 computes the 2x2 covariance matrix entries (cxx, cxy, cyy) of
// a point set about its centroid. Fewer than two points yield all zeros.
func Covariance2(pts []Point) (cxx, cxy, cyy float64) {
	if len(pts) < 2 {
		return 0, 0, 0
	}
	c := Centroid(pts)
	for _, p := range pts {
		dx := p.X - c.X
		dy := p.Y - c.Y
		cxx += dx * dx
		cxy += dx * dy
		cyy += dy * dy
	}
	n := float64(len(pts))
	return cxx / n, cxy / n, cyy / n
}

// EigenDecompose2 computes the closed-form eigen-decomposition of the
// symmetric matrix [[cxx, cxy], [cxy, cyy]] via trace and determinant.
// The closed form stays exact for degenerate (collinear) inputs where
// Lambda2 underflows to zero.
func EigenDecompose2(cxx, cxy, cyy float64) Eigen2x2 {
	tr := cxx + cyy
	det := cxx*cyy - cxy*cxy
	disc := tr*tr/4 - det
	if disc < 0 {
		disc = 0 // numerical guard; symmetric matrices have real eigenvalues
	}
	root := math.Sqrt(disc)
	l1 := tr/2 + root
	l2 := tr/2 - root

	e := Eigen2x2{Lambda1: l1, Lambda2: l2}
	e.V1 = eigenvector2(cxx, cxy, cyy, l1)
	e.V2 = Point{X: -e.V1.Y, Y: e.V1.X}
	return e
}

// PrincipalAxes computes the PCA of a point set. Fewer than two points
// yield a decomposition with zero eigenvalues and the X axis as V1.
func PrincipalAxes(pts []Point) Eigen2x2 {
	cxx, cxy, cyy := Covariance2(pts)
	return EigenDecompose2(cxx, cxy, cyy)
}

// VarianceRatio returns Lambda1/Lambda2, or +Inf when Lambda2 is
// effectively zero (a perfectly linear point set).
func (e Eigen2x2) VarianceRatio() float64 {
	if e.Lambda2 <= 1e-12 {
		if e.Lambda1 <= 1e-12 {
			return 1
		}
		return math.Inf(1)
	}
	return e.Lambda1 / e.Lambda2
}

func eigenvector2(cxx, cxy, cyy, lambda float64) Point {
	// (A - lambda*I) v = 0. Pick the better-conditioned row.
	if math.Abs(cxy) > 1e-12 {
		v := Point{X: lambda - cyy, Y: cxy}
		return normalize(v)
	}
	// Diagonal matrix: eigenvectors are the axes.
	if cxx >= cyy {
		return Point{X: 1, Y: 0}
	}
	return Point{X: 0, Y: 1}
}

func normalize(v Point) Point {
	n := math.Sqrt(v.X*v.X + v.Y*v.Y)
	if n == 0 {
		return Point{X: 1, Y: 0}
	}
	return Point{X: v.X / n, Y: v.Y / n}
}
