// Package kinematics implements the pure, stateless transforms between
// per-wheel rotation rates and body-frame twist: the forward map (wheel
// placement -> wheel vector) and its inverse (wheel vectors -> body delta),
// using a plain 3x3 solve for exactly three measuring wheels and a
// least-squares solve for redundant (N>3) measuring wheels.
package kinematics

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/itohio/omnicore/x/control/motion/types"
)

// Forward computes the wheel vector (alpha, beta, gamma) for a wheel
// placement: one full wheel rotation driven by body twist (vx, vy, omega)
// contributes alpha*vx + beta*vy + gamma*omega rotations.
func Forward(wp types.WheelPose) (types.WheelVector, error) {
	if wp.Radius <= 0 {
		return types.WheelVector{}, types.ErrInvalidRadius
	}

	circumference := 2 * math32.Pi * wp.Radius
	alpha := math32.Cos(wp.Heading) / circumference
	beta := math32.Sin(wp.Heading) / circumference
	gamma := wp.X*beta - wp.Y*alpha

	return types.WheelVector{Alpha: alpha, Beta: beta, Gamma: gamma}, nil
}

// WheelSpeed returns the angular rate (rotations/second) a wheel with the
// given forward vector would turn at under body twist t.
func WheelSpeed(wv types.WheelVector, t types.Twist) float32 {
	return wv.Dot(t)
}

// Inverse assembles the N x 3 matrix of forward vectors for wheelPoses and
// returns its (pseudo-)inverse as one WheelVectorInv row per wheel: applying
// Apply to each wheel's rotation delta and summing the results reconstructs
// the body-frame pose delta. N must be >= 3; for N == 3 a direct 3x3 solve
// is used, for N > 3 a least-squares (normal equations) solve is used.
func Inverse(wheelPoses []types.WheelPose) ([]types.WheelVectorInv, error) {
	n := len(wheelPoses)
	if n < 3 {
		return nil, types.ErrWheelCountTooSmall
	}

	w := make([][3]float32, n)
	for i, wp := range wheelPoses {
		wv, err := Forward(wp)
		if err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
		w[i] = [3]float32{wv.Alpha, wv.Beta, wv.Gamma}
	}

	// m is the 3xN matrix mapping per-wheel rotation deltas to body delta:
	// column i of m is wheel i's (x, y, theta) contribution weight.
	var m [3][]float32

	if n == 3 {
		winv, err := invert3x3LU(toSquare(w))
		if err != nil {
			return nil, err
		}
		for row := 0; row < 3; row++ {
			m[row] = make([]float32, 3)
			for col := 0; col < 3; col++ {
				m[row][col] = winv[row][col]
			}
		}
	} else {
		a := wTw(w) // 3x3, = W^T * W
		ainv, err := invert3x3(a)
		if err != nil {
			return nil, types.ErrRankDeficient
		}
		// m = ainv * W^T  (3x3 * 3xN = 3xN)
		for row := 0; row < 3; row++ {
			m[row] = make([]float32, n)
			for col := 0; col < n; col++ {
				var sum float32
				for k := 0; k < 3; k++ {
					sum += ainv[row][k] * w[col][k]
				}
				m[row][col] = sum
			}
		}
	}

	out := make([]types.WheelVectorInv, n)
	for i := 0; i < n; i++ {
		out[i] = types.WheelVectorInv{X: m[0][i], Y: m[1][i], Theta: m[2][i]}
	}
	return out, nil
}

func toSquare(w [][3]float32) [3][3]float32 {
	var sq [3][3]float32
	for i := 0; i < 3; i++ {
		sq[i] = w[i]
	}
	return sq
}

// wTw computes W^T * W for an N x 3 matrix W, returning the 3x3 result.
func wTw(w [][3]float32) [3][3]float32 {
	var a [3][3]float32
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float32
			for _, row := range w {
				sum += row[r] * row[c]
			}
			a[r][c] = sum
		}
	}
	return a
}

// invert3x3LU inverts a 3x3 matrix by LU decomposition with partial
// pivoting, solving for each column of the identity in turn. Used for the
// N==3 direct solve, per the exact-determined case.
func invert3x3LU(a [3][3]float32) ([3][3]float32, error) {
	var lu [3][3]float32 = a
	var piv [3]int
	for i := range piv {
		piv[i] = i
	}

	for col := 0; col < 3; col++ {
		// partial pivoting: find largest magnitude in this column at/below col
		maxRow := col
		maxVal := math32.Abs(lu[col][col])
		for r := col + 1; r < 3; r++ {
			if v := math32.Abs(lu[r][col]); v > maxVal {
				maxVal = v
				maxRow = r
			}
		}
		if maxVal < 1e-9 {
			return [3][3]float32{}, types.ErrSingularMatrix
		}
		if maxRow != col {
			lu[col], lu[maxRow] = lu[maxRow], lu[col]
			piv[col], piv[maxRow] = piv[maxRow], piv[col]
		}

		for r := col + 1; r < 3; r++ {
			factor := lu[r][col] / lu[col][col]
			lu[r][col] = factor
			for c := col + 1; c < 3; c++ {
				lu[r][c] -= factor * lu[col][c]
			}
		}
	}

	var inv [3][3]float32
	for target := 0; target < 3; target++ {
		var rhs [3]float32
		rhs[target] = 1
		// apply row permutation to rhs
		var permuted [3]float32
		for i := 0; i < 3; i++ {
			permuted[i] = rhs[piv[i]]
		}

		// forward substitution (L has unit diagonal)
		var y [3]float32
		for i := 0; i < 3; i++ {
			sum := permuted[i]
			for k := 0; k < i; k++ {
				sum -= lu[i][k] * y[k]
			}
			y[i] = sum
		}

		// back substitution (U)
		var x [3]float32
		for i := 2; i >= 0; i-- {
			sum := y[i]
			for k := i + 1; k < 3; k++ {
				sum -= lu[i][k] * x[k]
			}
			x[i] = sum / lu[i][i]
		}

		for row := 0; row < 3; row++ {
			inv[row][target] = x[row]
		}
	}

	return inv, nil
}

// invert3x3 returns the inverse of a via the cofactor formula.
func invert3x3(a [3][3]float32) ([3][3]float32, error) {
	var inv [3][3]float32

	det := a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])

	if math32.Abs(det) < 1e-9 {
		return inv, types.ErrSingularMatrix
	}

	invDet := 1 / det

	inv[0][0] = (a[1][1]*a[2][2] - a[1][2]*a[2][1]) * invDet
	inv[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) * invDet
	inv[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) * invDet

	inv[1][0] = (a[1][2]*a[2][0] - a[1][0]*a[2][2]) * invDet
	inv[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) * invDet
	inv[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) * invDet

	inv[2][0] = (a[1][0]*a[2][1] - a[1][1]*a[2][0]) * invDet
	inv[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) * invDet
	inv[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) * invDet

	return inv, nil
}
