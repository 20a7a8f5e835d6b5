// Package types holds the data model shared across the motion-control
// packages: Pose, Twist, WheelPose and the wheel-kinematics vectors derived
// from them.
package types

import "errors"

// Sentinel errors surfaced by construction-time validation across the
// motion-control packages.
var (
	ErrInvalidRadius        = errors.New("motion: wheel radius must be positive")
	ErrWheelCountTooSmall   = errors.New("motion: measuring wheel count must be >= 3")
	ErrSingularMatrix       = errors.New("motion: wheel vector matrix is singular")
	ErrRankDeficient        = errors.New("motion: wheel vector matrix is rank deficient")
	ErrNonPositiveFrequency = errors.New("motion: control frequency must be positive")
)

// Pose is a robot position and heading in the fixed planar field frame.
// Theta is not wrapped; it accumulates freely so continuous rotation is
// preserved.
type Pose struct {
	X, Y  float32
	Theta float32
}

// Add returns the componentwise sum of two poses.
func (p Pose) Add(o Pose) Pose {
	return Pose{X: p.X + o.X, Y: p.Y + o.Y, Theta: p.Theta + o.Theta}
}

// Sub returns the componentwise difference of two poses.
func (p Pose) Sub(o Pose) Pose {
	return Pose{X: p.X - o.X, Y: p.Y - o.Y, Theta: p.Theta - o.Theta}
}

// Scale returns every component of p multiplied by k.
func (p Pose) Scale(k float32) Pose {
	return Pose{X: p.X * k, Y: p.Y * k, Theta: p.Theta * k}
}

// Twist is a body-frame velocity: (vx, vy, omega) in m/s, m/s, rad/s.
type Twist struct {
	VX, VY float32
	Omega  float32
}

// Add returns the componentwise sum of two twists.
func (t Twist) Add(o Twist) Twist {
	return Twist{VX: t.VX + o.VX, VY: t.VY + o.VY, Omega: t.Omega + o.Omega}
}

// Sub returns the componentwise difference of two twists.
func (t Twist) Sub(o Twist) Twist {
	return Twist{VX: t.VX - o.VX, VY: t.VY - o.VY, Omega: t.Omega - o.Omega}
}

// Scale returns every component of t multiplied by k.
func (t Twist) Scale(k float32) Twist {
	return Twist{VX: t.VX * k, VY: t.VY * k, Omega: t.Omega * k}
}

// WheelPose is the placement of one wheel in the body frame: a 2-D contact
// position, the heading along which positive rotation drives the contact
// point, and the wheel radius.
type WheelPose struct {
	X, Y    float32 // body-frame position, metres
	Heading float32 // roll-direction heading, radians
	Radius  float32 // wheel radius, metres
}

// WheelVector is the linear map (alpha, beta, gamma) such that one full
// wheel rotation driven by body twist (vx, vy, omega) contributes
// alpha*vx + beta*vy + gamma*omega rotations.
type WheelVector struct {
	Alpha, Beta, Gamma float32
}

// Dot returns the wheel rotation rate (rotations/second) produced by twist t.
func (w WheelVector) Dot(t Twist) float32 {
	return w.Alpha*t.VX + w.Beta*t.VY + w.Gamma*t.Omega
}

// WheelVectorInv is one row of the (pseudo-)inverse of the stacked
// WheelVector matrix. Applied to a vector of per-wheel rotation deltas it
// contributes (dx, dy, dtheta) to a body-frame pose delta.
type WheelVectorInv struct {
	X, Y, Theta float32
}

// Apply returns the contribution of rotation delta rot to a body-frame pose
// delta, via this inverse row.
func (w WheelVectorInv) Apply(rot float32) (dx, dy, dtheta float32) {
	return w.X * rot, w.Y * rot, w.Theta * rot
}

// Gain is a PID gain tuple: proportional, integral, derivative, and the
// control frequency the gains are declared against.
type Gain struct {
	Kp, Ki, Kd float32
	Frequency  float32
}
