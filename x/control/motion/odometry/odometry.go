// Package odometry integrates encoder count deltas into a field-frame pose
// estimate using the mid-step heading approximation, behind a mutex shared
// by all three operations (get, set, update).
package odometry

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"github.com/itohio/omnicore/x/control/motion/kinematics"
	"github.com/itohio/omnicore/x/control/motion/providers"
	"github.com/itohio/omnicore/x/control/motion/types"
)

// Odometry maintains the current field-frame pose and the last-read
// encoder counts for N >= 3 measuring wheels.
type Odometry struct {
	mu sync.Mutex

	encoders  []providers.Encoder
	wheelsInv []types.WheelVectorInv
	lastCount []int64

	pose types.Pose
}

// New builds an Odometry from measuring-wheel placements and their
// encoders. wheelPoses and encoders must have the same, >=3, length.
func New(wheelPoses []types.WheelPose, encoders []providers.Encoder) (*Odometry, error) {
	if len(wheelPoses) != len(encoders) {
		return nil, fmt.Errorf("odometry: %d wheel poses but %d encoders", len(wheelPoses), len(encoders))
	}

	wheelsInv, err := kinematics.Inverse(wheelPoses)
	if err != nil {
		return nil, fmt.Errorf("odometry: %w", err)
	}

	return &Odometry{
		encoders:  encoders,
		wheelsInv: wheelsInv,
		lastCount: make([]int64, len(encoders)),
	}, nil
}

// GetPose returns a consistent snapshot of the current pose.
func (o *Odometry) GetPose() types.Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose
}

// SetPose overrides the current pose. The stored last-counts are left
// untouched, so the next Update integrates from the same delta baseline
// rather than treating this as a fresh zero point for encoder deltas.
func (o *Odometry) SetPose(p types.Pose) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pose = p
}

// Update reads all encoder counts as a batch (outside the lock, so a slow
// or interrupt-backed encoder read never stalls readers of GetPose), then
// atomically folds the resulting body-frame delta into the stored pose
// using the mid-step heading transform.
func (o *Odometry) Update() {
	counts := make([]int64, len(o.encoders))
	for i, e := range o.encoders {
		counts[i] = e.Count()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var dxBody, dyBody, dTheta float32
	for i, count := range counts {
		delta := o.encoders[i].CountToRotations(count - o.lastCount[i])
		o.lastCount[i] = count

		dx, dy, dth := o.wheelsInv[i].Apply(delta)
		dxBody += dx
		dyBody += dy
		dTheta += dth
	}

	thetaMid := o.pose.Theta + dTheta/2
	cos, sin := math32.Cos(thetaMid), math32.Sin(thetaMid)

	dxField := dxBody*cos - dyBody*sin
	dyField := dxBody*sin + dyBody*cos

	o.pose.X += dxField
	o.pose.Y += dyField
	o.pose.Theta += dTheta
}
