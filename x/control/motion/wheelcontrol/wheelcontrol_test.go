package wheelcontrol_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/omnicore/x/control/motion/providers"
	"github.com/itohio/omnicore/x/control/motion/types"
	"github.com/itohio/omnicore/x/control/motion/wheelcontrol"
)

type fakeEncoder struct{ rot float32 }

func (f *fakeEncoder) Count() int64                        { return int64(f.rot * 2048) }
func (f *fakeEncoder) Rotations() float32                   { return f.rot }
func (f *fakeEncoder) CountToRotations(count int64) float32 { return float32(count) / 2048 }
func (f *fakeEncoder) RotationsToCount(rot float32) int64   { return int64(rot * 2048) }

type fakeMotor struct {
	duty float32
	err  error
}

func (f *fakeMotor) SetDuty(d float32) error {
	f.duty = d
	return f.err
}

func defaultWheelVectors() [3]types.WheelVector {
	return [3]types.WheelVector{
		{Alpha: 0, Beta: 1.0 / (2 * 3.14159265 * 0.03), Gamma: 0},
		{Alpha: -0.8660254 / (2 * 3.14159265 * 0.03), Beta: -0.5 / (2 * 3.14159265 * 0.03), Gamma: 0.21 / (2 * 3.14159265 * 0.03)},
		{Alpha: 0.8660254 / (2 * 3.14159265 * 0.03), Beta: -0.5 / (2 * 3.14159265 * 0.03), Gamma: 0.21 / (2 * 3.14159265 * 0.03)},
	}
}

func newController(t *testing.T, poseGain, wheelGain types.Gain, vMax, dMax float32) (*wheelcontrol.Controller, [3]*fakeMotor, [3]*fakeEncoder) {
	t.Helper()
	motors := [3]*fakeMotor{{}, {}, {}}
	encs := [3]*fakeEncoder{{}, {}, {}}

	pms := [3]providers.Motor{motors[0], motors[1], motors[2]}
	pes := [3]providers.Encoder{encs[0], encs[1], encs[2]}

	c, err := wheelcontrol.New(wheelcontrol.Config{
		WheelVectors: defaultWheelVectors(),
		PoseGain:     poseGain,
		WheelGain:    wheelGain,
		VMax:         vMax,
		DMax:         dMax,
	}, pms, pes)
	require.NoError(t, err)
	return c, motors, encs
}

func TestNew_RejectsNonPositiveFrequency(t *testing.T) {
	_, err := wheelcontrol.New(wheelcontrol.Config{
		WheelVectors: defaultWheelVectors(),
		PoseGain:     types.Gain{Frequency: 0},
		WheelGain:    types.Gain{Frequency: 1},
	}, [3]providers.Motor{}, [3]providers.Encoder{})
	require.ErrorIs(t, err, types.ErrNonPositiveFrequency)
}

func TestTick_ZeroErrorZeroDuty(t *testing.T) {
	c, motors, _ := newController(t,
		types.Gain{Kp: 0.1, Frequency: 1},
		types.Gain{Kp: 0.7, Frequency: 1},
		10, 1)

	c.Tick(types.Pose{})

	for _, m := range motors {
		assert.Zero(t, m.duty)
	}
	assert.Equal(t, [3]float32{0, 0, 0}, c.Duties())
}

func TestTick_DutySaturationPreservesRatio(t *testing.T) {
	c, _, _ := newController(t,
		types.Gain{Kp: 100, Frequency: 1},
		types.Gain{Kp: 100, Frequency: 1},
		10, 1)

	c.Tick(types.Pose{X: 10})
	d := c.Duties()

	maxAbs := float32(0)
	for _, v := range d {
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	assert.InDelta(t, 1.0, float64(maxAbs), 1e-4, "saturation should pin the largest magnitude duty to d_max")
	// Before duty saturation the rear duties are -1000 and +1000.
	assert.InDelta(t, -1.0, float64(d[1]/d[2]), 1e-4, "saturation should preserve the ratio between duties")
}

// TestTick_DefaultGeometryNoWheelSpeedSaturation exercises the first
// concrete scenario: a 10m x-axis target at the default gains produces a
// target twist of (1,0,0) m/s, which stays under v_max=10 so stage-4
// saturation never engages, and the symmetric rear wheels end up with
// equal and opposite duty.
func TestTick_DefaultGeometryNoWheelSpeedSaturation(t *testing.T) {
	c, _, _ := newController(t,
		types.Gain{Kp: 0.1, Frequency: 1},
		types.Gain{Kp: 0.7, Frequency: 1},
		10, 1)

	c.Tick(types.Pose{X: 10})
	d := c.Duties()

	assert.InDelta(t, 0, float64(d[0]), 1e-4, "front wheel has zero alpha component for pure-x twist")
	assert.InDelta(t, float64(-d[1]), float64(d[2]), 1e-3, "rear wheels are symmetric about the x axis")
	assert.NotZero(t, d[1])
}

// TestTick_WheelSpeedSaturationPreservesRatio exercises scenario #3: a
// commanded twist well beyond v_max is rescaled at stage 4, but the ratio
// between wheel speeds (and therefore the resulting duties, since the
// first tick starts from zero last_duty and zero rate estimate) is
// preserved, and the largest magnitude is pinned to v_max.
func TestTick_WheelSpeedSaturationPreservesRatio(t *testing.T) {
	poseGain := types.Gain{Kp: 100, Frequency: 1}
	wheelGain := types.Gain{Kp: 1, Frequency: 1}
	vMax := float32(1)
	c, _, _ := newController(t, poseGain, wheelGain, vMax, 1000)

	wv := defaultWheelVectors()
	twist := types.Twist{VX: 100} // poseErr.X=1 * poseGain.Kp=100

	var unsaturated [3]float32
	var maxAbs float32
	for i, v := range wv {
		unsaturated[i] = v.Dot(twist)
		if a := abs(unsaturated[i]); a > maxAbs {
			maxAbs = a
		}
	}

	c.Tick(types.Pose{X: 1})
	d := c.Duties()

	wantMax := wheelGain.Kp * vMax / wheelGain.Frequency
	gotMax := float32(0)
	for _, v := range d {
		if a := abs(v); a > gotMax {
			gotMax = a
		}
	}
	assert.InDelta(t, float64(wantMax), float64(gotMax), 1e-3, "largest duty should equal kp*v_max/f once stage 4 pins the largest wheel speed to v_max")

	assert.InDelta(t, float64(unsaturated[1]/unsaturated[2]), float64(d[1]/d[2]), 1e-3, "stage 4 saturation must preserve the ratio between wheel speeds")
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// TestTick_TargetEqualsCurrentDecaysTowardZeroRate exercises scenario #4:
// with target == current pose, the outer pose PID output and the stage-3
// target wheel speed are both zero, so each wheel's inner-PID error is
// exactly the negative of its measured rate, and the resulting duty delta
// is the negative-feedback correction kp*(-rate)/f off of whatever
// last_duty was (zero, on a fresh controller).
func TestTick_TargetEqualsCurrentDecaysTowardZeroRate(t *testing.T) {
	wheelGain := types.Gain{Kp: 0.7, Frequency: 1}
	c, _, encs := newController(t, types.Gain{Kp: 0.1, Frequency: 1}, wheelGain, 10, 1000)

	encs[0].rot = 0.1
	encs[1].rot = -0.05
	encs[2].rot = 0.2

	c.Tick(types.Pose{}) // target == current: zero pose error

	d := c.Duties()
	rates := [3]float32{0.1, -0.05, 0.2} // (rot - lastRot=0) * frequency=1
	for i, r := range rates {
		want := wheelGain.Kp * (-r) / wheelGain.Frequency
		assert.InDelta(t, float64(want), float64(d[i]), 1e-4)
	}
}

func TestTick_MotorWriteFailureDoesNotAbortOtherWheels(t *testing.T) {
	motors := [3]*fakeMotor{{err: errors.New("bus error")}, {}, {}}
	encs := [3]*fakeEncoder{{}, {}, {}}
	pms := [3]providers.Motor{motors[0], motors[1], motors[2]}
	pes := [3]providers.Encoder{encs[0], encs[1], encs[2]}

	c, err := wheelcontrol.New(wheelcontrol.Config{
		WheelVectors: defaultWheelVectors(),
		PoseGain:     types.Gain{Kp: 0.1, Frequency: 1},
		WheelGain:    types.Gain{Kp: 0.7, Frequency: 1},
		VMax:         10,
		DMax:         1,
	}, pms, pes)
	require.NoError(t, err)

	// The Y component gives wheel 0 (alpha = 0) a non-zero commanded duty.
	c.Tick(types.Pose{X: 1, Y: 1})

	// last_duty is updated to what was commanded even though motor 0's
	// write failed.
	assert.Equal(t, motors[1].duty, c.Duties()[1])
	assert.NotEqual(t, float32(0), c.Duties()[0])
}

func TestStop_WritesZeroDutyToAllMotors(t *testing.T) {
	c, motors, _ := newController(t,
		types.Gain{Kp: 1, Frequency: 1},
		types.Gain{Kp: 1, Frequency: 1},
		10, 1)

	c.Tick(types.Pose{X: 1})
	require.NoError(t, c.Stop())

	for _, m := range motors {
		assert.Zero(t, m.duty)
	}
	assert.Equal(t, [3]float32{0, 0, 0}, c.Duties())
}
