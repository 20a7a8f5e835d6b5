package pid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/omnicore/x/control/motion/pid"
)

func TestPID_ProportionalOnly(t *testing.T) {
	p := pid.New[pid.Scalar](pid.Gain{Kp: 2, Frequency: 10})

	u := p.Calculate(pid.Scalar(1.5))
	require.InDelta(t, 3.0, float32(u), 1e-6)
}

func TestPID_ZeroErrorZeroOutput(t *testing.T) {
	p := pid.New[pid.Scalar](pid.Gain{Kp: 0.7, Ki: 0.1, Kd: 0.01, Frequency: 100})

	u := p.Calculate(0)
	assert.InDelta(t, 0.0, float32(u), 1e-6)
}

func TestPID_IntegralUsesPriorAccumulator(t *testing.T) {
	p := pid.New[pid.Scalar](pid.Gain{Ki: 1, Frequency: 1})

	u1 := p.Calculate(pid.Scalar(1))
	require.InDelta(t, 0.0, float32(u1), 1e-6, "first call integrates the OLD (zero) accumulator")

	u2 := p.Calculate(pid.Scalar(1))
	require.InDelta(t, 1.0, float32(u2), 1e-6, "second call sees the accumulator from call 1")
}

func TestPID_DerivativeOnStepChange(t *testing.T) {
	p := pid.New[pid.Scalar](pid.Gain{Kd: 1, Frequency: 2})

	p.Calculate(pid.Scalar(1))
	u := p.Calculate(pid.Scalar(3))

	require.InDelta(t, 4.0, float32(u), 1e-6) // kd * f * (e - prevErr) = 1*2*(3-1)
}

func TestPID_ResetClearsIntegralOnly(t *testing.T) {
	p := pid.New[pid.Scalar](pid.Gain{Kd: 1, Ki: 1, Frequency: 1})

	p.Calculate(pid.Scalar(5))
	p.Reset()

	u := p.Calculate(pid.Scalar(5))
	// integral contribution is zero (reset); derivative contribution is also
	// zero because prevErr (5) was left untouched and e (5) matches it.
	assert.InDelta(t, 0.0, float32(u), 1e-6)
}

type twist struct{ vx, vy, omega float32 }

func (t twist) Add(o twist) twist { return twist{t.vx + o.vx, t.vy + o.vy, t.omega + o.omega} }
func (t twist) Sub(o twist) twist { return twist{t.vx - o.vx, t.vy - o.vy, t.omega - o.omega} }
func (t twist) Scale(k float32) twist {
	return twist{t.vx * k, t.vy * k, t.omega * k}
}

func TestPID_VectorOperand(t *testing.T) {
	p := pid.New[twist](pid.Gain{Kp: 1, Frequency: 1})

	u := p.Calculate(twist{vx: 1, vy: 2, omega: 3})
	assert.Equal(t, twist{vx: 1, vy: 2, omega: 3}, u)
}
