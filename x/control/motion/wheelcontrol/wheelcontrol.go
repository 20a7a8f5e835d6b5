// Package wheelcontrol turns a pose error into per-wheel duty commands: an
// outer PID produces a body twist, wheel-speed saturation rescales it
// proportionally to respect kinematic limits, a per-wheel inner PID (on
// angular rate) produces a duty delta integrated per wheel, and a final
// duty saturation rescales proportionally to respect actuator limits.
package wheelcontrol

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/itohio/omnicore/x/control/motion/pid"
	"github.com/itohio/omnicore/x/control/motion/providers"
	"github.com/itohio/omnicore/x/control/motion/types"
)

// Config carries the immutable configuration of a WheelController.
type Config struct {
	WheelVectors [3]types.WheelVector
	PoseGain     types.Gain
	WheelGain    types.Gain
	VMax         float32 // maximum body linear speed, applied componentwise
	DMax         float32 // maximum absolute duty, default 1.0

	// FreezeIntegralOnSaturation skips a wheel's inner-PID integral
	// accumulation on a tick where duty saturation reduced that wheel's
	// commanded magnitude. Default false (matches source behaviour: no
	// freeze, integral grows unbounded under sustained saturation).
	FreezeIntegralOnSaturation bool

	Logger zerolog.Logger
}

// Controller is the nested PID wheel controller. It owns per-wheel and
// pose PID state and the last committed duty and rate estimate per wheel.
type Controller struct {
	mu sync.Mutex

	wheelVectors [3]types.WheelVector
	motors       [3]providers.Motor
	encoders     [3]providers.Encoder

	posePID   *pid.PID[types.Twist]
	wheelPIDs [3]*pid.PID[pid.Scalar]

	lastRot  [3]float32
	lastDuty [3]float32

	vMax, dMax     float32
	freezeIntegral bool
	frequency      float32

	logger zerolog.Logger
}

// New builds a Controller driving three motors via three rate encoders,
// using the given wheel forward vectors and gains.
func New(cfg Config, motors [3]providers.Motor, encoders [3]providers.Encoder) (*Controller, error) {
	if cfg.WheelGain.Frequency <= 0 || cfg.PoseGain.Frequency <= 0 {
		return nil, types.ErrNonPositiveFrequency
	}
	if cfg.DMax <= 0 {
		cfg.DMax = 1.0
	}

	c := &Controller{
		wheelVectors:   cfg.WheelVectors,
		motors:         motors,
		encoders:       encoders,
		posePID:        pid.New[types.Twist](pid.Gain(cfg.PoseGain)),
		vMax:           cfg.VMax,
		dMax:           cfg.DMax,
		freezeIntegral: cfg.FreezeIntegralOnSaturation,
		frequency:      cfg.WheelGain.Frequency,
		logger:         cfg.Logger,
	}
	for i := range c.wheelPIDs {
		c.wheelPIDs[i] = pid.New[pid.Scalar](pid.Gain(cfg.WheelGain))
	}

	return c, nil
}

// Tick runs one control cycle given the current pose error (target - pose,
// componentwise, no angular wrapping applied here).
func (c *Controller) Tick(poseErr types.Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.frequency

	// 1. Estimate per-wheel rate from accumulated rotations.
	var rateEstimate [3]float32
	for i, e := range c.encoders {
		rot := e.Rotations()
		rateEstimate[i] = (rot - c.lastRot[i]) * f
		c.lastRot[i] = rot
	}

	// 2. Outer pose PID -> target twist.
	twist := c.posePID.Calculate(types.Twist{VX: poseErr.X, VY: poseErr.Y, Omega: poseErr.Theta})

	// 3. Per-wheel target speed.
	var s [3]float32
	for i, wv := range c.wheelVectors {
		s[i] = wv.Dot(twist)
	}

	// 4. Wheel-speed saturation (shape-preserving).
	ratio := saturationRatio(s[:], c.vMax)
	if ratio != 1 {
		for i := range s {
			s[i] *= ratio
		}
	}

	// 5. Inner per-wheel PID (rate-incremental: output is a duty delta per
	// second, integrated by dividing by f and accumulating onto last_duty).
	var d [3]float32
	var preIntegral [3]pid.Scalar
	for i, wheelPID := range c.wheelPIDs {
		preIntegral[i] = wheelPID.Integral()
		deltaD := wheelPID.Calculate(pid.Scalar(s[i] - rateEstimate[i]))
		d[i] = c.lastDuty[i] + float32(deltaD)/f
	}

	// 6. Duty saturation (shape-preserving).
	dRatio := saturationRatio(d[:], c.dMax)
	if dRatio != 1 {
		for i := range d {
			d[i] *= dRatio
		}
		if c.freezeIntegral {
			for i, wheelPID := range c.wheelPIDs {
				wheelPID.SetIntegral(preIntegral[i])
			}
		}
	}

	// 7. Commit: write duty, then store what was commanded (not what
	// succeeded) regardless of transport failure.
	for i, m := range c.motors {
		if err := m.SetDuty(d[i]); err != nil {
			c.logger.Warn().Err(err).Int("wheel", i).Msg("motor duty write failed")
		}
		c.lastDuty[i] = d[i]
	}
}

// saturationRatio returns the shape-preserving scale factor for values so
// that no entry exceeds limit in magnitude: 1 if already within limit,
// limit/max(|values|) otherwise.
func saturationRatio(values []float32, limit float32) float32 {
	var maxAbs float32
	for _, v := range values {
		if a := abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs <= limit || maxAbs == 0 {
		return 1
	}
	return limit / maxAbs
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Duties returns the last committed duty per wheel.
func (c *Controller) Duties() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDuty
}

// Reset clears pose and per-wheel PID integrators.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posePID.Reset()
	for _, p := range c.wheelPIDs {
		p.Reset()
	}
}

// Stop commits a final zero duty to every motor, logging (not retrying)
// any write failure.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for i, m := range c.motors {
		if err := m.SetDuty(0); err != nil {
			c.logger.Warn().Err(err).Int("wheel", i).Msg("final zero-duty write failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("wheel %d: %w", i, err)
			}
		}
		c.lastDuty[i] = 0
	}
	return firstErr
}
