// Package config provides the immutable, YAML-loadable configuration for a
// PoseController: wheel geometry, PID gains, saturation limits and task
// periods.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chewxy/math32"

	"github.com/itohio/omnicore/x/control/motion/types"
)

// Config is the full configuration of a motion-control core instance.
type Config struct {
	TreadRadius float32 `yaml:"tread_radius"`
	WheelRadius float32 `yaml:"wheel_radius"`

	DriveWheels     [3]types.WheelPose `yaml:"drive_wheels"`
	MeasuringWheels []types.WheelPose  `yaml:"measuring_wheels"`

	MotorGain types.Gain `yaml:"motor_gain"`
	PoseGain  types.Gain `yaml:"pose_gain"`

	VMax float32 `yaml:"v_max"`
	DMax float32 `yaml:"d_max"`

	OdometryPeriod time.Duration `yaml:"odometry_period"`

	// WrapAngularError opts into wrapping the pose-loop theta error into
	// (-pi, pi] before it reaches the pose PID. Default false (matches
	// source behaviour: unbounded theta error).
	WrapAngularError bool `yaml:"wrap_angular_error"`

	// FreezeIntegralOnSaturation opts into skipping a wheel's inner-PID
	// integral accumulation on a tick where duty saturation reduced its
	// commanded magnitude. Default false (matches source: no freeze).
	FreezeIntegralOnSaturation bool `yaml:"freeze_integral_on_saturation"`
}

// Default returns the configuration described by the platform defaults:
// 210mm tread radius, 30mm wheel radius, three drive wheels at 90/210/330
// degrees plus measuring-X/measuring-Y at the origin, motor-loop gain
// (0.7, 0, 0), pose-loop gain (0.1, 0, 0), both at 1 Hz, 10 m/s max body
// speed, max duty 1.0, 5ms odometry period.
func Default() Config {
	const tread = 0.21
	const wheel = 0.03
	const frequency = 1

	sqrt3over2 := math32.Sqrt(3) / 2

	drive := [3]types.WheelPose{
		{X: 0, Y: tread, Heading: math32.Pi / 2, Radius: wheel},
		{X: -tread * sqrt3over2, Y: -tread / 2, Heading: 2 * math32.Pi / 3, Radius: wheel},
		{X: tread * sqrt3over2, Y: -tread / 2, Heading: 4 * math32.Pi / 3, Radius: wheel},
	}

	measuring := []types.WheelPose{
		drive[0], drive[1], drive[2],
		{X: 0, Y: 0, Heading: 0, Radius: wheel},
		{X: 0, Y: 0, Heading: math32.Pi / 2, Radius: wheel},
	}

	return Config{
		TreadRadius:     tread,
		WheelRadius:     wheel,
		DriveWheels:     drive,
		MeasuringWheels: measuring,
		MotorGain:       types.Gain{Kp: 0.7, Frequency: frequency},
		PoseGain:        types.Gain{Kp: 0.1, Frequency: frequency},
		VMax:            10,
		DMax:            1.0,
		OdometryPeriod:  5 * time.Millisecond,
	}
}

// Load reads and parses a YAML configuration file, then validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate enforces the construction-time invariants: the drive wheel set
// is exactly 3, the measuring wheel set is >= 3, every wheel radius is
// positive, and both control frequencies are positive.
func (c Config) Validate() error {
	if len(c.MeasuringWheels) < 3 {
		return types.ErrWheelCountTooSmall
	}
	for _, wp := range c.DriveWheels {
		if wp.Radius <= 0 {
			return types.ErrInvalidRadius
		}
	}
	for _, wp := range c.MeasuringWheels {
		if wp.Radius <= 0 {
			return types.ErrInvalidRadius
		}
	}
	if c.MotorGain.Frequency <= 0 || c.PoseGain.Frequency <= 0 {
		return types.ErrNonPositiveFrequency
	}
	return nil
}
