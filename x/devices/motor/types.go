package motor

import (
	"github.com/itohio/omnicore/x/devices"
)

// Type represents the motor driver type (how the motor is connected).
type Type int

const (
	// TypeDirPWM uses one direction pin and one PWM pin.
	// Direction is controlled by the dir pin (high/low).
	// Duty is controlled by PWM duty cycle on the pwm pin.
	TypeDirPWM Type = iota

	// TypeABPWM uses two pins (A and B) both with PWM.
	// Direction and duty are controlled by the relative PWM duty cycles:
	// - Forward: A=duty, B=0
	// - Reverse: A=0, B=duty
	// - Stop: A=0, B=0
	TypeABPWM

	// TypeABDirPWM uses two pins (A and B) for direction and a PWM pin.
	// Direction is controlled by setting A high/low (B is opposite).
	// Duty is controlled by PWM duty cycle on the pwm pin.
	TypeABDirPWM
)

// Config holds configuration for a motor. Config describes wiring only:
// Motor is a duty-only actuator, rate control lives with the caller.
type Config struct {
	// Motor driver type
	Type Type

	// Pins configuration (depends on Type)
	// For TypeDirPWM: Dir and PWM are used
	// For TypeABPWM: PinA and PinB are used (both PWM)
	// For TypeABDirPWM: PinA, PinB, and PWM are used
	Dir  devices.Pin // Direction pin (TypeDirPWM)
	PWM  devices.Pin // PWM pin (TypeDirPWM, TypeABDirPWM)
	PinA devices.Pin // Pin A (TypeABPWM, TypeABDirPWM)
	PinB devices.Pin // Pin B (TypeABPWM, TypeABDirPWM)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Type: TypeDirPWM,
	}
}
