package motor

import (
	"fmt"
	"sync"

	"github.com/itohio/omnicore/x/devices"
)

// Motor drives a single PWM-commutated DC motor. Unlike an RPM-servoed
// motor driver, Motor applies whatever duty it is told: rate control (if
// any) lives one layer up, in the caller's own PID loop. This matches the
// "DC motor provider" contract of a duty-only actuator: set_duty(d), sign
// controls direction, magnitude controls PWM duty.
type Motor struct {
	mu sync.Mutex

	config Config
	pwm    devices.PWMDevice

	pwmChannel  devices.PWM // TypeDirPWM, TypeABDirPWM
	pwmChannelA devices.PWM // TypeABPWM
	pwmChannelB devices.PWM // TypeABPWM

	duty float32
}

// New creates a new motor with the specified configuration.
func New(pwm devices.PWMDevice, config Config) (*Motor, error) {
	if pwm == nil {
		return nil, fmt.Errorf("PWM device is required")
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	frequency := uint32(20000) // 20kHz typical for motor control
	if err := pwm.Configure(frequency); err != nil {
		return nil, fmt.Errorf("failed to configure PWM: %w", err)
	}

	m := &Motor{
		config: config,
		pwm:    pwm,
	}

	if err := m.setupPWMChannels(); err != nil {
		return nil, fmt.Errorf("failed to setup PWM channels: %w", err)
	}

	return m, nil
}

// validateConfig validates the motor configuration.
func validateConfig(config Config) error {
	switch config.Type {
	case TypeDirPWM:
		if config.Dir == nil {
			return fmt.Errorf("Dir pin is required for TypeDirPWM")
		}
		if config.PWM == nil {
			return fmt.Errorf("PWM pin is required for TypeDirPWM")
		}
	case TypeABPWM:
		if config.PinA == nil {
			return fmt.Errorf("PinA is required for TypeABPWM")
		}
		if config.PinB == nil {
			return fmt.Errorf("PinB is required for TypeABPWM")
		}
	case TypeABDirPWM:
		if config.PinA == nil {
			return fmt.Errorf("PinA is required for TypeABDirPWM")
		}
		if config.PinB == nil {
			return fmt.Errorf("PinB is required for TypeABDirPWM")
		}
		if config.PWM == nil {
			return fmt.Errorf("PWM pin is required for TypeABDirPWM")
		}
	default:
		return fmt.Errorf("invalid motor type: %d", config.Type)
	}

	return nil
}

// setupPWMChannels sets up PWM channels based on motor type.
func (m *Motor) setupPWMChannels() error {
	var err error

	switch m.config.Type {
	case TypeDirPWM:
		m.pwmChannel, err = m.pwm.Channel(m.config.PWM)
		if err != nil {
			return fmt.Errorf("failed to get PWM channel: %w", err)
		}
	case TypeABPWM:
		m.pwmChannelA, err = m.pwm.Channel(m.config.PinA)
		if err != nil {
			return fmt.Errorf("failed to get PWM channel A: %w", err)
		}
		m.pwmChannelB, err = m.pwm.Channel(m.config.PinB)
		if err != nil {
			return fmt.Errorf("failed to get PWM channel B: %w", err)
		}
	case TypeABDirPWM:
		m.pwmChannel, err = m.pwm.Channel(m.config.PWM)
		if err != nil {
			return fmt.Errorf("failed to get PWM channel: %w", err)
		}
	}

	return nil
}

// SetDuty commands a signed duty ratio in [-1, 1]. Sign controls direction,
// magnitude controls PWM duty cycle. Values outside the range are clamped.
func (m *Motor) SetDuty(duty float32) error {
	if duty > 1 {
		duty = 1
	} else if duty < -1 {
		duty = -1
	}

	m.mu.Lock()
	m.duty = duty
	m.mu.Unlock()

	return m.write(duty)
}

// Duty returns the last commanded duty ratio.
func (m *Motor) Duty() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duty
}

func (m *Motor) write(duty float32) error {
	mag := abs(duty)
	fwd := duty >= 0

	switch m.config.Type {
	case TypeDirPWM:
		m.config.Dir.Set(fwd)
		return m.pwmChannel.Set(mag)
	case TypeABPWM:
		if fwd {
			if err := m.pwmChannelB.Set(0); err != nil {
				return err
			}
			return m.pwmChannelA.Set(mag)
		}
		if err := m.pwmChannelA.Set(0); err != nil {
			return err
		}
		return m.pwmChannelB.Set(mag)
	case TypeABDirPWM:
		m.config.PinA.Set(fwd)
		m.config.PinB.Set(!fwd)
		return m.pwmChannel.Set(mag)
	default:
		return fmt.Errorf("invalid motor type: %d", m.config.Type)
	}
}

// Close releases the motor, commanding zero duty.
func (m *Motor) Close() error {
	return m.SetDuty(0)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
