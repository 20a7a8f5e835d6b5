package motor

import (
	"fmt"
	"sync"

	"github.com/itohio/omnicore/x/devices"
)

// Array groups several motors sharing one PWM device, addressed by index.
// It is the hardware-side collaborator a per-wheel controller drives: one
// Array entry per drive wheel, duty commanded by index.
type Array struct {
	mu     sync.Mutex
	pwm    devices.PWMDevice
	motors []*Motor
}

// NewArray creates motors for each config, sharing the given PWM device.
func NewArray(pwm devices.PWMDevice, configs []Config) (*Array, error) {
	if pwm == nil {
		return nil, fmt.Errorf("PWM device is required")
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("at least one motor configuration is required")
	}

	a := &Array{
		pwm:    pwm,
		motors: make([]*Motor, len(configs)),
	}

	for i, config := range configs {
		m, err := New(pwm, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create motor %d: %w", i, err)
		}
		a.motors[i] = m
	}

	return a, nil
}

// Len returns the number of motors in the array.
func (a *Array) Len() int {
	return len(a.motors)
}

// SetDuty commands duty for a single motor by index.
func (a *Array) SetDuty(i int, duty float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < 0 || i >= len(a.motors) {
		return fmt.Errorf("motor index out of range: %d", i)
	}
	return a.motors[i].SetDuty(duty)
}

// SetDuties commands duty for every motor in the array. len(duties) must
// match the array length.
func (a *Array) SetDuties(duties []float32) error {
	if len(duties) != len(a.motors) {
		return fmt.Errorf("duty count mismatch: got %d, expected %d", len(duties), len(a.motors))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, duty := range duties {
		if err := a.motors[i].SetDuty(duty); err != nil {
			return fmt.Errorf("failed to set duty for motor %d: %w", i, err)
		}
	}

	return nil
}

// Duties returns the last commanded duty for every motor in the array.
func (a *Array) Duties() []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	duties := make([]float32, len(a.motors))
	for i, m := range a.motors {
		duties[i] = m.Duty()
	}

	return duties
}

// Close commands zero duty on every motor in the array.
func (a *Array) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for i, m := range a.motors {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close motor %d: %w", i, err)
		}
	}
	return firstErr
}
