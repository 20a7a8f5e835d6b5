// Package providers declares the narrow external-collaborator interfaces
// the motion-control core depends on — an encoder and a DC motor — plus
// thin adapters over the hardware drivers in x/devices, so the core can
// drive real hardware without depending on its concrete types.
package providers

import (
	"github.com/itohio/omnicore/x/devices/encoder"
	"github.com/itohio/omnicore/x/devices/motor"
)

// Encoder is the narrow contract the motion-control core needs from an
// encoder: a monotonic signed count, and rotation conversions. Positive
// direction is configuration-defined by the concrete provider.
type Encoder interface {
	// Count returns the monotonic accumulation of quadrature edges.
	Count() int64
	// Rotations returns Count() converted to wheel rotations.
	Rotations() float32
	// CountToRotations converts a raw count delta to rotations.
	CountToRotations(count int64) float32
	// RotationsToCount converts a rotation delta to a raw count.
	RotationsToCount(rot float32) int64
}

// Motor is the narrow contract the motion-control core needs from a motor:
// a signed duty write in [-1, 1].
type Motor interface {
	SetDuty(duty float32) error
}

// encoderAdapter wraps an encoder.Device to satisfy Encoder, applying a
// fixed counts-per-revolution resolution.
type encoderAdapter struct {
	dev        *encoder.Device
	resolution float32
}

// NewEncoder adapts an encoder.Device into the Encoder contract. resolution
// is the encoder's counts-per-revolution, doubled by the caller beforehand
// if running in quadrature-dual mode.
func NewEncoder(dev *encoder.Device, resolution float32) Encoder {
	return &encoderAdapter{dev: dev, resolution: resolution}
}

func (e *encoderAdapter) Count() int64 {
	return e.dev.Position()
}

func (e *encoderAdapter) Rotations() float32 {
	return e.CountToRotations(e.dev.Position())
}

func (e *encoderAdapter) CountToRotations(count int64) float32 {
	return float32(count) / e.resolution
}

func (e *encoderAdapter) RotationsToCount(rot float32) int64 {
	return int64(rot * e.resolution)
}

// motorAdapter wraps a motor.Motor to satisfy Motor.
type motorAdapter struct {
	m *motor.Motor
}

// NewMotor adapts a motor.Motor into the Motor contract.
func NewMotor(m *motor.Motor) Motor {
	return &motorAdapter{m: m}
}

func (a *motorAdapter) SetDuty(duty float32) error {
	return a.m.SetDuty(duty)
}

// arrayMotor adapts one indexed channel of a motor.Array into the Motor
// contract.
type arrayMotor struct {
	arr *motor.Array
	idx int
}

// NewArrayMotor adapts one channel of a motor.Array into the Motor
// contract, addressed by index.
func NewArrayMotor(arr *motor.Array, idx int) Motor {
	return &arrayMotor{arr: arr, idx: idx}
}

func (a *arrayMotor) SetDuty(duty float32) error {
	return a.arr.SetDuty(a.idx, duty)
}
