package posecontrol_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/omnicore/x/control/motion/config"
	"github.com/itohio/omnicore/x/control/motion/posecontrol"
	"github.com/itohio/omnicore/x/control/motion/providers"
	"github.com/itohio/omnicore/x/control/motion/types"
)

type fakeEncoder struct{ rot float32 }

func (f *fakeEncoder) Count() int64                        { return int64(f.rot * 2048) }
func (f *fakeEncoder) Rotations() float32                   { return f.rot }
func (f *fakeEncoder) CountToRotations(count int64) float32 { return float32(count) / 2048 }
func (f *fakeEncoder) RotationsToCount(rot float32) int64   { return int64(rot * 2048) }

type fakeMotor struct{ duty float32 }

func (f *fakeMotor) SetDuty(d float32) error {
	f.duty = d
	return nil
}

func newHarness(t *testing.T) (*posecontrol.PoseController, [3]*fakeMotor) {
	t.Helper()
	cfg := config.Default()
	cfg.PoseGain.Frequency = 50
	cfg.MotorGain.Frequency = 50
	cfg.OdometryPeriod = 2 * time.Millisecond

	motors := [3]*fakeMotor{{}, {}, {}}
	pms := [3]providers.Motor{motors[0], motors[1], motors[2]}

	encs := make([]providers.Encoder, len(cfg.MeasuringWheels))
	for i := range encs {
		encs[i] = &fakeEncoder{}
	}

	pc, err := posecontrol.New(cfg, pms, encs, zerolog.Nop())
	require.NoError(t, err)
	return pc, motors
}

func TestPoseController_SetGetPose(t *testing.T) {
	pc, _ := newHarness(t)

	pc.SetPose(types.Pose{X: 1, Y: 2, Theta: 0.5})
	assert.Equal(t, types.Pose{X: 1, Y: 2, Theta: 0.5}, pc.GetPose())
}

func TestPoseController_StartStop_ZeroesDuty(t *testing.T) {
	pc, motors := newHarness(t)
	pc.SetTarget(types.Pose{X: 10})

	pc.Start()
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pc.Stop(ctx))

	for _, m := range motors {
		assert.Zero(t, m.duty)
	}
}

func TestPoseController_RejectsMismatchedEncoderCount(t *testing.T) {
	cfg := config.Default()
	motors := [3]*fakeMotor{{}, {}, {}}
	pms := [3]providers.Motor{motors[0], motors[1], motors[2]}

	_, err := posecontrol.New(cfg, pms, []providers.Encoder{&fakeEncoder{}}, zerolog.Nop())
	require.Error(t, err)
}
