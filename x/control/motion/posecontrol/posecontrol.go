// Package posecontrol is the top-level orchestrator: it owns the Odometry
// and WheelController instances and runs the two periodic tasks (odometry
// tick, control tick) at their own rates.
package posecontrol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/itohio/omnicore/x/control/motion/config"
	"github.com/itohio/omnicore/x/control/motion/kinematics"
	"github.com/itohio/omnicore/x/control/motion/odometry"
	"github.com/itohio/omnicore/x/control/motion/providers"
	"github.com/itohio/omnicore/x/control/motion/types"
	"github.com/itohio/omnicore/x/control/motion/wheelcontrol"
)

// PoseController drives a 3-omni-wheel chassis toward a commanded target
// pose. Construction takes ownership of an Odometry instance and borrows
// the three drive motors and the full measuring-wheel encoder set.
type PoseController struct {
	id uuid.UUID

	odometry   *odometry.Odometry
	wheelCtl   *wheelcontrol.Controller
	cfg        config.Config
	logger     zerolog.Logger

	targetMu sync.Mutex
	target   types.Pose

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a PoseController from cfg, the three drive motors (ordered to
// match cfg.DriveWheels), and one encoder per entry in cfg.MeasuringWheels
// (the first three must correspond to the drive wheels).
func New(cfg config.Config, motors [3]providers.Motor, measuringEncoders []providers.Encoder, logger zerolog.Logger) (*PoseController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(measuringEncoders) != len(cfg.MeasuringWheels) {
		return nil, fmt.Errorf("posecontrol: %d measuring wheels but %d encoders", len(cfg.MeasuringWheels), len(measuringEncoders))
	}

	odo, err := odometry.New(cfg.MeasuringWheels, measuringEncoders)
	if err != nil {
		return nil, fmt.Errorf("posecontrol: %w", err)
	}

	var driveWheelVectors [3]types.WheelVector
	var driveEncoders [3]providers.Encoder
	for i, wp := range cfg.DriveWheels {
		wv, err := kinematics.Forward(wp)
		if err != nil {
			return nil, fmt.Errorf("posecontrol: drive wheel %d: %w", i, err)
		}
		driveWheelVectors[i] = wv
		driveEncoders[i] = measuringEncoders[i]
	}

	id := uuid.New()
	logger = logger.With().Str("controller_id", id.String()).Logger()

	wheelCtl, err := wheelcontrol.New(wheelcontrol.Config{
		WheelVectors:               driveWheelVectors,
		PoseGain:                   cfg.PoseGain,
		WheelGain:                  cfg.MotorGain,
		VMax:                       cfg.VMax,
		DMax:                       cfg.DMax,
		FreezeIntegralOnSaturation: cfg.FreezeIntegralOnSaturation,
		Logger:                     logger,
	}, motors, driveEncoders)
	if err != nil {
		return nil, fmt.Errorf("posecontrol: %w", err)
	}

	return &PoseController{
		id:       id,
		odometry: odo,
		wheelCtl: wheelCtl,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// ID returns this controller instance's identifier, included in its log
// lines so multiple instances in one process are distinguishable.
func (p *PoseController) ID() uuid.UUID {
	return p.id
}

// Start launches the odometry and control periodic tasks.
func (p *PoseController) Start() {
	p.wg.Add(2)
	go p.runOdometryTask()
	go p.runControlTask()
}

func (p *PoseController) runOdometryTask() {
	defer p.wg.Done()

	period := p.cfg.OdometryPeriod
	if period <= 0 {
		period = 5 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.odometry.Update()
		}
	}
}

func (p *PoseController) runControlTask() {
	defer p.wg.Done()

	period := time.Duration(float64(time.Second) / float64(p.cfg.PoseGain.Frequency))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.controlTick()
		}
	}
}

func (p *PoseController) controlTick() {
	p.targetMu.Lock()
	target := p.target
	p.targetMu.Unlock()

	pose := p.odometry.GetPose()
	err := target.Sub(pose)

	if p.cfg.WrapAngularError {
		err.Theta = wrapAngle(err.Theta)
	}

	p.wheelCtl.Tick(err)
}

// wrapAngle wraps theta into (-pi, pi].
func wrapAngle(theta float32) float32 {
	for theta > math32.Pi {
		theta -= 2 * math32.Pi
	}
	for theta <= -math32.Pi {
		theta += 2 * math32.Pi
	}
	return theta
}

// SetTarget atomically overwrites the target pose.
func (p *PoseController) SetTarget(pose types.Pose) {
	p.targetMu.Lock()
	p.target = pose
	p.targetMu.Unlock()
}

// SetPose proxies to Odometry.
func (p *PoseController) SetPose(pose types.Pose) {
	p.odometry.SetPose(pose)
}

// GetPose proxies to Odometry.
func (p *PoseController) GetPose() types.Pose {
	return p.odometry.GetPose()
}

// Stop cancels both periodic tasks and writes a final zero duty to every
// motor, logging (not retrying) any write failure.
func (p *PoseController) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopCh) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.wheelCtl.Stop()
}

