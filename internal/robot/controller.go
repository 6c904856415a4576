// Package robot turns forwarded key events into motor commands.
package robot

import (
	"sync"

	"go.uber.org/zap"
)

// maxQueued is how many actions may wait before the oldest is dropped.
const maxQueued = 10

// Speed tiers, as (fast, mid, slow).
var (
	liftSpeeds    = [3]float64{8, 4, 2}
	headSpeeds    = [3]float64{2, 1, 0.5}
	forwardSpeeds = [3]float64{150, 75, 50}
	turnSpeeds    = [3]float64{100, 50, 30}
)

// Motor names reported to the command hook.
const (
	MotorWheels = "wheels"
	MotorLift   = "lift"
	MotorHead   = "head"
)

// Action is a unit of deferred work run by Update. It returns true once
// finished; unfinished actions stay at the head of the queue. Actions run
// with the controller locked and must not call back into it.
type Action func() bool

// State is a snapshot of the controller for display.
type State struct {
	Drive     int          `json:"drive"`
	Turn      int          `json:"turn"`
	Lift      int          `json:"lift"`
	Head      int          `json:"head"`
	Fast      bool         `json:"fast"`
	Slow      bool         `json:"slow"`
	Wheels    WheelCommand `json:"wheels"`
	LiftSpeed float64      `json:"lift_speed"`
	HeadSpeed float64      `json:"head_speed"`
	Queued    int          `json:"queued"`
}

// Controller tracks which controls are held and drives the motors.
type Controller struct {
	mu     sync.Mutex
	motors Motors
	keys   Keymap
	log    *zap.Logger
	hook   func(motor string, err error)

	driveForwards, driveBack int
	turnLeft, turnRight      int
	liftUp, liftDown         int
	headUp, headDown         int

	goFast, goSlow bool

	lastWheels         WheelCommand
	lastLift, lastHead float64
	hasWheels          bool

	queue []Action
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeymap replaces the default key bindings.
func WithKeymap(km Keymap) Option {
	return func(c *Controller) { c.keys = km }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCommandHook observes every motor command and its outcome.
func WithCommandHook(fn func(motor string, err error)) Option {
	return func(c *Controller) { c.hook = fn }
}

// NewController creates a controller driving m.
func NewController(m Motors, opts ...Option) *Controller {
	c := &Controller{
		motors: m,
		keys:   DefaultKeymap(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleKey applies one key transition. Shift selects fast speeds and alt
// slow ones; toggling either re-sends every motor at the new speed.
func (c *Controller) HandleKey(code int, shift, alt, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasFast, wasSlow := c.goFast, c.goSlow
	c.goFast, c.goSlow = shift, alt
	speedChanged := wasFast != c.goFast || wasSlow != c.goSlow

	held := boolToInt(down)
	updateDriving := c.updateDriveState(code, held, speedChanged)
	updateLift := c.updateLiftState(code, held, speedChanged)
	updateHead := c.updateHeadState(code, held, speedChanged)

	if updateDriving {
		c.retryOnFailure(c.sendWheels)
	}
	if updateHead {
		c.retryOnFailure(c.sendHead)
	}
	if updateLift {
		c.retryOnFailure(c.sendLift)
	}
}

// Update runs the action at the head of the queue, removing it when it
// reports done. It reports whether an action ran.
func (c *Controller) Update() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return false
	}
	if c.queue[0]() {
		c.queue = c.queue[1:]
	}
	return true
}

// State returns a snapshot of held controls and last commands.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Drive:     c.driveForwards - c.driveBack,
		Turn:      c.turnRight - c.turnLeft,
		Lift:      c.liftUp - c.liftDown,
		Head:      c.headUp - c.headDown,
		Fast:      c.goFast,
		Slow:      c.goSlow,
		Wheels:    c.lastWheels,
		LiftSpeed: c.lastLift,
		HeadSpeed: c.lastHead,
		Queued:    len(c.queue),
	}
}

// Keymap returns the active key bindings.
func (c *Controller) Keymap() Keymap {
	return c.keys
}

// Battery proxies the motors' battery report.
func (c *Controller) Battery() (Battery, error) {
	return c.motors.Battery()
}

func (c *Controller) updateDriveState(code, held int, speedChanged bool) bool {
	switch code {
	case c.keys.Forward:
		c.driveForwards = held
	case c.keys.Back:
		c.driveBack = held
	case c.keys.TurnLeft:
		c.turnLeft = held
	case c.keys.TurnRight:
		c.turnRight = held
	default:
		return speedChanged
	}
	return true
}

func (c *Controller) updateLiftState(code, held int, speedChanged bool) bool {
	switch code {
	case c.keys.LiftUp:
		c.liftUp = held
	case c.keys.LiftDown:
		c.liftDown = held
	default:
		return speedChanged
	}
	return true
}

func (c *Controller) updateHeadState(code, held int, speedChanged bool) bool {
	switch code {
	case c.keys.HeadUp:
		c.headUp = held
	case c.keys.HeadDown:
		c.headDown = held
	default:
		return speedChanged
	}
	return true
}

func (c *Controller) pickSpeed(tiers [3]float64) float64 {
	switch {
	case c.goFast && !c.goSlow:
		return tiers[0]
	case c.goSlow && !c.goFast:
		return tiers[2]
	default:
		return tiers[1]
	}
}

// retryOnFailure runs send and, if the motor rejected the command, queues
// it so Update keeps retrying with whatever the current intent is.
func (c *Controller) retryOnFailure(send func() error) {
	if err := send(); err != nil {
		c.queueLocked(func() bool { return send() == nil })
	}
}

// queueLocked appends an action, dropping the oldest when the queue is
// already over capacity.
func (c *Controller) queueLocked(a Action) {
	if len(c.queue) > maxQueued {
		c.queue = c.queue[1:]
	}
	c.queue = append(c.queue, a)
}

func (c *Controller) sendLift() error {
	vel := float64(c.liftUp-c.liftDown) * c.pickSpeed(liftSpeeds)
	// a stop is always re-sent
	if c.lastLift != 0 && vel == c.lastLift {
		return nil
	}
	err := c.motors.SetLiftMotor(vel)
	c.observe(MotorLift, err)
	if err != nil {
		return err
	}
	c.lastLift = vel
	return nil
}

func (c *Controller) sendHead() error {
	vel := float64(c.headUp-c.headDown) * c.pickSpeed(headSpeeds)
	if c.lastHead != 0 && vel == c.lastHead {
		return nil
	}
	err := c.motors.SetHeadMotor(vel)
	c.observe(MotorHead, err)
	if err != nil {
		return err
	}
	c.lastHead = vel
	return nil
}

func (c *Controller) sendWheels() error {
	driveDir := float64(c.driveForwards - c.driveBack)
	turnDir := float64(c.turnRight - c.turnLeft)
	if driveDir < 0 {
		turnDir = -turnDir
	}

	forward := c.pickSpeed(forwardSpeeds)
	turn := c.pickSpeed(turnSpeeds)

	left := driveDir*forward + turn*turnDir
	right := driveDir*forward - turn*turnDir
	cmd := WheelCommand{Left: left, Right: right, LeftAccel: left * 4, RightAccel: right * 4}
	if c.hasWheels && cmd == c.lastWheels {
		return nil
	}

	err := c.motors.SetWheelMotors(cmd.Left, cmd.Right, cmd.LeftAccel, cmd.RightAccel)
	c.observe(MotorWheels, err)
	if err != nil {
		return err
	}
	c.lastWheels, c.hasWheels = cmd, true
	return nil
}

func (c *Controller) observe(motor string, err error) {
	if err != nil {
		c.log.Warn("motor command failed", zap.String("motor", motor), zap.Error(err))
	}
	if c.hook != nil {
		c.hook(motor, err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
