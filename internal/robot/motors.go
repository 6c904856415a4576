package robot

import (
	"sync"
	"time"
)

// Motors is the robot-side boundary. Implementations talk to the actual
// robot SDK; SimMotors stands in during development.
type Motors interface {
	SetWheelMotors(left, right, leftAccel, rightAccel float64) error
	SetLiftMotor(speed float64) error
	SetHeadMotor(speed float64) error
	Battery() (Battery, error)
}

// Battery mirrors the fields the console displays.
type Battery struct {
	Volts         float64 `json:"volt"`
	Level         int     `json:"level"`
	Charging      bool    `json:"on_charge"`
	OnCharger     bool    `json:"on_charger"`
	EstimatedTime float64 `json:"estimated_time"`
}

// WheelCommand is one SetWheelMotors call.
type WheelCommand struct {
	Left       float64 `json:"left"`
	Right      float64 `json:"right"`
	LeftAccel  float64 `json:"left_accel"`
	RightAccel float64 `json:"right_accel"`
}

// SimMotors records every command it receives.
type SimMotors struct {
	mu      sync.RWMutex
	wheels  WheelCommand
	lift    float64
	head    float64
	calls   int
	battery Battery
	started time.Time
}

// NewSimMotors creates a simulator with a full battery.
func NewSimMotors() *SimMotors {
	return &SimMotors{
		battery: Battery{Volts: 4.1, Level: 2},
		started: time.Now(),
	}
}

// SetWheelMotors implements Motors.
func (s *SimMotors) SetWheelMotors(left, right, leftAccel, rightAccel float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wheels = WheelCommand{left, right, leftAccel, rightAccel}
	s.calls++
	return nil
}

// SetLiftMotor implements Motors.
func (s *SimMotors) SetLiftMotor(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lift = speed
	s.calls++
	return nil
}

// SetHeadMotor implements Motors.
func (s *SimMotors) SetHeadMotor(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.head = speed
	s.calls++
	return nil
}

// Battery implements Motors.
func (s *SimMotors) Battery() (Battery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.battery
	b.EstimatedTime = time.Since(s.started).Seconds()
	return b, nil
}

// Snapshot returns the last commands and the number of calls made.
func (s *SimMotors) Snapshot() (wheels WheelCommand, lift, head float64, calls int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wheels, s.lift, s.head, s.calls
}
