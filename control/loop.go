package control

import (
	"context"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/poark/pins"
)

const (
	defaultTickInterval     = 10 * time.Millisecond
	defaultResendDelayTicks = 20
	defaultMaxTicks         = 30000
	defaultPatternEvery     = 10
	defaultRampSteps        = 50
	defaultRampBase         = 200
	defaultBlinkPeriod      = 200
)

// Board is the remote side of the loop. Implementations publish without waiting for delivery.
type Board interface {
	SetPinsMode(defs []pins.Definition) error
	SetPinsState(states []pins.State) error
}

// LoopConfig tunes the loop timing and output pattern. Zero counts fall back to defaults,
// ResendDelayTicks and RampBase only when unset since zero is a valid value for both.
type LoopConfig struct {
	Interval         time.Duration `json:"-" yaml:"-"`
	ResendDelayTicks *int
	MaxTicks         uint64
	PatternEvery     uint64
	RampSteps        uint64
	RampBase         *uint8
	BlinkPeriod      uint64
}

func (lc LoopConfig) withDefaults() LoopConfig {
	if lc.Interval <= 0 {
		lc.Interval = defaultTickInterval
	}
	if lc.ResendDelayTicks == nil {
		delay := defaultResendDelayTicks
		lc.ResendDelayTicks = &delay
	}
	if lc.MaxTicks == 0 {
		lc.MaxTicks = defaultMaxTicks
	}
	if lc.PatternEvery == 0 {
		lc.PatternEvery = defaultPatternEvery
	}
	if lc.RampSteps == 0 {
		lc.RampSteps = defaultRampSteps
	}
	if lc.RampBase == nil {
		base := uint8(defaultRampBase)
		lc.RampBase = &base
	}
	if lc.BlinkPeriod == 0 {
		lc.BlinkPeriod = defaultBlinkPeriod
	}
	return lc
}

// Validate checks the config with defaults applied.
func (lc LoopConfig) Validate() error {
	lc = lc.withDefaults()

	if *lc.ResendDelayTicks < 0 {
		return errors.Errorf("ResendDelayTicks must not be negative, got %d", *lc.ResendDelayTicks)
	}
	if lc.RampSteps > math.MaxUint8+1 || uint64(*lc.RampBase)+lc.RampSteps-1 > math.MaxUint8 {
		return errors.Errorf("pwm ramp %d+%d exceeds %d", *lc.RampBase, lc.RampSteps, pins.MaxPwm)
	}

	return nil
}

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseStartup
	PhaseRunning
	PhaseStopped
)

var phaseNames = map[Phase]string{
	PhaseIdle:    "idle",
	PhaseStartup: "startup",
	PhaseRunning: "running",
	PhaseStopped: "stopped",
}

func (p Phase) String() string {
	return phaseNames[p]
}

type StopReason string

const (
	StopSignal  StopReason = "stop signal"
	StopCeiling StopReason = "tick ceiling"
)

type Status struct {
	Phase         string
	Ticks         uint64
	ServoAngle    uint8
	ServoDirty    bool
	ModeMessages  uint64
	StateMessages uint64
	PublishErrors uint64
}

type Loop struct {
	Logger *log.Logger

	config LoopConfig
	layout Layout
	board  Board
	target *Target

	count         atomic.Uint64
	phase         atomic.Int32
	modeMessages  atomic.Uint64
	stateMessages atomic.Uint64
	publishErrors atomic.Uint64
}

func NewLoop(config LoopConfig, layout Layout, board Board, target *Target) *Loop {
	return &Loop{
		Logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "SyncLoop: ",
			Level:  log.GetLevel(),
		}),
		config: config.withDefaults(),
		layout: layout,
		board:  board,
		target: target,
	}
}

func (l *Loop) Config() LoopConfig {
	return l.config
}

func (l *Loop) Count() uint64 {
	return l.count.Load()
}

func (l *Loop) Status() Status {
	angle, dirty := l.target.Snapshot()
	return Status{
		Phase:         Phase(l.phase.Load()).String(),
		Ticks:         l.count.Load(),
		ServoAngle:    angle,
		ServoDirty:    dirty,
		ModeMessages:  l.modeMessages.Load(),
		StateMessages: l.stateMessages.Load(),
		PublishErrors: l.publishErrors.Load(),
	}
}

// PatternValue is the PWM ramp for tick count c, always within [RampBase, RampBase+RampSteps).
func (l *Loop) PatternValue(c uint64) uint8 {
	return uint8((c/l.config.PatternEvery)%l.config.RampSteps) + *l.config.RampBase
}

func (l *Loop) BlinkValue(c uint64) uint8 {
	if c%l.config.BlinkPeriod == 0 {
		return pins.High
	}
	return pins.Low
}

func (l *Loop) sendModes(defs []pins.Definition) {
	err := l.board.SetPinsMode(defs)
	if err != nil {
		l.publishErrors.Add(1)
		l.Logger.Error("failed to send pins mode", "err", err)
		return
	}
	l.modeMessages.Add(1)
}

func (l *Loop) sendStates(states []pins.State) bool {
	err := l.board.SetPinsState(states)
	if err != nil {
		l.publishErrors.Add(1)
		l.Logger.Error("failed to send pins state", "err", err)
		return false
	}
	l.stateMessages.Add(1)
	return true
}

// Startup sends the pin configuration twice, ResendDelayTicks apart: the first message after
// a fresh connection may be dropped and the board never confirms it.
// Returns false if the pacer stopped before startup completed.
func (l *Loop) Startup(ctx context.Context, pacer Pacer) bool {
	l.phase.Store(int32(PhaseStartup))

	defs := l.layout.EnableDefinitions()
	l.Logger.Info("sending pins mode", "pins", len(defs))
	l.sendModes(defs)

	for i := 0; i < *l.config.ResendDelayTicks; i++ {
		if !pacer.Next(ctx) {
			return false
		}
	}

	l.Logger.Info("sending pins mode again", "pins", len(defs))
	l.sendModes(defs)

	return pacer.Next(ctx)
}

// Tick runs one main loop iteration. It returns false once the tick ceiling is exceeded.
func (l *Loop) Tick() bool {
	l.phase.Store(int32(PhaseRunning))
	c := l.count.Load()

	if c%l.config.PatternEvery == 0 {
		value := l.PatternValue(c)
		states := make([]pins.State, 0, len(l.layout.PwmPins)+1)
		for _, p := range l.layout.PwmPins {
			states = append(states, pins.State{Pin: p, Value: value})
		}
		states = append(states, pins.State{Pin: l.layout.LedPin, Value: l.BlinkValue(c)})
		l.Logger.Debug("sending pins state", "count", c)
		l.sendStates(states)
	}

	angle, rev, dirty := l.target.Pending()
	if dirty {
		// a failed publish keeps the target dirty, next tick retries
		if l.sendStates([]pins.State{{Pin: l.layout.ServoPin, Value: angle}}) {
			l.target.Consume(rev)
			l.Logger.Debug("servo angle sent", "angle", angle)
		}
	}

	return l.count.Add(1) <= l.config.MaxTicks
}

// Shutdown releases the managed pins with a single configuration message.
func (l *Loop) Shutdown() {
	defs := l.layout.DisableDefinitions()
	l.Logger.Info("sending pins disable", "pins", len(defs))
	l.sendModes(defs)
	l.phase.Store(int32(PhaseStopped))
}

// Run drives startup, the main loop and shutdown. Shutdown always runs, whatever ended the loop.
func (l *Loop) Run(ctx context.Context, pacer Pacer) (reason StopReason) {
	reason = StopSignal
	defer func() {
		l.Shutdown()
		l.Logger.Info("loop finished", "reason", reason, "ticks", l.Count())
	}()

	if !l.Startup(ctx, pacer) {
		return
	}

	for {
		if !l.Tick() {
			reason = StopCeiling
			return
		}
		if !pacer.Next(ctx) {
			return
		}
	}
}
