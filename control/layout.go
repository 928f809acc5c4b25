package control

import (
	"github.com/pkg/errors"

	"github.com/hubertat/poark/pins"
)

// Layout lists the pins the loop manages on the board.
type Layout struct {
	LedPin       pins.PinId
	PwmPins      []pins.PinId
	ControlPin   pins.PinId
	ServoPin     pins.PinId
	ServoInitial uint8
}

func DefaultLayout() Layout {
	return Layout{
		LedPin:       pins.LedPin,
		PwmPins:      append([]pins.PinId{}, pins.PwmPins...),
		ControlPin:   pins.ServoControlPin,
		ServoPin:     pins.ServoPin,
		ServoInitial: pins.ServoCenter,
	}
}

func (l Layout) Validate() error {
	all := append([]pins.PinId{l.LedPin, l.ControlPin, l.ServoPin}, l.PwmPins...)
	seen := make(map[pins.PinId]bool)
	for _, p := range all {
		if !p.Valid() {
			return errors.Errorf("pin %d out of range (board has %d pins)", p, pins.PinCount)
		}
		if seen[p] {
			return errors.Errorf("pin %d assigned twice", p)
		}
		seen[p] = true
	}

	if l.ServoInitial > pins.MaxAngle {
		return errors.Errorf("servo initial angle %d above %d", l.ServoInitial, pins.MaxAngle)
	}

	return nil
}

// EnableDefinitions is the configuration sent at startup.
func (l Layout) EnableDefinitions() []pins.Definition {
	defs := []pins.Definition{{Pin: l.LedPin, Mode: pins.DigitalOut, State: pins.Low}}
	for _, p := range l.PwmPins {
		defs = append(defs, pins.Definition{Pin: p, Mode: pins.Pwm, State: 0})
	}
	return append(defs,
		pins.Definition{Pin: l.ControlPin, Mode: pins.Analog, State: pins.Low},
		pins.Definition{Pin: l.ServoPin, Mode: pins.Servo, State: l.ServoInitial},
	)
}

// DisableDefinitions releases the pins on shutdown. PWM pins stay in PWM mode driven at full duty.
func (l Layout) DisableDefinitions() []pins.Definition {
	defs := []pins.Definition{{Pin: l.LedPin, Mode: pins.Disabled, State: pins.Low}}
	for _, p := range l.PwmPins {
		defs = append(defs, pins.Definition{Pin: p, Mode: pins.Pwm, State: pins.MaxPwm})
	}
	return append(defs,
		pins.Definition{Pin: l.ControlPin, Mode: pins.Disabled, State: pins.Low},
		pins.Definition{Pin: l.ServoPin, Mode: pins.Disabled, State: pins.Low},
	)
}
