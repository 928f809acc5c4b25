package pins

import (
	"strings"

	"github.com/pkg/errors"
)

// PinCount is the number of pins addressable on the board (Arduino Mega layout).
const PinCount = 70

const (
	Low  uint8 = 0
	High uint8 = 1
)

const (
	MaxAngle     = 180
	MaxPwm       = 255
	MaxReading   = 1023
	ReadingScale = 1024
)

// Default wiring of the demo board.
const (
	LedPin          PinId = 13
	ServoControlPin PinId = 54
	ServoPin        PinId = 7
	ServoCenter     uint8 = 90
)

var PwmPins = []PinId{8, 9, 10}

type PinId uint8

func (p PinId) Valid() bool {
	return int(p) < PinCount
}

// PinMode is the operating mode of a pin, values are the wire encoding used by the board server.
type PinMode uint8

const (
	DigitalOut     PinMode = 0x00
	DigitalIn      PinMode = 0x01
	Analog         PinMode = 0x02
	AnalogFiltered PinMode = 0x03
	Pwm            PinMode = 0x04
	Servo          PinMode = 0x05
	Disabled       PinMode = 0xff
)

var pinModeNames = map[PinMode]string{
	DigitalOut:     "DigitalOut",
	DigitalIn:      "DigitalIn",
	Analog:         "Analog",
	AnalogFiltered: "AnalogFiltered",
	Pwm:            "Pwm",
	Servo:          "Servo",
	Disabled:       "Disabled",
}

func (m PinMode) String() string {
	if name, ok := pinModeNames[m]; ok {
		return name
	}
	return "Unknown"
}

func (m PinMode) Valid() bool {
	_, ok := pinModeNames[m]
	return ok
}

func ParsePinMode(name string) (PinMode, error) {
	for mode, modeName := range pinModeNames {
		if strings.EqualFold(modeName, name) {
			return mode, nil
		}
	}
	return Disabled, errors.Errorf("unknown pin mode: %s", name)
}
