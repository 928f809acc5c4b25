package pins

import (
	"encoding/binary"
	"fmt"
	"iter"
)

const (
	definitionSize = 3
	stateSize      = 2
	readingSize    = 4
)

// Definition configures a single pin, sent on the set_pins_mode topic.
type Definition struct {
	Pin   PinId
	Mode  PinMode
	State uint8
}

func (d Definition) String() string {
	return fmt.Sprintf("pin(%d) mode(%s) state(%d)", d.Pin, d.Mode, d.State)
}

// State sets the output value of a configured pin, sent on the set_pins_state topic.
type State struct {
	Pin   PinId
	Value uint8
}

func (s State) String() string {
	return fmt.Sprintf("pin(%d) value(%d)", s.Pin, s.Value)
}

// Reading is a pin value reported by the board on the pins topic.
// Analog pins report 10 bit values, so both fields are 16 bit wide.
type Reading struct {
	Pin   uint16
	Value uint16
}

func (r Reading) String() string {
	return fmt.Sprintf("pin(%d) reading(%d)", r.Pin, r.Value)
}

// EncodeDefinitions panics on invalid pin id or mode.
func EncodeDefinitions(defs []Definition) []byte {
	b := make([]byte, 0, len(defs)*definitionSize)
	for _, d := range defs {
		if !d.Pin.Valid() {
			panic(fmt.Sprintf("pins: definition with pin id out of range: %d", d.Pin))
		}
		if !d.Mode.Valid() {
			panic(fmt.Sprintf("pins: definition with unknown mode: %d", uint8(d.Mode)))
		}
		b = append(b, uint8(d.Pin), uint8(d.Mode), d.State)
	}
	return b
}

// EncodeStates panics on invalid pin id.
func EncodeStates(states []State) []byte {
	b := make([]byte, 0, len(states)*stateSize)
	for _, s := range states {
		if !s.Pin.Valid() {
			panic(fmt.Sprintf("pins: state with pin id out of range: %d", s.Pin))
		}
		b = append(b, uint8(s.Pin), s.Value)
	}
	return b
}

// DecodeReadings walks payload as little endian uint16 (pin, value) pairs.
// A trailing incomplete pair is dropped.
func DecodeReadings(payload []byte) iter.Seq[Reading] {
	return func(yield func(Reading) bool) {
		for i := 0; i+readingSize <= len(payload); i += readingSize {
			r := Reading{
				Pin:   binary.LittleEndian.Uint16(payload[i:]),
				Value: binary.LittleEndian.Uint16(payload[i+2:]),
			}
			if !yield(r) {
				return
			}
		}
	}
}

func EncodeReadings(readings []Reading) []byte {
	b := make([]byte, 0, len(readings)*readingSize)
	for _, r := range readings {
		b = binary.LittleEndian.AppendUint16(b, r.Pin)
		b = binary.LittleEndian.AppendUint16(b, r.Value)
	}
	return b
}
