package drivers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/mqtt"
	"github.com/hubertat/poark/pins"
)

const mockBoardDriverName = "mock_board"

// MockBoard keeps every payload the loop would publish and lets callers inject readings
// as if they came from the board.
type MockBoard struct {
	FailPublish bool

	lock     sync.Mutex
	modes    [][]byte
	states   [][]byte
	listener ReadingsListener
	table    pinTable
	ready    bool

	writeTo      io.Writer
	writeChanges bool
}

func (mb *MockBoard) String() string {
	return mockBoardDriverName
}

func (mb *MockBoard) Setup(ctx context.Context, layout control.Layout) error {
	err := layout.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid pin layout")
	}
	mb.ready = true
	return nil
}

func (mb *MockBoard) SetMqtt(publisher mqtt.Publisher) []mqtt.MqttHandler {
	return nil
}

func (mb *MockBoard) SetListener(listener ReadingsListener) {
	mb.lock.Lock()
	defer mb.lock.Unlock()

	mb.listener = listener
}

func (mb *MockBoard) Close() error {
	return nil
}

func (mb *MockBoard) IsReady() bool {
	return mb.ready
}

func (mb *MockBoard) GetAllIo() (inputs []pins.PinId, outputs []pins.PinId) {
	return mb.table.split()
}

func (mb *MockBoard) SetPinsMode(defs []pins.Definition) error {
	if mb.FailPublish {
		return errors.New("mock publish failure")
	}
	payload := pins.EncodeDefinitions(defs)

	mb.lock.Lock()
	defer mb.lock.Unlock()

	mb.modes = append(mb.modes, payload)
	mb.table.apply(defs)
	if mb.writeChanges {
		fmt.Fprintf(mb.writeTo, "[set_pins_mode] % x %v\n", payload, defs)
	}
	return nil
}

func (mb *MockBoard) SetPinsState(states []pins.State) error {
	if mb.FailPublish {
		return errors.New("mock publish failure")
	}
	payload := pins.EncodeStates(states)

	mb.lock.Lock()
	defer mb.lock.Unlock()

	mb.states = append(mb.states, payload)
	if mb.writeChanges {
		fmt.Fprintf(mb.writeTo, "[set_pins_state] % x %v\n", payload, states)
	}
	return nil
}

// Feed passes readings through the wire encoding to the listener.
func (mb *MockBoard) Feed(readings []pins.Reading) {
	mb.lock.Lock()
	listener := mb.listener
	mb.lock.Unlock()

	if listener == nil {
		return
	}
	listener.OnReadings(pins.DecodeReadings(pins.EncodeReadings(readings)))
}

func (mb *MockBoard) ModePayloads() [][]byte {
	mb.lock.Lock()
	defer mb.lock.Unlock()

	return append([][]byte{}, mb.modes...)
}

func (mb *MockBoard) StatePayloads() [][]byte {
	mb.lock.Lock()
	defer mb.lock.Unlock()

	return append([][]byte{}, mb.states...)
}

func (mb *MockBoard) MonitorStateChanges(writer io.Writer) {
	mb.lock.Lock()
	defer mb.lock.Unlock()

	mb.writeTo = writer
	mb.writeChanges = true
}
