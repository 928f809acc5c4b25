package drivers

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/mqtt"
	"github.com/hubertat/poark/pins"
)

// BoardDriver is a remote board the sync loop can drive.
type BoardDriver interface {
	control.Board
	Setup(ctx context.Context, layout control.Layout) error
	SetMqtt(publisher mqtt.Publisher) []mqtt.MqttHandler
	SetListener(listener ReadingsListener)
	Close() error
	String() string
	IsReady() bool
	GetAllIo() (inputs []pins.PinId, outputs []pins.PinId)
}

func MapAllBoardDrivers() map[string]BoardDriver {
	drivers := []BoardDriver{
		&PoarkBoard{},
		&MockBoard{},
	}

	mapped := make(map[string]BoardDriver)
	for _, driver := range drivers {
		mapped[driver.String()] = driver
	}
	return mapped
}

type ReadingsListener interface {
	OnReadings(readings iter.Seq[pins.Reading])
}

// pinTable tracks the modes last sent to the board.
type pinTable struct {
	lock sync.Mutex
	defs map[pins.PinId]pins.Definition
}

func (pt *pinTable) apply(defs []pins.Definition) {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	if pt.defs == nil {
		pt.defs = make(map[pins.PinId]pins.Definition)
	}
	for _, d := range defs {
		if d.Mode == pins.Disabled {
			delete(pt.defs, d.Pin)
			continue
		}
		pt.defs[d.Pin] = d
	}
}

func (pt *pinTable) split() (inputs []pins.PinId, outputs []pins.PinId) {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	for pin, d := range pt.defs {
		switch d.Mode {
		case pins.DigitalIn, pins.Analog, pins.AnalogFiltered:
			inputs = append(inputs, pin)
		default:
			outputs = append(outputs, pin)
		}
	}
	slices.Sort(inputs)
	slices.Sort(outputs)

	return
}
