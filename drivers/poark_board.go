package drivers

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/mqtt"
	"github.com/hubertat/poark/pins"
)

const poarkBoardDriverName = "poark"

const (
	DefaultModeTopic     = "set_pins_mode"
	DefaultStateTopic    = "set_pins_state"
	DefaultReadingsTopic = "pins"
)

// PoarkBoard talks to the Poark board server through three topics: pin modes and pin states
// go out as flat byte payloads, pin readings come back as uint16 pairs.
type PoarkBoard struct {
	ModeTopic     string
	StateTopic    string
	ReadingsTopic string

	publisher mqtt.Publisher
	listener  ReadingsListener
	table     pinTable
	ready     bool
	logger    *log.Logger
}

func (pb *PoarkBoard) String() string {
	return poarkBoardDriverName
}

func (pb *PoarkBoard) Setup(ctx context.Context, layout control.Layout) error {
	err := layout.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid pin layout")
	}

	if len(pb.ModeTopic) == 0 {
		pb.ModeTopic = DefaultModeTopic
	}
	if len(pb.StateTopic) == 0 {
		pb.StateTopic = DefaultStateTopic
	}
	if len(pb.ReadingsTopic) == 0 {
		pb.ReadingsTopic = DefaultReadingsTopic
	}

	pb.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "PoarkBoard: ",
		Level:  log.GetLevel(),
	})

	pb.ready = true
	return nil
}

func (pb *PoarkBoard) SetMqtt(publisher mqtt.Publisher) []mqtt.MqttHandler {
	pb.publisher = publisher
	return []mqtt.MqttHandler{pb}
}

func (pb *PoarkBoard) SetListener(listener ReadingsListener) {
	pb.listener = listener
}

func (pb *PoarkBoard) Close() error {
	pb.ready = false
	return nil
}

func (pb *PoarkBoard) IsReady() bool {
	return pb.ready
}

func (pb *PoarkBoard) GetAllIo() (inputs []pins.PinId, outputs []pins.PinId) {
	return pb.table.split()
}

func (pb *PoarkBoard) publish(topic string, payload []byte, queued bool) error {
	if !pb.ready {
		return errors.Errorf("%s board not ready", pb)
	}
	if pb.publisher == nil {
		return errors.Errorf("%s board has no mqtt publisher", pb)
	}

	qp, canQueue := pb.publisher.(mqtt.QueuedPublisher)
	if queued && canQueue {
		return qp.PublishQueued(topic, payload)
	}
	return pb.publisher.Publish(topic, payload)
}

// SetPinsMode waits for the broker to take the message, configuration is sent only
// at startup and shutdown and the shutdown message must leave before disconnecting.
func (pb *PoarkBoard) SetPinsMode(defs []pins.Definition) error {
	err := pb.publish(pb.ModeTopic, pins.EncodeDefinitions(defs), false)
	if err != nil {
		return errors.Wrap(err, "failed to publish pins mode")
	}

	pb.table.apply(defs)
	return nil
}

func (pb *PoarkBoard) SetPinsState(states []pins.State) error {
	err := pb.publish(pb.StateTopic, pins.EncodeStates(states), true)
	if err != nil {
		return errors.Wrap(err, "failed to publish pins state")
	}
	return nil
}

func (pb *PoarkBoard) MqttSubscribeTopic() string {
	return pb.ReadingsTopic
}

func (pb *PoarkBoard) MqttHandle(pub *paho.Publish) {
	if len(pub.Payload)%4 != 0 && pb.logger != nil {
		pb.logger.Debug("readings payload with incomplete pair", "bytes", len(pub.Payload))
	}

	if pb.listener == nil {
		return
	}
	pb.listener.OnReadings(pins.DecodeReadings(pub.Payload))
}
