package poark

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/drivers"
	"github.com/hubertat/poark/mqtt"
)

const disconnectTimeout = 5 * time.Second

type Poark struct {
	Name     string
	LogLevel string

	MqttBroker string
	ClientId   string

	ModeTopic     string
	StateTopic    string
	ReadingsTopic string

	TickInterval string
	Loop         control.LoopConfig
	Pins         *control.Layout

	// Mock runs against an in-memory board instead of the mqtt one.
	Mock bool

	Influx *drivers.InfluxRecorder
	Http   *drivers.HttpControl

	board      drivers.BoardDriver
	mqttClient *mqtt.MqttClient
	target     *control.Target
	feedback   *control.Feedback
	loop       *control.Loop
}

func (pk *Poark) InitDrivers(ctx context.Context) error {
	if pk.Pins == nil {
		err := pk.ApplyDefaults()
		if err != nil {
			return err
		}
	}

	err := pk.Pins.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid Pins")
	}
	err = pk.Loop.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid Loop")
	}

	if pk.Mock {
		pk.board = &drivers.MockBoard{}
	} else {
		pk.board = &drivers.PoarkBoard{
			ModeTopic:     pk.ModeTopic,
			StateTopic:    pk.StateTopic,
			ReadingsTopic: pk.ReadingsTopic,
		}
	}

	err = pk.board.Setup(ctx, *pk.Pins)
	if err != nil {
		return errors.Wrapf(err, "failed to setup %s driver", pk.board)
	}

	pk.target = control.NewTarget(pk.Pins.ServoInitial)
	pk.feedback = control.NewFeedback(pk.Pins.ControlPin, pk.target)
	pk.board.SetListener(pk.feedback)

	if pk.Influx != nil {
		err = pk.Influx.Setup(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to setup %s driver", pk.Influx)
		}
		pk.feedback.Observer = pk.Influx
	}

	pk.loop = control.NewLoop(pk.Loop, *pk.Pins, pk.board, pk.target)

	if pk.Http != nil {
		err = pk.Http.Setup(pk.loop, pk.target)
		if err != nil {
			return errors.Wrapf(err, "failed to setup %s driver", pk.Http)
		}
	}

	return nil
}

func (pk *Poark) InitMqtt() (err error) {
	if pk.board == nil {
		return errors.New("drivers not initialized")
	}

	if pk.Mock {
		log.Info("mock board, skipping mqtt")
		return
	}

	if len(pk.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	mc, err := mqtt.NewMqttClient(pk.MqttBroker, pk.ClientId)
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	pk.mqttClient = mc
	handlers := []mqtt.MqttHandler{}
	handlers = append(handlers, pk.board.SetMqtt(mc)...)

	err = mc.Connect(handlers)
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
	}

	return
}

// Run blocks until ctx is cancelled or the loop reaches its tick ceiling.
// The board pins are released before it returns.
func (pk *Poark) Run(ctx context.Context) (control.StopReason, error) {
	if pk.loop == nil {
		return "", errors.New("drivers not initialized")
	}

	pacer := control.NewTickerPacer(pk.loop.Config().Interval)
	defer pacer.Stop()

	return pk.loop.Run(ctx, pacer), nil
}

func (pk *Poark) Board() drivers.BoardDriver {
	return pk.board
}

func (pk *Poark) Status() control.Status {
	if pk.loop == nil {
		return control.Status{}
	}
	return pk.loop.Status()
}

func (pk *Poark) Close() (err error) {
	appendErr := func(closeErr error) {
		if closeErr == nil {
			return
		}
		if err == nil {
			err = closeErr
			return
		}
		err = errors.Wrap(err, closeErr.Error())
	}

	if pk.Http != nil {
		appendErr(pk.Http.Close())
	}
	// readings stop arriving once mqtt is down, the recorder goes last
	if pk.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		appendErr(pk.mqttClient.Disconnect(ctx))
	}
	if pk.board != nil {
		appendErr(pk.board.Close())
	}
	if pk.Influx != nil {
		appendErr(pk.Influx.Close())
	}

	return
}

func (pk *Poark) PrintPinStatus(writer io.Writer) {
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== poark board ===")
	if pk.board == nil {
		fmt.Fprintln(writer, "| no board driver")
		fmt.Fprintln(writer, "-----------------------------")
		return
	}

	fmt.Fprintf(writer, "| driver: %s\n", pk.board)
	inputs, outputs := pk.board.GetAllIo()
	fmt.Fprintf(writer, "| in pins: ")
	for _, inpin := range inputs {
		fmt.Fprintf(writer, "%d, ", inpin)
	}
	fmt.Fprintf(writer, "\n| out pins: ")
	for _, outpin := range outputs {
		fmt.Fprintf(writer, "%d, ", outpin)
	}
	fmt.Fprintln(writer)

	status := pk.Status()
	fmt.Fprintf(writer, "| phase: %s ticks: %d servo: %d (dirty: %v)\n", status.Phase, status.Ticks, status.ServoAngle, status.ServoDirty)
	fmt.Fprintf(writer, "| sent: %d mode, %d state, %d errors\n", status.ModeMessages, status.StateMessages, status.PublishErrors)
	fmt.Fprintln(writer, "-----------------------------")
	fmt.Fprintln(writer)
}
