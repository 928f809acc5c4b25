package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hubertat/poark"
	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/drivers"
	"github.com/hubertat/poark/pins"
)

var (
	Version string
	Build   string
)

// sweep simulates the potentiometer on the control pin going back and forth.
func sweep(ctx context.Context, board *drivers.MockBoard, controlPin pins.PinId) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	value, step := 0, 64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value += step
			if value >= pins.MaxReading || value <= 0 {
				step = -step
				value = max(0, min(value, pins.MaxReading))
			}
			board.Feed([]pins.Reading{
				{Pin: uint16(controlPin), Value: uint16(value)},
				{Pin: 60, Value: uint16(pins.High)},
			})
		}
	}
}

func main() {
	log.Info("poark started", "version", Version)
	log.Info("mock instance for testing purposes, no broker needed")

	pk := &poark.Poark{
		Name:         "poark-mock",
		Mock:         true,
		TickInterval: "10ms",
		Loop:         control.LoopConfig{MaxTicks: 3000},
	}
	err := pk.ApplyDefaults()
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("will init poark drivers...")
	err = pk.InitDrivers(ctx)
	defer pk.Close()
	if err != nil {
		panic(err)
	}

	board := pk.Board().(*drivers.MockBoard)
	board.MonitorStateChanges(os.Stdout)

	go sweep(ctx, board, pk.Pins.ControlPin)

	reason, err := pk.Run(ctx)
	if err != nil {
		panic(err)
	}
	log.Info("loop stopped", "reason", reason)

	pk.PrintPinStatus(os.Stdout)
}
