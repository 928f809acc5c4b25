package control

import (
	"iter"
	"os"

	"github.com/charmbracelet/log"

	"github.com/hubertat/poark/pins"
)

// ReadingObserver gets every reading the board reports, e.g. to record it.
// It is called from the mqtt receive path and must not block.
type ReadingObserver interface {
	ObserveReading(pins.Reading)
}

type Feedback struct {
	ControlPin pins.PinId
	Target     *Target
	Observer   ReadingObserver

	Logger *log.Logger
}

func NewFeedback(controlPin pins.PinId, target *Target) *Feedback {
	return &Feedback{
		ControlPin: controlPin,
		Target:     target,
		Logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "Feedback: ",
			Level:  log.GetLevel(),
		}),
	}
}

// AngleFromReading maps a 10 bit analog reading onto the servo range, truncating like the firmware does.
func AngleFromReading(raw uint16) uint8 {
	if raw > pins.MaxReading {
		raw = pins.MaxReading
	}
	return uint8(uint32(raw) * pins.MaxAngle / pins.ReadingScale)
}

// OnReadings updates the target from control pin readings, the last one in the batch wins.
func (fb *Feedback) OnReadings(readings iter.Seq[pins.Reading]) {
	for r := range readings {
		fb.Logger.Debug("pin reading", "pin", r.Pin, "value", r.Value)

		if fb.Observer != nil {
			fb.Observer.ObserveReading(r)
		}

		if r.Pin != uint16(fb.ControlPin) {
			continue
		}

		fb.Target.Set(AngleFromReading(r.Value))
	}
}
