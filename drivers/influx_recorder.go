package drivers

import (
	"context"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"

	"github.com/hubertat/poark/pins"
)

const influxRecorderName = "influx_recorder"
const defaultReadingsMeasurement = "poark_pins"

type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
	Errors() <-chan error
}

// InfluxRecorder stores board readings in InfluxDB. Writes are batched by the client
// so ObserveReading never waits on the network.
type InfluxRecorder struct {
	Host         string
	Organization string
	Bucket       string
	Measurement  string
	Token        string

	// Pins limits recording to the listed pins, all pins when empty.
	Pins []pins.PinId

	client influxdb2.Client
	logger *log.Logger

	lock   sync.Mutex
	writer pointWriter
	ready  bool
}

func (ir *InfluxRecorder) String() string {
	return influxRecorderName
}

func (ir *InfluxRecorder) Setup(ctx context.Context) error {
	if len(ir.Host) == 0 || len(ir.Bucket) == 0 {
		return errors.New("influx recorder needs Host and Bucket")
	}
	if len(ir.Measurement) == 0 {
		ir.Measurement = defaultReadingsMeasurement
	}

	ir.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "InfluxRecorder: ",
		Level:  log.GetLevel(),
	})

	ir.client = influxdb2.NewClient(ir.Host, ir.Token)
	writer := ir.client.WriteAPI(ir.Organization, ir.Bucket)

	// the client blocks on an unread error, so the channel is drained until Close shuts it
	go ir.logErrors(writer.Errors())

	ir.lock.Lock()
	ir.writer = writer
	ir.ready = true
	ir.lock.Unlock()

	return nil
}

func (ir *InfluxRecorder) logErrors(errs <-chan error) {
	for err := range errs {
		ir.logger.Error("failed to write readings", "err", err)
	}
}

func (ir *InfluxRecorder) IsReady() bool {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	return ir.ready
}

func (ir *InfluxRecorder) Close() error {
	ir.lock.Lock()
	if !ir.ready {
		ir.lock.Unlock()
		return nil
	}
	ir.ready = false
	writer := ir.writer
	ir.lock.Unlock()

	writer.Flush()
	if ir.client != nil {
		ir.client.Close()
	}
	return nil
}

func (ir *InfluxRecorder) readingPoint(r pins.Reading, ts time.Time) *write.Point {
	return influxdb2.NewPoint(
		ir.Measurement,
		map[string]string{"pin": strconv.Itoa(int(r.Pin))},
		map[string]interface{}{"value": int(r.Value)},
		ts,
	)
}

func (ir *InfluxRecorder) ObserveReading(r pins.Reading) {
	if r.Pin >= pins.PinCount {
		return
	}
	if len(ir.Pins) > 0 && !slices.Contains(ir.Pins, pins.PinId(r.Pin)) {
		return
	}

	ir.lock.Lock()
	defer ir.lock.Unlock()

	if !ir.ready {
		return
	}
	ir.writer.WritePoint(ir.readingPoint(r, time.Now()))
}
