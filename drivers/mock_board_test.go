package drivers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/pins"
)

func TestMockBoardSetup(t *testing.T) {
	mb := MockBoard{}

	if mb.IsReady() {
		t.Error("mock board ready before Setup")
	}

	mb.Setup(context.Background(), control.DefaultLayout())
	if !mb.IsReady() {
		t.Error("mock board not ready after Setup")
	}
}

func TestMockBoardRecordsPayloads(t *testing.T) {
	mb := &MockBoard{}
	mb.Setup(context.Background(), control.DefaultLayout())

	var out bytes.Buffer
	mb.MonitorStateChanges(&out)

	mb.SetPinsMode([]pins.Definition{{Pin: 13, Mode: pins.DigitalOut, State: pins.Low}})
	mb.SetPinsState([]pins.State{{Pin: 13, Value: pins.High}})

	modes := mb.ModePayloads()
	if len(modes) != 1 || !bytes.Equal(modes[0], []byte{13, 0, 0}) {
		t.Errorf("unexpected mode payloads: %v", modes)
	}
	states := mb.StatePayloads()
	if len(states) != 1 || !bytes.Equal(states[0], []byte{13, 1}) {
		t.Errorf("unexpected state payloads: %v", states)
	}

	if !strings.Contains(out.String(), "[set_pins_state] 0d 01") {
		t.Errorf("monitor output missing state change:\n%s", out.String())
	}
}

func TestMockBoardFailPublish(t *testing.T) {
	mb := &MockBoard{FailPublish: true}

	if err := mb.SetPinsState([]pins.State{{Pin: 13, Value: 1}}); err == nil {
		t.Error("got nil error with FailPublish")
	}
	if len(mb.StatePayloads()) != 0 {
		t.Error("failed publish recorded")
	}
}

func TestMockBoardFeed(t *testing.T) {
	mb := &MockBoard{}
	listener := &collectingListener{}

	mb.Feed([]pins.Reading{{Pin: 54, Value: 1}})

	mb.SetListener(listener)
	mb.Feed([]pins.Reading{{Pin: 54, Value: 1023}, {Pin: 60, Value: 1}})

	if len(listener.readings) != 2 {
		t.Fatalf("got %d readings want 2", len(listener.readings))
	}
	if listener.readings[0].Value != 1023 {
		t.Errorf("got %d want 1023", listener.readings[0].Value)
	}
}
