package drivers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hubertat/poark/control"
)

type staticStatus struct {
	status control.Status
}

func (ss *staticStatus) Status() control.Status {
	return ss.status
}

func newTestHttpControl(target *control.Target) *HttpControl {
	return &HttpControl{
		Token:  "s3cret",
		status: &staticStatus{control.Status{Phase: "running", Ticks: 42, ServoAngle: 90}},
		target: target,
	}
}

func TestHttpControlStatus(t *testing.T) {
	hc := newTestHttpControl(control.NewTarget(90))
	handler := hc.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/token/s3cret", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status code %d want %d", rec.Code, http.StatusOK)
	}

	status := control.Status{}
	err := json.NewDecoder(rec.Body).Decode(&status)
	if err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Ticks != 42 || status.Phase != "running" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestHttpControlTokenMismatch(t *testing.T) {
	hc := newTestHttpControl(control.NewTarget(90))
	handler := hc.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/token/wrong", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status code %d want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servo/10/token/wrong", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status code %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHttpControlServo(t *testing.T) {
	target := control.NewTarget(90)
	_, rev, _ := target.Pending()
	target.Consume(rev)

	hc := newTestHttpControl(target)
	handler := hc.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servo/135/token/s3cret", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("got status code %d want %d", rec.Code, http.StatusAccepted)
	}

	angle, dirty := target.Snapshot()
	if angle != 135 || !dirty {
		t.Errorf("got angle %d dirty %v want 135 dirty true", angle, dirty)
	}

	for _, bad := range []string{"181", "-1", "left"} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servo/"+bad+"/token/s3cret", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("angle %s: got status code %d want %d", bad, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestHttpControlSetupRequiresToken(t *testing.T) {
	hc := &HttpControl{HttpAddr: "127.0.0.1:0"}
	err := hc.Setup(&staticStatus{}, control.NewTarget(90))
	if err == nil {
		t.Error("got nil error without token")
	}
}

func TestHttpControlNotReadyAfterClose(t *testing.T) {
	hc := &HttpControl{Token: "s3cret", HttpAddr: "127.0.0.1:0"}
	err := hc.Setup(&staticStatus{}, control.NewTarget(90))
	if err != nil {
		t.Fatalf("failed to setup http control: %v", err)
	}
	if !hc.IsReady() {
		t.Error("http control not ready after Setup")
	}

	hc.Close()
	select {
	case err = <-hc.Err():
		if err != http.ErrServerClosed {
			t.Errorf("got server error %v want %v", err, http.ErrServerClosed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after Close")
	}

	if hc.IsReady() {
		t.Error("http control ready after the server stopped")
	}
}
