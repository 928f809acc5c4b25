package drivers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/pins"
)

const httpTimeoutsMs = 3000

type StatusProvider interface {
	Status() control.Status
}

// HttpControl serves the loop status and accepts manual servo angles.
type HttpControl struct {
	Token    string
	HttpAddr string

	status StatusProvider
	target *control.Target
	ready  atomic.Bool
	server *http.Server

	serverErr chan error
}

func (hc *HttpControl) String() string {
	return "http_control"
}

func (hc *HttpControl) IsReady() bool {
	return hc.ready.Load()
}

func (hc *HttpControl) Close() error {
	if hc.server == nil {
		return nil
	}
	return hc.server.Close()
}

func (hc *HttpControl) Handler() http.Handler {
	handler := httprouter.New()
	handler.GET("/status/token/:token", hc.handleStatus)
	handler.GET("/servo/:angle/token/:token", hc.handleServo)

	return handler
}

func (hc *HttpControl) Setup(status StatusProvider, target *control.Target) error {
	if len(hc.Token) == 0 {
		return errors.New("http control requires a token")
	}

	hc.status = status
	hc.target = target

	httpTimeout := httpTimeoutsMs * time.Millisecond

	hc.server = &http.Server{
		Addr:              hc.HttpAddr,
		Handler:           hc.Handler(),
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	hc.serverErr = make(chan error, 1)

	hc.ready.Store(true)
	go func() {
		err := hc.server.ListenAndServe()
		hc.ready.Store(false)
		hc.serverErr <- err
	}()

	return nil
}

func (hc *HttpControl) Err() <-chan error {
	return hc.serverErr
}

func (hc *HttpControl) checkToken(w http.ResponseWriter, p httprouter.Params) bool {
	if !strings.EqualFold(p.ByName("token"), hc.Token) {
		http.Error(w, "token mismatch", http.StatusUnauthorized)
		return false
	}
	return true
}

func (hc *HttpControl) handleStatus(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !hc.checkToken(w, p) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(hc.status.Status())
}

func (hc *HttpControl) handleServo(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !hc.checkToken(w, p) {
		return
	}

	angle, err := strconv.Atoi(p.ByName("angle"))
	if err != nil || angle < 0 || angle > pins.MaxAngle {
		http.Error(w, "angle must be a number between 0 and 180", http.StatusBadRequest)
		return
	}

	hc.target.Set(uint8(angle))
	w.WriteHeader(http.StatusAccepted)
}
