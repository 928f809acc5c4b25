package control

import "sync"

// Target is the servo angle requested by the feedback side and not yet sent to the board.
// Angle and dirty flag always change together under the lock.
type Target struct {
	mu    sync.Mutex
	angle uint8
	dirty bool
	rev   uint64
}

// NewTarget starts dirty, so the first tick moves the servo to the initial angle.
func NewTarget(initial uint8) *Target {
	return &Target{angle: initial, dirty: true, rev: 1}
}

func (t *Target) Set(angle uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.angle = angle
	t.dirty = true
	t.rev++
}

func (t *Target) Snapshot() (angle uint8, dirty bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.angle, t.dirty
}

// Pending returns the angle waiting to be sent and the revision to pass to Consume.
func (t *Target) Pending() (angle uint8, rev uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.angle, t.rev, t.dirty
}

// Consume clears the dirty flag if no Set happened since the matching Pending call.
func (t *Target) Consume(rev uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rev != rev {
		return false
	}
	t.dirty = false
	return true
}
