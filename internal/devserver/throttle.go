// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package devserver

import (
	"sync"
	"time"
)

// Failed-password thresholds per account.
const (
	// RobotThreshold is the failure count from which wrong passwords are
	// answered with the robot hint.
	RobotThreshold = 4

	// LockoutThreshold is the failure count that locks the account.
	LockoutThreshold = 7

	// LockoutDuration is how long a locked account answers with the
	// suspicion hint, whatever password is sent.
	LockoutDuration = 15 * time.Minute
)

type failureRecord struct {
	failures    int
	lockedUntil time.Time
}

// throttle counts consecutive password failures per account id.
type throttle struct {
	now func() time.Time

	mu      sync.Mutex
	records map[string]*failureRecord
}

func newThrottle(now func() time.Time) *throttle {
	if now == nil {
		now = time.Now
	}
	return &throttle{now: now, records: make(map[string]*failureRecord)}
}

// lockedOut reports whether id is locked and for how much longer.
// An expired lock is cleared along with its failure count.
func (t *throttle) lockedOut(id string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok || rec.lockedUntil.IsZero() {
		return false, 0
	}
	if remaining := rec.lockedUntil.Sub(t.now()); remaining > 0 {
		return true, remaining
	}
	delete(t.records, id)
	return false, 0
}

// fail records a failure and returns the new count. Reaching
// LockoutThreshold starts a lockout.
func (t *throttle) fail(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		rec = &failureRecord{}
		t.records[id] = rec
	}
	rec.failures++
	if rec.failures >= LockoutThreshold {
		rec.lockedUntil = t.now().Add(LockoutDuration)
	}
	return rec.failures
}

// reset forgets id's failures after a successful login.
func (t *throttle) reset(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, id)
}
