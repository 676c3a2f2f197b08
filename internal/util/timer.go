package util

import "time"

// Timer measures elapsed time and records named stage laps.
type Timer struct {
	start time.Time
	last  time.Time
	laps  []Lap
}

// Lap is the duration of one named stage.
type Lap struct {
	Stage string `json:"stage"`
	Ms    int64  `json:"ms"`
}

// StartTimer creates a new timer starting at current time.
func StartTimer() *Timer {
	now := time.Now()
	return &Timer{start: now, last: now}
}

// Lap closes the current stage under name and starts the next one.
func (t *Timer) Lap(name string) {
	if t == nil || t.start.IsZero() {
		return
	}
	now := time.Now()
	t.laps = append(t.laps, Lap{Stage: name, Ms: now.Sub(t.last).Milliseconds()})
	t.last = now
}

// Laps returns a copy of the recorded stages in order.
func (t *Timer) Laps() []Lap {
	if t == nil {
		return nil
	}
	return append([]Lap(nil), t.laps...)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t *Timer) ElapsedMs() int64 {
	if t == nil || t.start.IsZero() {
		return 0
	}
	return time.Since(t.start).Milliseconds()
}
