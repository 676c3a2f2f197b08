package util

import "testing"

func TestTimerLaps(t *testing.T) {
	timer := StartTimer()
	timer.Lap("score")
	timer.Lap("select")

	laps := timer.Laps()
	if len(laps) != 2 {
		t.Fatalf("expected 2 laps got %d", len(laps))
	}
	if laps[0].Stage != "score" || laps[1].Stage != "select" {
		t.Fatalf("unexpected lap order %+v", laps)
	}
	laps[0].Stage = "mutated"
	if timer.Laps()[0].Stage != "score" {
		t.Fatalf("laps must be copied")
	}
	if timer.ElapsedMs() < 0 {
		t.Fatalf("negative elapsed time")
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	timer.Lap("noop")
	if timer.Laps() != nil || timer.ElapsedMs() != 0 {
		t.Fatalf("nil timer should be inert")
	}
}
