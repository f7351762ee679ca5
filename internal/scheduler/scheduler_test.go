package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls   atomic.Int32
	maxIdle atomic.Int64
}

func (f *fakeExpirer) ExpireIdle(maxIdle time.Duration) int {
	f.calls.Add(1)
	f.maxIdle.Store(int64(maxIdle))
	return 1
}

func TestSweepInterval(t *testing.T) {
	tests := []struct {
		maxIdle time.Duration
		want    time.Duration
	}{
		{maxIdle: 2 * time.Hour, want: time.Minute},
		{maxIdle: 5 * time.Minute, want: 30 * time.Second},
		{maxIdle: 0, want: time.Minute},
	}

	for _, tt := range tests {
		if got := New(&fakeExpirer{}, tt.maxIdle).interval; got != tt.want {
			t.Errorf("New(%v).interval = %v, want %v", tt.maxIdle, got, tt.want)
		}
	}
}

func TestStartRunsSweep(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, 2*time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for expirer.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweep did not run after Start()")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := time.Duration(expirer.maxIdle.Load()); got != 2*time.Hour {
		t.Errorf("ExpireIdle called with %v, want 2h", got)
	}
}
