package scheduler

import (
	"testing"

	"github.com/cellforge/cellcore/kernel"
)

func tid(i uint32) kernel.ThreadID { return kernel.ThreadID{Kind: kernel.PPUThread, Index: i} }

// TestSchedulePicksHighestPriority exercises spec scenario S6.
func TestSchedulePicksHighestPriority(t *testing.T) {
	s := New()
	low := tid(1)
	high := tid(2)
	s.AddThread(low, 50)
	s.AddThread(high, 10)

	picked, ok := s.Schedule()
	if !ok || picked != high {
		t.Fatalf("Schedule() = %v, ok=%v, want %v", picked, ok, high)
	}
}

func TestScheduleRequeuesPreviousRunningThread(t *testing.T) {
	s := New()
	a := tid(1)
	b := tid(2)
	s.AddThread(a, 10)
	s.AddThread(b, 10)

	first, _ := s.Schedule()
	if first != a {
		t.Fatalf("first = %v, want %v", first, a)
	}
	second, _ := s.Schedule()
	if second != b {
		t.Fatalf("second = %v, want %v (a should requeue behind b at equal priority)", second, b)
	}
	third, _ := s.Schedule()
	if third != a {
		t.Fatalf("third = %v, want %v (b requeued, a comes back up)", third, a)
	}
}

func TestBlockedThreadIsNotRescheduledUntilWoken(t *testing.T) {
	s := New()
	a := tid(1)
	s.AddThread(a, 10)
	s.Schedule()
	s.Block(a)

	if _, ok := s.Schedule(); ok {
		t.Fatalf("expected no runnable thread while the only thread is blocked")
	}
	s.Wake(a)
	picked, ok := s.Schedule()
	if !ok || picked != a {
		t.Fatalf("Schedule() after wake = %v, ok=%v, want %v", picked, ok, a)
	}
}

func TestTimeSliceExpiryYieldsAndRequeues(t *testing.T) {
	s := New()
	a := tid(1)
	s.AddThread(a, 10)
	s.Schedule()

	s.UpdateTimeSlice(DefaultQuantum)
	if !s.TimeSliceExpired() {
		t.Fatalf("expected quantum to be exhausted")
	}
	s.YieldCurrent()
	if _, has := s.Current(); has {
		t.Fatalf("expected no current thread after yield")
	}
	picked, ok := s.Schedule()
	if !ok || picked != a {
		t.Fatalf("rescheduled = %v, ok=%v, want %v", picked, ok, a)
	}
}

func TestStopRemovesThreadFromScheduling(t *testing.T) {
	s := New()
	a := tid(1)
	s.AddThread(a, 10)
	s.Schedule()
	s.Stop(a)

	state, ok := s.StateOf(a)
	if !ok || state != Stopped {
		t.Fatalf("state = %v, ok=%v, want Stopped", state, ok)
	}
	if _, has := s.Current(); has {
		t.Fatalf("expected no current thread after stop")
	}
}
