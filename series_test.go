package robotloop

import (
	"sync"
	"testing"
	"time"
)

func TestSeriesAppendAssignsSequentialIndices(t *testing.T) {
	s := NewSeries[int](10)

	for i := 0; i < 5; i++ {
		idx, err := s.Append(i * 10)
		if err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
		if idx != TimeIndex(i) {
			t.Fatalf("Append(%d) assigned index %d, want %d", i, idx, i)
		}
	}
}

func TestSeriesGetReturnsExactlyWhatWasAppended(t *testing.T) {
	s := NewSeries[string](10)

	for i, v := range []string{"a", "b", "c"} {
		if _, err := s.Append(v); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	for i, want := range []string{"a", "b", "c"} {
		got, err := s.Get(TimeIndex(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %q, want %q", i, got, want)
		}
	}
}

// TestSeriesEvictionAfterOverflow mirrors the concrete eviction scenario:
// H=4, append 6 elements valued 0..5.
func TestSeriesEvictionAfterOverflow(t *testing.T) {
	s := NewSeries[int](4)

	for v := 0; v <= 5; v++ {
		if _, err := s.Append(v); err != nil {
			t.Fatalf("Append(%d) failed: %v", v, err)
		}
	}

	for _, i := range []TimeIndex{0, 1} {
		if _, err := s.Get(i); err != ErrEvicted {
			t.Errorf("Get(%d) = %v, want ErrEvicted", i, err)
		}
	}

	for i := TimeIndex(2); i <= 5; i++ {
		got, err := s.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != int(i) {
			t.Errorf("Get(%d) = %d, want %d", i, got, i)
		}
	}

	newest, ok := s.NewestIndex()
	if !ok || newest != 5 {
		t.Errorf("NewestIndex() = (%d, %v), want (5, true)", newest, ok)
	}
}

func TestSeriesGetBlocksUntilAppended(t *testing.T) {
	s := NewSeries[int](10)

	var wg sync.WaitGroup
	wg.Add(1)

	resultCh := make(chan int, 1)
	go func() {
		defer wg.Done()
		v, err := s.Get(2)
		if err != nil {
			t.Errorf("Get(2) failed: %v", err)
			return
		}
		resultCh <- v
	}()

	time.Sleep(20 * time.Millisecond)
	s.Append(0)
	s.Append(1)
	s.Append(42)

	wg.Wait()
	select {
	case got := <-resultCh:
		if got != 42 {
			t.Errorf("Get(2) = %d, want 42", got)
		}
	default:
		t.Fatal("Get(2) returned without a result")
	}
}

func TestSeriesWaitForTimeIndexTimesOutWithoutPanicking(t *testing.T) {
	s := NewSeries[int](10)
	s.Append(0)
	s.Append(1)
	s.Append(2)

	start := time.Now()
	ok := s.WaitForTimeIndex(10, 50*time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Error("WaitForTimeIndex(10, 50ms) = true, want false")
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("WaitForTimeIndex took %v, want close to the 50ms timeout", elapsed)
	}
}

func TestSeriesWaitForTimeIndexSucceedsOnLateAppend(t *testing.T) {
	s := NewSeries[int](10)

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Append(1)
	}()

	if !s.WaitForTimeIndex(0, time.Second) {
		t.Error("WaitForTimeIndex(0, 1s) = false, want true")
	}
}

func TestSeriesShutdownWakesBlockedReaders(t *testing.T) {
	s := NewSeries[int](10)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Get(0)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown()

	select {
	case err := <-errCh:
		if err != ErrShuttingDown {
			t.Errorf("Get(0) after Shutdown() = %v, want ErrShuttingDown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Get(0) did not return after Shutdown()")
	}

	if _, err := s.Append(1); err != ErrShuttingDown {
		t.Errorf("Append after Shutdown() = %v, want ErrShuttingDown", err)
	}
}

func TestSeriesNewestElementFailsOnEmptySeries(t *testing.T) {
	s := NewSeries[int](10)
	if _, err := s.NewestElement(); err != ErrEmpty {
		t.Errorf("NewestElement() on empty series = %v, want ErrEmpty", err)
	}
}

func TestSeriesTryGetDistinguishesNotYetProducedFromEvicted(t *testing.T) {
	s := NewSeries[int](2)
	s.Append(0)
	s.Append(1)
	s.Append(2)

	if _, err := s.TryGet(0); err != ErrEvicted {
		t.Errorf("TryGet(0) = %v, want ErrEvicted", err)
	}
	if _, err := s.TryGet(5); err != ErrNotYetProduced {
		t.Errorf("TryGet(5) = %v, want ErrNotYetProduced", err)
	}
	v, err := s.TryGet(2)
	if err != nil || v != 2 {
		t.Errorf("TryGet(2) = (%d, %v), want (2, nil)", v, err)
	}
}

func TestSeriesTimestampsAreNonDecreasing(t *testing.T) {
	s := NewSeries[int](10)
	for i := 0; i < 5; i++ {
		s.Append(i)
		time.Sleep(time.Millisecond)
	}

	var prev float64
	for i := TimeIndex(0); i < 5; i++ {
		ts, err := s.TimestampMS(i)
		if err != nil {
			t.Fatalf("TimestampMS(%d) failed: %v", i, err)
		}
		if ts < prev {
			t.Errorf("TimestampMS(%d) = %v, went backwards from %v", i, ts, prev)
		}
		prev = ts
	}
}
