package telemetry

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("test")
	timer.Child("child").End()
	timer.End()
	collector.Count("documents", 3)

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	if buf.Len() != 0 {
		t.Errorf("NoOp collector should produce no output, got: %s", buf.String())
	}
}

func TestFromContextReturnsNoOpWhenMissing(t *testing.T) {
	collector := FromContext(context.Background())

	if collector == nil {
		t.Fatal("FromContext should never return nil")
	}
	if _, ok := collector.(noOpCollector); !ok {
		t.Errorf("FromContext should return noOpCollector when none present, got: %T", collector)
	}
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	retrieved, ok := FromContext(ctx).(*TimingCollector)
	if !ok || retrieved != collector {
		t.Error("FromContext should return the same collector that was added")
	}
}

func TestTimingCollectorReport(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(10 * time.Millisecond)

	root := collector.Start("search")
	open := root.Child("open index")
	open.Child("decode").End()
	open.End()
	root.Child("scan documents").End()
	root.End()

	collector.Count("documents", 2)
	collector.Count("matches", 5)
	collector.Count("documents", 1)

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	want := "search: 70ms\n" +
		"├─ open index: 30ms\n" +
		"│  └─ decode: 10ms\n" +
		"└─ scan documents: 10ms\n" +
		"documents: 3\n" +
		"matches: 5\n"
	if got := buf.String(); got != want {
		t.Errorf("Report() =\n%s\nwant\n%s", got, want)
	}
}

func TestTimingCollectorMultipleRoots(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(time.Second)

	collector.Start("load").End()
	collector.Start("index").End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	want := "load: 1.00s\nindex: 1.00s\n"
	if got := buf.String(); got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
}

func TestTimingTimerEndTwice(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(time.Millisecond)

	timer := collector.Start("op")
	timer.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	if got := buf.String(); got != "op: 1ms\n" {
		t.Errorf("second End should be ignored, got: %q", got)
	}
}

func TestTimingCollectorConcurrent(t *testing.T) {
	collector := NewTimingCollector()
	root := collector.Start("scan")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.Child("document").End()
			collector.Count("documents", 1)
		}()
	}
	wg.Wait()
	root.End()

	if got := collector.Counter("documents"); got != 16 {
		t.Errorf("Counter(documents) = %d, want 16", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0ms"},
		{1 * time.Millisecond, "1ms"},
		{100 * time.Millisecond, "100ms"},
		{999 * time.Millisecond, "999ms"},
		{1 * time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.duration); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
		}
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)

	if buf.Len() != 0 {
		t.Errorf("Empty collector should produce no output, got: %s", buf.String())
	}
}
