package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/looker/output"
)

// TimingCollector collects a forest of timers plus named counters. Timers
// may be started and ended from any goroutine.
type TimingCollector struct {
	mu       sync.Mutex
	roots    []*timerNode
	counters map[string]int
	order    []string // counter names in first-use order
	now      func() time.Time
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{
		counters: make(map[string]int),
		now:      time.Now,
	}
}

// Start begins timing a top-level operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now()}
	c.roots = append(c.roots, node)

	return &timingTimer{collector: c, node: node}
}

// Count adds delta to the named counter.
func (c *TimingCollector) Count(name string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.counters[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counters[name] += delta
}

// Counter returns the current value of the named counter.
func (c *TimingCollector) Counter(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Report writes the timer trees followed by the counters.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		formatTimingTree(w, root, styles)
	}

	counters := make([]counter, 0, len(c.order))
	for _, name := range c.order {
		counters = append(counters, counter{name: name, value: c.counters[name]})
	}
	formatCounters(w, counters, styles)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	if t.node.end.IsZero() {
		t.node.end = t.collector.now()
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{name: name, start: t.collector.now()}
	t.node.children = append(t.node.children, node)

	return &timingTimer{collector: t.collector, node: node}
}
