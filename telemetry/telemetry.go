// Package telemetry collects timings and counters of a command run.
//
// Collectors travel in a context.Context, so instrumented code never needs
// a collector parameter and pays nothing when telemetry is disabled.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.FromContext(ctx).Start("search")
//	scan := timer.Child("scan documents")
//	// ... work ...
//	scan.End()
//	timer.End()
//
//	telemetry.FromContext(ctx).Count("documents", 12)
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/looker/output"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector records timings and counters. Implementations must be safe for
// concurrent use.
type Collector interface {
	// Start begins timing a top-level operation.
	Start(name string) Timer

	// Count adds delta to the named counter.
	Count(name string, delta int)

	// Report writes what was collected to w. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation. Timers nest via Child.
type Timer interface {
	// End stops the timer. Calling End more than once keeps the first end.
	End()

	// Child starts a timer nested under this one.
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext extracts the collector from context, or a collector that
// does nothing if there is none.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}
