// Package telemetry implements the timeline builder, frame/render
// indices, and reporter (spec.md §4.7–§4.9): it consumes the raw
// records capture.Reader decodes off the wire, normalizes their
// timestamps, flattens nested spans into a non-overlapping timeline,
// and reduces the result into category/frame/memory reports.
package telemetry

import "github.com/relaypoint/flmtrace/pkg/amf3"

// Record is one timeline entry after time normalization (spec.md §3's
// "Metric record"). Point events carry no span; span events carry a
// non-negative span. Once flattened into Timeline.Entries, a span
// record's Time is its start, so it covers [Time, Time+Span).
type Record struct {
	Name  string
	Time  int64
	Depth int

	HasSpan bool
	Span    int64

	HasValue bool
	Value    amf3.Value
}

// numericValue accepts either an AMF3 integer or double, mirroring
// capture.numericField for the values the timeline builder inspects
// directly (rate, telemetry version, capture date, memory points).
func numericValue(v amf3.Value) (float64, bool) {
	switch v.Kind {
	case amf3.KindInt:
		return float64(v.Int), true
	case amf3.KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}
