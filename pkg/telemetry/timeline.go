package telemetry

import (
	"log/slog"
	"strings"
	"time"

	"github.com/relaypoint/flmtrace/pkg/capture"
)

// DefaultFrameMarker and DefaultRenderMarker name the metrics whose
// occurrences bound frames and renders respectively (spec.md §4.8).
const (
	DefaultFrameMarker  = ".swf.frame"
	DefaultRenderMarker = ".rend.screen"
)

// Timeline consumes capture.RawRecords in producer order, normalizes
// their timestamps, flattens nested spans, and indexes frame/render
// marker occurrences (spec.md §4.7–§4.8). It is grounded on
// original_source/telemetry.py's swfInstance.
type Timeline struct {
	Entries []Record
	Frames  *FrameIndex
	Renders *FrameIndex
	Info    SessionInfo

	streaming    bool
	currentTime  int64
	lastSpanTime int64
	totalSpan    int64
	metricCount  int

	prof   *profileStack
	logger *slog.Logger
}

// NewTimeline returns an empty Timeline. streaming selects delta
// accumulation semantics (true for a live capture stream, false for a
// pre-resolved array-format export, matching
// original_source/telemetry.py's swf.streaming flag). An empty
// frameMarker defaults to DefaultFrameMarker; a nil logger defaults to
// slog.Default().
func NewTimeline(streaming bool, frameMarker string, logger *slog.Logger) *Timeline {
	if frameMarker == "" {
		frameMarker = DefaultFrameMarker
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timeline{
		Frames:    NewFrameIndex(frameMarker),
		Renders:   NewFrameIndex(DefaultRenderMarker),
		streaming: streaming,
		prof:      newProfileStack(logger),
		logger:    logger,
	}
}

// MetricCount returns the number of records passed to AddRecord so
// far, including ones dropped (profile-stack bookkeeping) or not yet
// reflected as their own timeline entry.
func (t *Timeline) MetricCount() int { return t.metricCount }

// TotalSpan returns the sum of every span record's Span before nested
// children were subtracted out — a sanity-check figure only,
// mirroring original_source/telemetry.py's totalSpan.
func (t *Timeline) TotalSpan() int64 { return t.totalSpan }

// AddRecord normalizes one raw record's time, reconstructs profile
// spans, flattens it into the timeline, and updates SessionInfo. The
// aggregator never fails: malformed input is logged and the offending
// record is skipped (spec.md §7).
func (t *Timeline) AddRecord(raw capture.RawRecord) {
	t.metricCount++

	var recTime int64
	switch {
	case raw.HasDelta:
		if t.streaming {
			t.lastSpanTime += raw.Delta
			recTime = t.lastSpanTime
		} else {
			recTime = raw.Delta
		}
		t.currentTime = recTime
	case raw.HasTime:
		recTime = raw.Time
		t.currentTime = recTime
	default:
		recTime = t.currentTime
	}

	name := raw.Name
	rec := Record{
		Name:     name,
		Time:     recTime,
		HasSpan:  raw.HasSpan,
		Span:     raw.Span,
		HasValue: raw.HasValue,
		Value:    raw.Value,
	}

	if strings.HasPrefix(name, ".prof.") {
		switch name {
		case ".prof.enter.time":
			t.prof.enterTime(recTime)
			return
		case ".prof.enter.name":
			if raw.HasValue {
				t.prof.enterName(raw.Value.Str)
			}
			return
		case ".prof.exit.time":
			popped, ok := t.prof.exitTime(recTime)
			if !ok {
				return
			}
			rec = popped
		}
	}

	t.flatten(rec)

	if t.Info.haveInfo() {
		return
	}
	t.updateSessionInfo(name, rec)
}

// flatten appends rec to Entries, lifting and renumbering any already
// appended children it overlaps (spec.md §4.7). For span records this
// rewrites the timeline's tail; for point records it's a plain append.
func (t *Timeline) flatten(rec Record) {
	name := rec.Name
	if !rec.HasSpan {
		t.Frames.AddFrame(name, len(t.Entries), rec.Time)
		t.Renders.AddFrame(name, len(t.Entries), rec.Time)
		rec.Depth = 0
		t.Entries = append(t.Entries, rec)
		return
	}

	span := rec.Span
	end := rec.Time
	if span < 0 {
		t.logger.Warn("invalid metric span", "name", name, "span", span)
		return
	}
	start := end - span

	t.Frames.AddFrame(name, len(t.Entries), start)
	t.Renders.AddFrame(name, len(t.Entries), start)
	t.totalSpan += span

	childIndex := -1
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if t.Entries[i].Time >= start {
			childIndex = i
		} else {
			break
		}
	}

	var childSpanSum int64
	if childIndex > -1 {
		children := append([]Record(nil), t.Entries[childIndex:]...)
		t.Entries = t.Entries[:childIndex]

		for _, child := range children {
			if child.HasSpan {
				childStart := child.Time
				childSpan := child.Span
				childSpanSum += childSpan
				if childStart > start {
					newChildSpan := childStart - start
					t.Entries = append(t.Entries, Record{Time: start, HasSpan: true, Span: newChildSpan, Name: name, Depth: 0})
					span -= newChildSpan
				}
				child.Depth++
				t.Entries = append(t.Entries, child)
				span -= childSpan
				start = childStart + childSpan
			} else {
				child.Depth++
				t.Entries = append(t.Entries, child)
			}
		}

		if childSpanSum > rec.Span {
			t.logger.Warn("invalid child span total", "name", name, "parent_span", rec.Span, "child_span_sum", childSpanSum)
		}
	}

	t.Entries = append(t.Entries, Record{Time: start, HasSpan: true, Span: span, Name: name, Depth: 0})
}

// updateSessionInfo recognizes the well-known header metrics
// (SPEC_FULL.md §5) and folds them into Info. Called only while
// Info.haveInfo() is false.
func (t *Timeline) updateSessionInfo(name string, rec Record) {
	switch {
	case strings.HasPrefix(name, ".swf."):
		switch name {
		case ".swf.name":
			if rec.HasValue {
				t.Info.Name = rec.Value.Str
			}
			t.Info.infoCount++
		case ".swf.rate":
			if v, ok := numericValue(rec.Value); ok {
				t.Info.Rate = v
			}
			t.Info.infoCount++
		case ".swf.start":
			t.Info.StartTime = rec.Time
			t.currentTime = rec.Time
			t.Info.infoCount++
		}
	case strings.HasPrefix(name, ".tlm."):
		switch name {
		case ".tlm.version":
			if v, ok := numericValue(rec.Value); ok {
				t.Info.TelemetryVersion = int64(v)
			}
			t.Info.infoCount++
		case ".tlm.date":
			if v, ok := numericValue(rec.Value); ok {
				t.Info.CaptureDate = time.UnixMilli(int64(v)).UTC()
			}
			t.Info.infoCount++
		case ".tlm.inactive":
			if rec.HasSpan {
				span := rec.Span
				t.Info.InactiveTestSpan = &span
			}
		case ".tlm.active":
			if rec.HasSpan {
				span := rec.Span
				t.Info.ActiveTestSpan = &span
			}
		}
	}
}
