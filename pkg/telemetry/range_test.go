package telemetry

import (
	"testing"

	"github.com/relaypoint/flmtrace/pkg/capture"
)

func TestSliceEntries_NegativeSentinelMeansToEnd(t *testing.T) {
	entries := make([]Record, 5)
	got := sliceEntries(entries, 2, -1)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
}

func TestSliceEntries_ClampsOutOfRangeBounds(t *testing.T) {
	entries := make([]Record, 3)
	if got := sliceEntries(entries, -1, 2); len(got) != 0 {
		t.Errorf("pos=-1 should clamp to n, got %d entries", len(got))
	}
	if got := sliceEntries(entries, 1, 100); len(got) != 2 {
		t.Errorf("pos2 past the end should clamp to n, got %d entries", len(got))
	}
	if got := sliceEntries(entries, 2, 1); len(got) != 0 {
		t.Errorf("pos2 < pos should yield an empty slice, got %d entries", len(got))
	}
}

// buildTimeline feeds four evenly spaced frames, one render per frame,
// and one ActionScript span per frame so Select/Summarize have both
// frame/render cadence and categorized spans to work with.
func buildTimeline(t *testing.T) *Timeline {
	t.Helper()
	tl := NewTimeline(false, "", testLogger())
	frameTimes := []int64{0, 1000, 2000, 3000}
	for _, tm := range frameTimes {
		tl.AddRecord(rawSpan(".as.Work", tm+100, 50))
		tl.AddRecord(rawPoint(DefaultRenderMarker, tm+500))
		tl.AddRecord(rawPoint(DefaultFrameMarker, tm+999))
	}
	return tl
}

func TestTimeline_FullSelection(t *testing.T) {
	tl := buildTimeline(t)
	sel := tl.FullSelection()
	if len(sel.Entries) != len(tl.Entries) {
		t.Errorf("FullSelection entries = %d, want %d", len(sel.Entries), len(tl.Entries))
	}
	if sel.Frames.Len() != tl.Frames.Len() || sel.Renders.Len() != tl.Renders.Len() {
		t.Errorf("FullSelection indices = %d/%d, want %d/%d", sel.Frames.Len(), sel.Renders.Len(), tl.Frames.Len(), tl.Renders.Len())
	}
}

func TestTimeline_Select_Subrange(t *testing.T) {
	tl := buildTimeline(t)
	sel := tl.Select(1, 3)
	if sel.Frames.Len() != 2 {
		t.Fatalf("got %d frames in selection, want 2", sel.Frames.Len())
	}
	if sel.Renders.Len() == 0 {
		t.Errorf("expected renders within the selected window, got none")
	}

	pos := tl.Frames.PositionByIndex(1)
	pos2 := tl.Frames.PositionByIndex(3)
	if len(sel.Entries) != pos2-pos {
		t.Errorf("got %d entries, want %d (positions %d..%d)", len(sel.Entries), pos2-pos, pos, pos2)
	}
}

func TestSummarize_LoadPercent(t *testing.T) {
	tl := buildTimeline(t)
	sum := Summarize(tl.FullSelection(), false, true, 0)
	if sum.FrameCount != 4 {
		t.Errorf("FrameCount = %d, want 4", sum.FrameCount)
	}
	if sum.PlayerTime != 200 {
		t.Errorf("PlayerTime = %d, want 200 (4 spans of 50)", sum.PlayerTime)
	}
	if sum.LoadPercent <= 0 || sum.LoadPercent > 100 {
		t.Errorf("LoadPercent = %v, want in (0,100]", sum.LoadPercent)
	}
	if sum.FrameFPS <= 0 {
		t.Errorf("FrameFPS = %v, want > 0", sum.FrameFPS)
	}
}

func TestFrameReport_PerFrameSpan(t *testing.T) {
	tl := buildTimeline(t)
	fr := tl.FrameReport(1, false, true, 0, 0)
	if fr == nil {
		t.Fatal("expected a frame report, got nil")
	}
	if fr.Index != 1 {
		t.Errorf("Index = %d, want 1", fr.Index)
	}
	if fr.Span != 50 {
		t.Errorf("Span = %d, want 50", fr.Span)
	}
}

func TestFrameReport_LoadFilterSuppressesLowLoadFrames(t *testing.T) {
	tl := buildTimeline(t)
	if fr := tl.FrameReport(1, false, true, 0, 99); fr != nil {
		t.Errorf("expected nil frame report below the load threshold, got %+v", fr)
	}
	if fr := tl.FrameReport(1, false, true, 0, 0); fr == nil {
		t.Errorf("expected a frame report when minLoad is 0")
	}
}

func rawSpan(name string, time, span int64) capture.RawRecord {
	return capture.RawRecord{Name: name, HasTime: true, Time: time, HasSpan: true, Span: span}
}

func rawPoint(name string, time int64) capture.RawRecord {
	return capture.RawRecord{Name: name, HasTime: true, Time: time}
}
