package telemetry

// Selection is a time-aligned slice of a Timeline: a run of entries
// together with the frame/render sub-indices that cover the same
// span, produced by Timeline.Select (spec.md §4.9's range handling,
// grounded on original_source/telemetry.py's process()).
type Selection struct {
	Entries []Record
	Frames  *FrameIndex
	Renders *FrameIndex
	Start   int
	End     int
}

// sliceEntries slices entries to [pos, pos2), treating a -1 bound
// (FrameIndex.PositionByIndex's "after the last marker" sentinel) as
// "to the end of the timeline".
func sliceEntries(entries []Record, pos, pos2 int) []Record {
	n := len(entries)
	if pos < 0 || pos > n {
		pos = n
	}
	if pos2 < 0 || pos2 > n {
		pos2 = n
	}
	if pos2 < pos {
		pos2 = pos
	}
	return entries[pos:pos2]
}

// Select restricts the timeline to frame indices [start, end), slicing
// the frame index directly and the render index by the selected
// entries' time bounds — original_source/telemetry.py's process()
// does the same cross-index slice so Render RPS is reported over the
// same wall-clock window as Frame FPS.
func (t *Timeline) Select(start, end int) Selection {
	pos := t.Frames.PositionByIndex(start)
	pos2 := t.Frames.PositionByIndex(end)
	entries := sliceEntries(t.Entries, pos, pos2)
	frames := t.Frames.Slice(start, end)

	var renders *FrameIndex
	if len(entries) > 0 {
		t1 := entries[0].Time
		t2 := entries[len(entries)-1].Time
		renders = t.Renders.Slice(t.Renders.IndexByTime(t1), t.Renders.IndexByTime(t2))
	} else {
		renders = t.Renders.Slice(0, 0)
	}

	return Selection{Entries: entries, Frames: frames, Renders: renders, Start: start, End: end}
}

// FullSelection returns a Selection covering the entire timeline
// together with the unsliced frame and render indices, without the
// frame-index position lookups Select performs.
func (t *Timeline) FullSelection() Selection {
	return Selection{Entries: t.Entries, Frames: t.Frames, Renders: t.Renders, Start: 0, End: t.Frames.Len()}
}

// Summary is the top-level report for a Selection: run time, time
// spent inside instrumented code, load percentage, frame/render
// cadence, and the categorized span breakdown (spec.md §6's report
// contract, grounded on original_source/telemetry.py's process()).
type Summary struct {
	MetricCount int
	FrameCount  int
	RenderCount int

	RunTime     int64
	PlayerTime  int64
	LoadPercent float64

	FrameMean, FrameStdDev float64
	FrameFPS               float64
	RenderMean, RenderStdDev float64
	RenderRPS                float64

	Report Report
}

// Summarize reduces a Selection into a Summary. withMetrics and
// metricThreshold control the per-category metric breakdown exactly as
// Reporter.Report does; showMemory enables the Memory average/peak
// section.
func Summarize(sel Selection, showMemory, withMetrics bool, metricThreshold int) Summary {
	rep := NewReporter(showMemory)
	for _, e := range sel.Entries {
		rep.Add(e)
	}

	runTime := rep.Interval()
	var load float64
	if runTime != 0 {
		load = float64(rep.Span()) / float64(runTime) * 100
	}

	frameMean, frameStdDev := sel.Frames.MeanStdDev()
	renderMean, renderStdDev := sel.Renders.MeanStdDev()

	return Summary{
		MetricCount: len(sel.Entries),
		FrameCount:  sel.Frames.Len(),
		RenderCount: sel.Renders.Len(),

		RunTime:     runTime,
		PlayerTime:  rep.Span(),
		LoadPercent: load,

		FrameMean:    frameMean,
		FrameStdDev:  frameStdDev,
		FrameFPS:     FPS(frameMean),
		RenderMean:   renderMean,
		RenderStdDev: renderStdDev,
		RenderRPS:    FPS(renderMean),

		Report: rep.Report(withMetrics, metricThreshold),
	}
}

// FrameReport is the per-frame breakdown emitted by the --frames flag
// (spec.md §6), grounded on original_source/telemetry.py's
// rangeReport().
type FrameReport struct {
	Index       int
	Time        int64
	Interval    int64
	Span        int64
	LoadPercent float64
	Report      Report
}

// FrameReport builds the report for a single frame index, or nil if
// the frame's load percentage is below minLoad (spec.md's --load
// filter; pass 0 to disable).
func (t *Timeline) FrameReport(index int, showMemory, withMetrics bool, metricThreshold int, minLoad float64) *FrameReport {
	sel := t.Select(index, index+1)
	rep := NewReporter(showMemory)
	for _, e := range sel.Entries {
		rep.Add(e)
	}

	interval := rep.Interval()
	var load float64
	if rep.Span() != 0 && interval != 0 {
		load = float64(rep.Span()) / float64(interval) * 100
	}
	if minLoad > 0 && load < minLoad {
		return nil
	}

	var frameTime int64
	if len(sel.Entries) > 0 {
		frameTime = sel.Entries[0].Time
	}

	return &FrameReport{
		Index:       index,
		Time:        frameTime,
		Interval:    interval,
		Span:        rep.Span(),
		LoadPercent: load,
		Report:      rep.Report(withMetrics, metricThreshold),
	}
}
