package telemetry

import (
	"math"
	"sort"
	"strings"
)

// categoryNames maps a metric name's second dotted component to a
// human-readable category (spec.md §4.9), ported from
// original_source/telemetry.py's getCategory.
var categoryNames = map[string]string{
	"as":      "ActionScript",
	"rend":    "Rendering",
	"network": "Network",
	"mem":     "Memory",
	"tlm":     "Telemetry",
}

// categoryOf extracts the category from a dotted metric name such as
// ".as.Foo.bar", defaulting to "Player" for anything not in
// categoryNames.
func categoryOf(name string) string {
	parts := strings.SplitN(name, ".", 3)
	if len(parts) < 2 {
		return "Player"
	}
	if c, ok := categoryNames[parts[1]]; ok {
		return c
	}
	return "Player"
}

// Reporter accumulates span and memory statistics over a sequence of
// timeline records (spec.md §4.9), grounded on
// original_source/telemetry.py's Reporter class.
type Reporter struct {
	showMemory bool

	categories map[string]int64
	metrics    map[string]int64

	memorySum   map[string]int64
	memoryCount map[string]int64
	memoryMax   map[string]int64

	span      int64
	startTime int64
	endTime   int64
	haveStart bool
}

// NewReporter returns an empty Reporter. showMemory enables tracking
// of point-event Memory-category metrics for averages and peaks.
func NewReporter(showMemory bool) *Reporter {
	return &Reporter{
		showMemory:  showMemory,
		categories:  make(map[string]int64),
		metrics:     make(map[string]int64),
		memorySum:   make(map[string]int64),
		memoryCount: make(map[string]int64),
		memoryMax:   make(map[string]int64),
	}
}

// Add folds one timeline record into the report.
func (r *Reporter) Add(rec Record) {
	if rec.HasSpan {
		if !r.haveStart {
			r.startTime = rec.Time
			r.haveStart = true
		}
		r.endTime = rec.Time
		category := categoryOf(rec.Name)
		r.categories[category] += rec.Span
		r.metrics[rec.Name] += rec.Span
		r.span += rec.Span
		return
	}
	if r.showMemory && categoryOf(rec.Name) == "Memory" && rec.HasValue {
		v, ok := numericValue(rec.Value)
		if !ok {
			return
		}
		iv := int64(v)
		if iv > r.memoryMax[rec.Name] {
			r.memoryMax[rec.Name] = iv
		}
		r.memorySum[rec.Name] += iv
		r.memoryCount[rec.Name]++
	}
}

// Span returns total accumulated span time ("time in player").
func (r *Reporter) Span() int64 { return r.span }

// Interval returns the wall-clock span between the first and last
// span record seen (endTime - startTime).
func (r *Reporter) Interval() int64 { return r.endTime - r.startTime }

// CategoryStat is one category's share of total span, with its
// metric breakdown populated only when requested.
type CategoryStat struct {
	Name    string
	Span    int64
	Percent int
	Metrics []MetricStat
}

// MetricStat is one metric's share of its category's span.
type MetricStat struct {
	Name              string
	Span              int64
	PercentOfCategory int
}

// MemoryStat summarizes one Memory-category point metric.
type MemoryStat struct {
	Name  string
	Avg   int64
	Max   int64
	Count int64
}

// Report is the Reporter's immutable output, laid out per spec.md
// §4.9's ordering contract: categories descending by span, metrics
// within a category descending by span and filtered by threshold.
type Report struct {
	Categories []CategoryStat
	Memory     []MemoryStat
}

// percentOf returns round(100*value/total), or 0 if total is 0.
func percentOf(value, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(value) / float64(total)))
}

// Report builds the sorted, filtered report. withMetrics enables the
// per-metric breakdown within each category (spec.md's --summary
// flag); metricThreshold suppresses metrics whose percent of their
// category's span is not strictly greater than the threshold.
func (r *Reporter) Report(withMetrics bool, metricThreshold int) Report {
	var out Report

	type catEntry struct {
		name string
		span int64
	}
	cats := make([]catEntry, 0, len(r.categories))
	for name, span := range r.categories {
		cats = append(cats, catEntry{name, span})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].span != cats[j].span {
			return cats[i].span > cats[j].span
		}
		return cats[i].name < cats[j].name
	})

	for _, c := range cats {
		percent := percentOf(c.span, r.span)
		if percent <= 0 {
			continue
		}
		stat := CategoryStat{Name: c.name, Span: c.span, Percent: percent}
		if withMetrics {
			type metEntry struct {
				name string
				span int64
			}
			var mets []metEntry
			for name, span := range r.metrics {
				if categoryOf(name) == c.name {
					mets = append(mets, metEntry{name, span})
				}
			}
			sort.Slice(mets, func(i, j int) bool {
				if mets[i].span != mets[j].span {
					return mets[i].span > mets[j].span
				}
				return mets[i].name < mets[j].name
			})
			for _, m := range mets {
				pct := percentOf(m.span, c.span)
				if pct <= metricThreshold {
					continue
				}
				stat.Metrics = append(stat.Metrics, MetricStat{Name: m.name, Span: m.span, PercentOfCategory: pct})
			}
		}
		out.Categories = append(out.Categories, stat)
	}

	if r.showMemory {
		type memEntry struct {
			name string
			sum  int64
		}
		var mems []memEntry
		for name, sum := range r.memorySum {
			mems = append(mems, memEntry{name, sum})
		}
		sort.Slice(mems, func(i, j int) bool {
			if mems[i].sum != mems[j].sum {
				return mems[i].sum > mems[j].sum
			}
			return mems[i].name < mems[j].name
		})
		for _, m := range mems {
			count := r.memoryCount[m.name]
			var avg int64
			if count > 0 {
				avg = m.sum / count
			}
			out.Memory = append(out.Memory, MemoryStat{
				Name:  m.name,
				Avg:   avg,
				Max:   r.memoryMax[m.name],
				Count: count,
			})
		}
	}

	return out
}
