package telemetry

import (
	"testing"

	"github.com/relaypoint/flmtrace/pkg/amf3"
)

func TestCategoryOf(t *testing.T) {
	cases := map[string]string{
		".as.Foo.run":    "ActionScript",
		".rend.screen":   "Rendering",
		".network.read":  "Network",
		".mem.total":     "Memory",
		".tlm.version":   "Telemetry",
		".unknown.thing": "Player",
	}
	for name, want := range cases {
		if got := categoryOf(name); got != want {
			t.Errorf("categoryOf(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestReporter_CategoryAndMetricPercentages(t *testing.T) {
	r := NewReporter(false)
	r.Add(Record{Name: ".as.Foo", Time: 0, HasSpan: true, Span: 60})
	r.Add(Record{Name: ".as.Bar", Time: 60, HasSpan: true, Span: 20})
	r.Add(Record{Name: ".rend.screen", Time: 80, HasSpan: true, Span: 20})

	rep := r.Report(true, 0)
	if len(rep.Categories) != 2 {
		t.Fatalf("got %d categories, want 2: %+v", len(rep.Categories), rep.Categories)
	}
	as := rep.Categories[0]
	if as.Name != "ActionScript" || as.Span != 80 || as.Percent != 80 {
		t.Errorf("ActionScript category = %+v", as)
	}
	if len(as.Metrics) != 2 {
		t.Fatalf("got %d metrics under ActionScript, want 2", len(as.Metrics))
	}
	if as.Metrics[0].Name != ".as.Foo" || as.Metrics[0].PercentOfCategory != 75 {
		t.Errorf("top metric = %+v", as.Metrics[0])
	}
}

func TestReporter_MemoryAverageAndPeak(t *testing.T) {
	r := NewReporter(true)
	r.Add(Record{Name: ".mem.total", HasValue: true, Value: amf3.IntValue(100)})
	r.Add(Record{Name: ".mem.total", HasValue: true, Value: amf3.IntValue(300)})

	rep := r.Report(false, 0)
	if len(rep.Memory) != 1 {
		t.Fatalf("got %d memory stats, want 1", len(rep.Memory))
	}
	m := rep.Memory[0]
	if m.Avg != 200 || m.Max != 300 || m.Count != 2 {
		t.Errorf("memory stat = %+v", m)
	}
}

func TestReporter_MemoryIgnoredWithoutShowMemory(t *testing.T) {
	r := NewReporter(false)
	r.Add(Record{Name: ".mem.total", HasValue: true, Value: amf3.IntValue(100)})
	rep := r.Report(false, 0)
	if len(rep.Memory) != 0 {
		t.Errorf("expected no memory stats when showMemory is false, got %+v", rep.Memory)
	}
}

func TestReporter_ThresholdSuppression(t *testing.T) {
	r := NewReporter(false)
	r.Add(Record{Name: ".as.Big", Time: 0, HasSpan: true, Span: 99})
	r.Add(Record{Name: ".as.Tiny", Time: 99, HasSpan: true, Span: 1})

	rep := r.Report(true, 50)
	if len(rep.Categories) != 1 {
		t.Fatalf("got %d categories", len(rep.Categories))
	}
	if len(rep.Categories[0].Metrics) != 1 {
		t.Fatalf("expected the low-share metric to be suppressed, got %+v", rep.Categories[0].Metrics)
	}
	if rep.Categories[0].Metrics[0].Name != ".as.Big" {
		t.Errorf("surviving metric = %+v", rep.Categories[0].Metrics[0])
	}
}
