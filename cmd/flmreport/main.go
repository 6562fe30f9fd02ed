// Command flmreport decodes a saved .flm capture file and prints a
// time-aligned CPU/frame/memory report (spec.md §6).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/spf13/cobra"

	"github.com/relaypoint/flmtrace/pkg/capture"
	"github.com/relaypoint/flmtrace/pkg/telemetry"
)

type options struct {
	frames    bool
	summary   bool
	all       bool
	memory    bool
	dump      bool
	load      float64
	rangeFlag string
}

func main() {
	var opt options

	root := &cobra.Command{
		Use:   "flmreport <capture.flm>",
		Short: "Print a report over a saved Flash Player telemetry capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], opt)
		},
	}

	f := root.Flags()
	f.BoolVarP(&opt.frames, "frames", "f", false, "emit per-frame reports")
	f.BoolVarP(&opt.summary, "summary", "s", false, "include per-metric breakdown within categories")
	f.BoolVarP(&opt.all, "all", "a", false, "emit every record in the selected range")
	f.BoolVarP(&opt.memory, "memory", "m", false, "include memory averages and peaks")
	f.BoolVarP(&opt.dump, "dump", "d", false, "log each decoded record to stderr at debug level (no hex dump of raw bytes)")
	f.Float64VarP(&opt.load, "load", "l", 0, "in per-frame mode, suppress frames below this CPU-load percentage")
	f.StringVar(&opt.rangeFlag, "range", "", "restrict analysis to frame indices start:end")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, opt options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("flmreport: %w", err)
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("flmreport: mmap %s: %w", path, err)
	}
	defer data.Unmap()

	logger := slog.Default()
	if opt.dump {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	reader := capture.NewReaderFromBytes(data, logger)
	format, ok := reader.Format()
	if !ok {
		return fmt.Errorf("flmreport: %s is empty", path)
	}
	streaming := format != capture.FormatArray

	tl := telemetry.NewTimeline(streaming, "", logger)
	for {
		rec, ok, err := reader.ReadRecord()
		if err != nil {
			return fmt.Errorf("flmreport: decode %s: %w", path, err)
		}
		if !ok {
			break
		}
		if opt.dump {
			logger.Debug("record", "name", rec.Name, "time", rec.Time, "span", rec.Span, "delta", rec.Delta)
		}
		tl.AddRecord(rec)
	}

	start, end, err := parseRange(opt.rangeFlag, tl.Frames.Len())
	if err != nil {
		return fmt.Errorf("flmreport: %w", err)
	}
	sel := tl.Select(start, end)

	printSessionInfo(tl.Info)

	if opt.all {
		printAll(sel.Entries)
	}

	if opt.frames {
		printPerFrame(tl, start, end, opt)
		return nil
	}

	sum := telemetry.Summarize(sel, opt.memory, opt.summary, 0)
	printSummary(sum)
	return nil
}

func parseRange(spec string, frameCount int) (int, int, error) {
	if spec == "" {
		return 0, frameCount, nil
	}
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range %q, must be in start:end format", spec)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q, must be in start:end format", spec)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q, must be in start:end format", spec)
	}
	return start, end, nil
}

func printSessionInfo(info telemetry.SessionInfo) {
	if info.Name != "" {
		fmt.Printf("SWF = %s\n", info.Name)
	}
	if !info.CaptureDate.IsZero() {
		fmt.Printf("Date = %s\n", info.CaptureDate.Format("2006-01-02 15:04:05"))
	}
	if info.TelemetryVersion != 0 {
		fmt.Printf("Telemetry Version = %d\n", info.TelemetryVersion)
	}
	if info.StartTime != 0 {
		fmt.Printf("Startup Time = %d us\n", info.StartTime)
	}
	if info.InactiveTestSpan != nil {
		fmt.Printf("Telemetry Inactive Test = %d us\n", *info.InactiveTestSpan)
	}
	if info.ActiveTestSpan != nil {
		fmt.Printf("Telemetry Active Test = %d us\n", *info.ActiveTestSpan)
	}
}

func printAll(entries []telemetry.Record) {
	for _, e := range entries {
		if e.HasSpan {
			fmt.Printf("%10d  depth=%d  %-32s span=%d\n", e.Time, e.Depth, e.Name, e.Span)
		} else {
			fmt.Printf("%10d  depth=%d  %-32s\n", e.Time, e.Depth, e.Name)
		}
	}
}

func printSummary(sum telemetry.Summary) {
	fmt.Printf("Metric Count = %d\n", sum.MetricCount)
	fmt.Printf("Frame Count = %d\n", sum.FrameCount)
	fmt.Printf("Render Count = %d\n", sum.RenderCount)
	fmt.Printf("Run Time = %d us\n", sum.RunTime)
	fmt.Printf("Time in Player = %d us\n", sum.PlayerTime)
	fmt.Printf("Load = %.2f%%\n", sum.LoadPercent)
	if sum.FrameMean > 0 {
		fmt.Printf("Frame FPS = %.2f (stddev %.2f us)\n", sum.FrameFPS, sum.FrameStdDev)
	}
	if sum.RenderMean > 0 {
		fmt.Printf("Render RPS = %.2f (stddev %.2f us)\n", sum.RenderRPS, sum.RenderStdDev)
	}
	printReport(sum.Report)
}

func printReport(rep telemetry.Report) {
	fmt.Println("Most time by Category:")
	for _, c := range rep.Categories {
		fmt.Printf("  %s: %.3f ms %d%%\n", c.Name, float64(c.Span)/1000, c.Percent)
		for _, m := range c.Metrics {
			fmt.Printf("    %s: %.3f ms %d%%\n", m.Name, float64(m.Span)/1000, m.PercentOfCategory)
		}
	}
	if len(rep.Memory) > 0 {
		fmt.Println("Memory Average:")
		for _, m := range rep.Memory {
			fmt.Printf("  %s: avg=%d kb, max=%d kb\n", m.Name, m.Avg, m.Max)
		}
	}
}

func printPerFrame(tl *telemetry.Timeline, start, end int, opt options) {
	for i := start; i < end; i++ {
		fr := tl.FrameReport(i, opt.memory, opt.summary, 0, opt.load)
		if fr == nil {
			continue
		}
		fmt.Printf("\nFrame #%d\n", fr.Index)
		fmt.Printf("Time: %d (interval=%d, span=%d)\n", fr.Time, fr.Interval, fr.Span)
		fmt.Printf("Load %.2f%%\n", fr.LoadPercent)
		printReport(fr.Report)
	}
}
