package telemetry

import "log/slog"

// maxProfStackDepth bounds the profile-call stack so a hostile or
// corrupt stream of unmatched ".prof.enter.time" records cannot grow
// it without limit (spec.md §9 design note).
const maxProfStackDepth = 1024

// profileStack reconstructs span records from the profiler's
// bracketing point events: ".prof.enter.time", ".prof.enter.name",
// ".prof.exit.time" (spec.md §4.7). It mirrors
// original_source/telemetry.py's swfInstance.profstack.
type profileStack struct {
	frames []Record
	logger *slog.Logger
}

func newProfileStack(logger *slog.Logger) *profileStack {
	return &profileStack{logger: logger}
}

// enterTime pushes a provisional span record. Pushes past
// maxProfStackDepth are dropped and logged; the matching exitTime will
// then underflow and log separately, which is an acceptable
// degradation for hostile input.
func (p *profileStack) enterTime(time int64) {
	if len(p.frames) >= maxProfStackDepth {
		p.logger.Warn("profile stack depth limit reached, dropping enter", "depth", len(p.frames))
		return
	}
	p.frames = append(p.frames, Record{Name: "none", Time: time})
}

// enterName overwrites the top frame's provisional name.
func (p *profileStack) enterName(name string) {
	if len(p.frames) == 0 {
		return
	}
	p.frames[len(p.frames)-1].Name = ".as." + name
}

// exitTime pops the top frame and finalizes it into a span record
// ending at time. ok is false when the stack was empty or the popped
// span is negative, both logged as a malformed profile stack per
// spec.md §7.
func (p *profileStack) exitTime(time int64) (rec Record, ok bool) {
	if len(p.frames) == 0 {
		p.logger.Warn("profile stack empty on exit", "time", time)
		return Record{}, false
	}
	n := len(p.frames) - 1
	rec = p.frames[n]
	p.frames = p.frames[:n]

	rec.Span = time - rec.Time
	rec.Time = time
	rec.HasSpan = true
	if rec.Span < 0 {
		p.logger.Warn("profile stack popped negative span", "name", rec.Name, "span", rec.Span)
		return Record{}, false
	}
	return rec, true
}
