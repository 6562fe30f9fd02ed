package telemetry

import "time"

// SessionInfo holds the small set of well-known header metrics a
// telemetry producer emits once near the start of a session
// (SPEC_FULL.md §5, recovered from original_source/telemetry.py's
// swfInstance.swfInfo/getInfoStr). The timeline builder stops updating
// it once enough of these fields have been populated.
type SessionInfo struct {
	Name             string
	Rate             float64
	StartTime        int64
	TelemetryVersion int64
	CaptureDate      time.Time

	// InactiveTestSpan and ActiveTestSpan surface the ".tlm.inactive"
	// and ".tlm.active" diagnostic spans the original prints at the
	// end of a report. Nil when the producer never emitted them.
	InactiveTestSpan *int64
	ActiveTestSpan   *int64

	infoCount int
}

// haveInfo reports whether enough header fields have arrived that the
// timeline builder can stop special-casing them, matching the
// original's threshold of more than 4 populated fields.
func (s *SessionInfo) haveInfo() bool {
	return s.infoCount > 4
}

// FPS returns the session's declared frame rate in frames per second,
// derived from Rate the same way the original's getInfoStr does
// (Rate is a frame interval in microseconds). Returns 0 if Rate was
// never populated.
func (s *SessionInfo) FPS() float64 {
	if s.Rate == 0 {
		return 0
	}
	return 1_000_000 / s.Rate
}
