package capture

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/relaypoint/flmtrace/pkg/amf3"
)

// readLegacyRecord decodes one record in the pre-traits export format
// (spec.md §9), used by an older viewer's saved captures. Unlike the
// stream and array formats, a legacy record is not a single AMF3
// object: it is one metric-name string (never interned — the producer
// never added it to a reference table either) followed by zero, one,
// or two AMF3 values, shaped by the name's suffix:
//
//   - "<name>.span": read a span value, then a second name string
//     ending in ".time", then a time value.
//   - "<name>.time": read a time value alone.
//   - "<name>.count", or no recognized suffix: read a plain value.
//
// Any decode failure anywhere in this sequence rewinds to the start of
// the record and is treated as "no record yet", exactly as the
// original implementation's blanket try/except did — except the byte
// offset of the rewind is logged rather than silently discarded
// (spec.md §9 OpenQuestion, resolved in SPEC_FULL.md §5).
func (r *Reader) readLegacyRecord(cursor *amf3.ByteCursor, logger *slog.Logger) (RawRecord, bool, error) {
	pos := cursor.Pos()
	snap := r.refs.TakeSnapshot()

	rec, err := r.decodeLegacyBody()
	if err != nil {
		cursor.SetPos(pos)
		r.refs.Truncate(snap)
		logger.Warn("legacy record truncated, rewinding", "offset", pos, "error", err)
		return RawRecord{}, false, nil
	}
	r.refs.ClearObjects()
	return rec, true, nil
}

func (r *Reader) decodeLegacyBody() (RawRecord, error) {
	name, err := r.dec.ReadStringNoCache()
	if err != nil {
		return RawRecord{}, err
	}

	switch {
	case strings.HasSuffix(name, ".span"):
		name = strings.TrimSuffix(name, ".span")
		spanVal, err := r.dec.ReadValue()
		if err != nil {
			return RawRecord{}, err
		}
		span, err := numericField(spanVal)
		if err != nil {
			return RawRecord{}, err
		}
		tname, err := r.dec.ReadStringNoCache()
		if err != nil {
			return RawRecord{}, err
		}
		timeVal, err := r.dec.ReadValue()
		if err != nil {
			return RawRecord{}, err
		}
		time, err := numericField(timeVal)
		if err != nil {
			return RawRecord{}, err
		}
		if !strings.HasSuffix(tname, ".time") {
			return RawRecord{}, fmt.Errorf("capture: legacy span record %q paired with non-time field %q", name, tname)
		}
		return RawRecord{Name: name, HasSpan: true, Span: span, HasTime: true, Time: time}, nil

	case strings.HasSuffix(name, ".time"):
		name = strings.TrimSuffix(name, ".time")
		timeVal, err := r.dec.ReadValue()
		if err != nil {
			return RawRecord{}, err
		}
		time, err := numericField(timeVal)
		if err != nil {
			return RawRecord{}, err
		}
		return RawRecord{Name: name, HasTime: true, Time: time}, nil

	default:
		name = strings.TrimSuffix(name, ".count")
		val, err := r.dec.ReadValue()
		if err != nil {
			return RawRecord{}, err
		}
		return RawRecord{Name: name, HasValue: true, Value: val}, nil
	}
}
