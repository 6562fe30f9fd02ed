package capture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/relaypoint/flmtrace/pkg/amf3"
)

// Format identifies which of the three on-wire framings a capture
// starts with (spec.md §4.6).
type Format int

const (
	// FormatStream is a sequence of top-level AMF3 objects, the format
	// a live player connection produces (first byte 0x0A).
	FormatStream Format = iota
	// FormatArray is a single top-level AMF3 array whose dense portion
	// holds every record, the format FlashMonitor saves to disk
	// (first byte 0x09).
	FormatArray
	// FormatLegacy is the pre-traits export format from an older
	// viewer (spec.md §9); any other first byte selects it.
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatStream:
		return "stream"
	case FormatArray:
		return "array"
	case FormatLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Reader reads RawRecords out of an AMF3 byte stream, one at a time,
// applying transactional rewind (spec.md §4.6) so a producer flushing a
// partial record mid-write never corrupts the strings/traits tables.
//
// Reader owns its decoder's RefTables for the lifetime of one capture
// session: strings and traits persist across records, while objects are
// cleared at each record boundary (RefTables.ClearObjects).
type Reader struct {
	cursor *amf3.ByteCursor
	refs   *amf3.RefTables
	dec    *amf3.Decoder
	logger *slog.Logger

	format         Format
	formatDetected bool

	arrayDense []amf3.Value
	arrayIdx   int
	arrayDone  bool
}

// NewReader returns a Reader with an empty buffer; feed it bytes via
// Append. Pass nil for logger to use slog.Default().
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	refs := amf3.NewRefTables()
	cursor := amf3.NewByteCursor(nil)
	return &Reader{
		cursor: cursor,
		refs:   refs,
		dec:    amf3.NewDecoder(cursor, refs),
		logger: logger,
	}
}

// NewReaderFromBytes returns a Reader preloaded with a complete
// in-memory capture, for batch (non-streaming) use by the report CLI.
func NewReaderFromBytes(data []byte, logger *slog.Logger) *Reader {
	r := NewReader(logger)
	r.Append(data)
	return r
}

// Append extends the buffer with more bytes received from the wire or
// read from a growing file. The decoder never blocks: a partial read
// simply causes the next ReadRecord to report "no record yet".
func (r *Reader) Append(data []byte) {
	r.cursor.Append(data)
}

// Format returns the detected framing, valid only once at least one
// byte has been appended.
func (r *Reader) Format() (Format, bool) {
	return r.detectFormat()
}

func (r *Reader) detectFormat() (Format, bool) {
	if r.formatDetected {
		return r.format, true
	}
	b, err := r.cursor.PeekByte()
	if err != nil {
		return 0, false
	}
	switch b {
	case 0x0A:
		r.format = FormatStream
	case 0x09:
		r.format = FormatArray
	default:
		r.format = FormatLegacy
	}
	r.formatDetected = true
	return r.format, true
}

// ReadRecord attempts to read the next record. Three outcomes:
//
//   - (rec, true, nil): a complete record was decoded.
//   - (_, false, nil): not enough data yet (or, for the array format,
//     the single top-level array has been fully consumed); the caller
//     should append more bytes and retry, or stop if no more are coming.
//   - (_, false, err): a non-recoverable decode error; the stream is
//     malformed from this point on.
func (r *Reader) ReadRecord() (RawRecord, bool, error) {
	format, ok := r.detectFormat()
	if !ok {
		return RawRecord{}, false, nil
	}
	switch format {
	case FormatArray:
		return r.readArrayRecord()
	case FormatLegacy:
		return r.readLegacyRecord(r.cursor, r.logger)
	default:
		return r.readStreamRecord()
	}
}

// readStreamRecord implements spec.md §4.6's read_record for the
// stream format: snapshot, attempt a decode, and on InsufficientData
// roll the cursor and the strings/traits tables back to the snapshot.
func (r *Reader) readStreamRecord() (RawRecord, bool, error) {
	pos := r.cursor.Pos()
	snap := r.refs.TakeSnapshot()

	v, err := r.dec.ReadValue()
	if err != nil {
		if errors.Is(err, amf3.ErrInsufficientData) {
			r.cursor.SetPos(pos)
			r.refs.Truncate(snap)
			return RawRecord{}, false, nil
		}
		return RawRecord{}, false, err
	}
	r.refs.ClearObjects()

	rec, err := valueToRawRecord(v)
	if err != nil {
		return RawRecord{}, false, err
	}
	return rec, true, nil
}

// readArrayRecord decodes the single top-level array on first call,
// then serves its dense elements one at a time.
func (r *Reader) readArrayRecord() (RawRecord, bool, error) {
	if !r.arrayDone {
		pos := r.cursor.Pos()
		snap := r.refs.TakeSnapshot()

		v, err := r.dec.ReadValue()
		if err != nil {
			if errors.Is(err, amf3.ErrInsufficientData) {
				r.cursor.SetPos(pos)
				r.refs.Truncate(snap)
				return RawRecord{}, false, nil
			}
			return RawRecord{}, false, err
		}
		if v.Kind != amf3.KindArray {
			return RawRecord{}, false, fmt.Errorf("capture: array-format top-level value has kind %v, want array", v.Kind)
		}
		r.arrayDense = v.Array.Dense
		r.arrayDone = true
		r.refs.ClearObjects()
	}

	if r.arrayIdx >= len(r.arrayDense) {
		return RawRecord{}, false, nil
	}
	v := r.arrayDense[r.arrayIdx]
	r.arrayIdx++

	rec, err := valueToRawRecord(v)
	if err != nil {
		return RawRecord{}, false, err
	}
	return rec, true, nil
}

// Exhausted reports whether an array-format capture has yielded every
// record it contains. Always false for the stream and legacy formats,
// which have no a-priori record count.
func (r *Reader) Exhausted() bool {
	return r.format == FormatArray && r.arrayDone && r.arrayIdx >= len(r.arrayDense)
}
