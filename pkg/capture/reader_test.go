package capture

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureBuilder hand-encodes minimal AMF3 bytes for test fixtures. This
// module implements AMF3 decoding only (see spec.md Non-goals); these
// helpers exist purely so tests can construct wire bytes without a
// production encoder.
type fixtureBuilder struct {
	buf []byte
}

func (b *fixtureBuilder) u29(n uint32) {
	switch {
	case n < 0x80:
		b.buf = append(b.buf, byte(n))
	case n < 0x4000:
		b.buf = append(b.buf, byte(n>>7)|0x80, byte(n&0x7F))
	case n < 0x200000:
		b.buf = append(b.buf, byte(n>>14)|0x80, byte(n>>7)&0x7F|0x80, byte(n&0x7F))
	default:
		b.buf = append(b.buf, byte(n>>22)|0x80, byte(n>>15)&0x7F|0x80, byte(n>>8)&0x7F|0x80, byte(n))
	}
}

func (b *fixtureBuilder) byteVal(x byte) { b.buf = append(b.buf, x) }

// stringInline writes a string value in a ReadValue() position (marker
// byte plus inline header and bytes) — used for field values.
func (b *fixtureBuilder) stringInline(s string) {
	b.byteVal(0x06)
	b.rawString(s)
}

// rawString writes a bare inline string header and bytes with no type
// marker — used for object field keys, class names, and legacy metric
// names, all of which ReadStringNoCache/readString consume directly.
func (b *fixtureBuilder) rawString(s string) {
	b.u29(uint32(len(s))<<1 | 1)
	b.buf = append(b.buf, s...)
}

func (b *fixtureBuilder) intVal(n int32) {
	b.byteVal(0x04)
	b.u29(uint32(n) & 0x1FFFFFFF)
}

func TestReader_FormatDetection(t *testing.T) {
	cases := []struct {
		name   string
		first  byte
		format Format
	}{
		{"stream", 0x0A, FormatStream},
		{"array", 0x09, FormatArray},
		{"legacy", 0xFF, FormatLegacy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(testLogger())
			r.Append([]byte{tc.first})
			got, ok := r.Format()
			if !ok {
				t.Fatal("expected format detection to succeed")
			}
			if got != tc.format {
				t.Errorf("got %v, want %v", got, tc.format)
			}
		})
	}
}

func TestReader_StreamRecord(t *testing.T) {
	var b fixtureBuilder
	b.byteVal(0x0A)
	b.u29(0b1011)
	b.rawString("")
	b.rawString("name")
	b.stringInline(".swf.frame")
	b.rawString("time")
	b.intVal(16667)
	b.u29(1) // terminator

	r := NewReaderFromBytes(b.buf, testLogger())
	rec, ok, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Name != ".swf.frame" {
		t.Errorf("name = %q", rec.Name)
	}
	if !rec.HasTime || rec.Time != 16667 {
		t.Errorf("time = %+v", rec)
	}
}

// TestReader_TransactionalRewind verifies spec.md §8 property 3: feeding
// a well-formed stream truncated mid-record, then appending the rest,
// yields the same record as feeding it whole.
func TestReader_TransactionalRewind(t *testing.T) {
	var b fixtureBuilder
	b.byteVal(0x0A)
	b.u29(0b1011)
	b.rawString("")
	b.rawString("name")
	b.stringInline(".mem.total")
	b.rawString("value")
	b.intVal(42)
	b.u29(1)
	full := b.buf

	split := len(full) - 3
	r := NewReaderFromBytes(full[:split], testLogger())

	if _, ok, err := r.ReadRecord(); ok || err != nil {
		t.Fatalf("expected partial read before full data available, got ok=%v err=%v", ok, err)
	}

	r.Append(full[split:])
	rec, ok, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record once the rest of the bytes arrive")
	}
	if rec.Name != ".mem.total" || !rec.HasValue || rec.Value.Int != 42 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestReader_StringsSurviveRewind(t *testing.T) {
	var b fixtureBuilder
	b.byteVal(0x0A)
	b.u29(0b1011)
	b.rawString("")
	b.rawString("name")
	b.stringInline(".tlm.version")
	b.rawString("value")
	b.intVal(1)
	b.u29(1)
	full := b.buf

	r := NewReaderFromBytes(full, testLogger())
	if _, ok, err := r.ReadRecord(); !ok || err != nil {
		t.Fatalf("expected first record to succeed, ok=%v err=%v", ok, err)
	}
	before := len(r.refs.Strings)

	// Append a second record whose field key is a back-reference to
	// strings[0] (".tlm.version", the only string the first record
	// interned; field keys are never interned), then cut it off right
	// after the value's type marker so the integer itself is missing.
	var b2 fixtureBuilder
	b2.byteVal(0x0A)
	b2.u29(0b1011)
	b2.rawString("")
	b2.u29(0) // field key: reference to strings[0] (".tlm.version")
	b2.byteVal(0x04)
	r.Append(b2.buf)

	if _, ok, err := r.ReadRecord(); ok || err != nil {
		t.Fatalf("expected partial read, got ok=%v err=%v", ok, err)
	}
	if got := len(r.refs.Strings); got != before {
		t.Errorf("strings table length changed on rewind: %d -> %d", before, got)
	}
}

func TestReader_ArrayFormat(t *testing.T) {
	var b fixtureBuilder
	b.byteVal(0x09)
	b.u29(uint32(1)<<1 | 1) // dense count = 1
	b.u29(1)                // assoc terminator
	// dense[0]: object{name:".rend.screen", time:100}
	b.byteVal(0x0A)
	b.u29(0b1011)
	b.rawString("")
	b.rawString("name")
	b.stringInline(".rend.screen")
	b.rawString("time")
	b.intVal(100)
	b.u29(1)

	r := NewReaderFromBytes(b.buf, testLogger())
	rec, ok, err := r.ReadRecord()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if rec.Name != ".rend.screen" || rec.Time != 100 {
		t.Errorf("rec = %+v", rec)
	}
	if _, ok, err := r.ReadRecord(); ok || err != nil {
		t.Fatalf("expected exhaustion, got ok=%v err=%v", ok, err)
	}
	if !r.Exhausted() {
		t.Error("expected reader to report exhausted")
	}
}

func TestReader_LegacyFormat(t *testing.T) {
	var b fixtureBuilder
	b.rawString(".as.Foo.time")
	b.intVal(1234)

	r := NewReaderFromBytes(b.buf, testLogger())
	rec, ok, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a legacy record")
	}
	if rec.Name != ".as.Foo" || !rec.HasTime || rec.Time != 1234 {
		t.Errorf("rec = %+v", rec)
	}
	if len(r.refs.Strings) != 0 {
		t.Errorf("legacy metric names must not be interned, got %v", r.refs.Strings)
	}
}

func TestReader_LegacyFormat_CountSuffix(t *testing.T) {
	var b fixtureBuilder
	b.rawString(".tlm.events.count")
	b.intVal(7)

	r := NewReaderFromBytes(b.buf, testLogger())
	rec, ok, err := r.ReadRecord()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if rec.Name != ".tlm.events" || !rec.HasValue || rec.Value.Int != 7 {
		t.Errorf("rec = %+v", rec)
	}
}
