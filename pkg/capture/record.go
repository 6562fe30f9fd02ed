// Package capture implements the framed "metric record" reader
// (spec.md §4.6, the MetricReader component): it wraps an AMF3 decoder
// with transactional rewind so a telemetry producer may flush a partial
// record at any byte boundary without corrupting the shared strings and
// traits reference tables.
package capture

import (
	"fmt"

	"github.com/relaypoint/flmtrace/pkg/amf3"
)

// RawRecord is one decoded metric record before time normalization
// (spec.md §3's "Metric record", prior to the timeline builder's delta/
// time bookkeeping). Point events carry no span; span events carry a
// non-negative span and the record's time is interpreted as the span's
// END time (start = time - span), per spec.md's Span glossary entry.
type RawRecord struct {
	Name string

	HasDelta bool
	Delta    int64

	HasTime bool
	Time    int64

	HasSpan bool
	Span    int64

	HasValue bool
	Value    amf3.Value
}

// valueToRawRecord materializes a decoded AMF3 object (or array, for the
// array-framed format) into a RawRecord by reading its well-known
// "name"/"time"/"span"/"value"/"delta" fields. Both the stream format's
// top-level objects and the array format's dense elements are shaped
// this way by the producer.
func valueToRawRecord(v amf3.Value) (RawRecord, error) {
	fields, err := fieldsOf(v)
	if err != nil {
		return RawRecord{}, err
	}

	rec := RawRecord{}
	nameVal, ok := fields["name"]
	if !ok {
		return RawRecord{}, fmt.Errorf("capture: record missing \"name\" field")
	}
	rec.Name = nameVal.Str

	if tv, ok := fields["time"]; ok {
		n, err := numericField(tv)
		if err != nil {
			return RawRecord{}, fmt.Errorf("capture: field \"time\": %w", err)
		}
		rec.HasTime = true
		rec.Time = n
	}
	if dv, ok := fields["delta"]; ok {
		n, err := numericField(dv)
		if err != nil {
			return RawRecord{}, fmt.Errorf("capture: field \"delta\": %w", err)
		}
		rec.HasDelta = true
		rec.Delta = n
	}
	if sv, ok := fields["span"]; ok {
		n, err := numericField(sv)
		if err != nil {
			return RawRecord{}, fmt.Errorf("capture: field \"span\": %w", err)
		}
		rec.HasSpan = true
		rec.Span = n
	}
	if vv, ok := fields["value"]; ok {
		rec.HasValue = true
		rec.Value = vv
	}
	return rec, nil
}

// fieldsOf returns the named-field view of a decoded record value,
// whichever container kind the producer used for it.
func fieldsOf(v amf3.Value) (map[string]amf3.Value, error) {
	switch v.Kind {
	case amf3.KindObject:
		return v.Object.Fields, nil
	case amf3.KindArray:
		fields := make(map[string]amf3.Value, v.Array.Named.Len())
		for _, k := range v.Array.Named.Keys() {
			fv, _ := v.Array.Named.Get(k)
			fields[k] = fv
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("capture: record value has unsupported kind %v", v.Kind)
	}
}

// numericField accepts either an AMF3 integer or double, since a real
// producer may emit either depending on magnitude.
func numericField(v amf3.Value) (int64, error) {
	switch v.Kind {
	case amf3.KindInt:
		return int64(v.Int), nil
	case amf3.KindDouble:
		return int64(v.Double), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got kind %v", v.Kind)
	}
}
