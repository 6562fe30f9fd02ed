package amf3

import "time"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindDouble
	KindString
	KindXML
	KindDate
	KindByteArray
	KindArray
	KindObject
	KindDictionary
	KindVector
)

// VectorKind distinguishes the four AMF3 typed-vector element types.
type VectorKind int

const (
	VectorInt32 VectorKind = iota
	VectorUint32
	VectorDouble
	VectorObject
)

// Value is a tagged variant over every AMF3 value kind. Scalars are
// held directly; complex kinds are held behind pointers so that a Value
// read from the objects reference table and a Value materialized fresh
// share identity the way AMF3's cyclic references expect.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int32
	Double float64
	Str    string    // string value, or xml text (same bytes as Bytes)
	Bytes  []byte     // xml / byte-array raw payload
	Date   time.Time

	Array *ArrayValue
	Object *ObjectValue
	Dict   *DictValue
	Vector *VectorValue
}

// OrderedMap is an insertion-ordered string-keyed map, used for the
// associative (named) portion of an AMF3 array and for an object's
// dynamic fields, where iteration order is externally observable (it
// is itself reproduced on the wire by a real producer).
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]Value)}
}

// Set inserts or overwrites key. Overwriting an existing key does not
// change its position in iteration order.
func (m *OrderedMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// ArrayValue models an AMF3 array, which may carry both a dense integer
// range [0, Count) and an arbitrary set of named (string-keyed) slots.
// These are modeled as two distinct namespaces rather than one keyed
// map, per spec.md §9, so consumers that care can tell them apart.
type ArrayValue struct {
	Dense []Value
	Named *OrderedMap
}

// NewArrayValue returns an empty array value with `count` dense slots
// reserved (zero-valued until filled in).
func NewArrayValue(count int) *ArrayValue {
	return &ArrayValue{
		Dense: make([]Value, count),
		Named: NewOrderedMap(),
	}
}

// ObjectValue models a decoded AMF3 object: fixed slots in declaration
// order (from the Trait) plus, if the trait is dynamic, additional
// fields appended in wire order.
type ObjectValue struct {
	ClassName      string
	Dynamic        bool
	Externalizable bool
	// SlotOrder is the trait's fixed field order; DynamicOrder is the
	// order dynamic fields arrived in. Fields holds every value keyed
	// by name, fixed or dynamic.
	SlotOrder    []string
	DynamicOrder []string
	Fields       map[string]Value
}

// NewObjectValue allocates an object shell for the given trait, with
// fields ready to be filled in slot by slot.
func NewObjectValue(t Trait) *ObjectValue {
	return &ObjectValue{
		ClassName:      t.ClassName,
		Dynamic:        t.Dynamic,
		Externalizable: t.Externalizable,
		SlotOrder:      t.Slots,
		Fields:         make(map[string]Value, len(t.Slots)),
	}
}

// SetDynamic appends a dynamic field, tracking its arrival order.
func (o *ObjectValue) SetDynamic(key string, v Value) {
	if _, ok := o.Fields[key]; !ok {
		o.DynamicOrder = append(o.DynamicOrder, key)
	}
	o.Fields[key] = v
}

// DictValue models an AMF3 Dictionary: an arbitrary-key map that
// preserves pair insertion order (keys need not be strings, so this
// cannot be an OrderedMap).
type DictValue struct {
	WeakKeys bool
	Keys     []Value
	Values   []Value
}

// Append adds a key/value pair in wire order.
func (d *DictValue) Append(key, val Value) {
	d.Keys = append(d.Keys, key)
	d.Values = append(d.Values, val)
}

// VectorValue models one of the four AMF3 typed-vector kinds.
type VectorValue struct {
	Kind      VectorKind
	Fixed     bool
	ClassName string // only meaningful for VectorObject
	Int32s    []int32
	Uint32s   []uint32
	Doubles   []float64
	Objects   []Value
}

// Convenience constructors for scalar values, used throughout decoder.go.

func UndefinedValue() Value { return Value{Kind: KindUndefined} }
func NullValue() Value      { return Value{Kind: KindNull} }
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}
func IntValue(i int32) Value {
	return Value{Kind: KindInt, Int: i}
}
func DoubleValue(d float64) Value {
	return Value{Kind: KindDouble, Double: d}
}
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// msToTime converts an AMF3 date's millisecond-since-epoch double into
// a time.Time, truncating any fractional millisecond.
func msToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}
