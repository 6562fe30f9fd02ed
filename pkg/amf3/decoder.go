package amf3

// AMF3 type markers (spec.md §4.5).
const (
	markerUndefined  = 0x00
	markerNull       = 0x01
	markerFalse      = 0x02
	markerTrue       = 0x03
	markerInteger    = 0x04
	markerDouble     = 0x05
	markerString     = 0x06
	markerXMLDoc     = 0x07
	markerDate       = 0x08
	markerArray      = 0x09
	markerObject     = 0x0A
	markerXML        = 0x0B
	markerByteArray  = 0x0C
	markerVectorInt  = 0x0D
	markerVectorUint = 0x0E
	markerVectorDbl  = 0x0F
	markerVectorObj  = 0x10
	markerDictionary = 0x11
)

// Decoder reads a sequence of AMF3 values from a ByteCursor, consulting
// and updating a RefTables for the duration of the decoding session.
//
// This is the teacher's AMF3Context/DecodeAMF3 generalized: the teacher
// supports a deliberately simplified subset (no traits references, no
// dynamic objects, no vectors, no dictionaries — see
// _examples/ssungk-ertmp/pkg/amf/amf3_decoder.go); this decoder
// implements every marker spec.md §4.5 requires, including traits reuse,
// dynamic fields, typed vectors, and dictionaries.
type Decoder struct {
	Cursor *ByteCursor
	Refs   *RefTables
}

// NewDecoder creates a decoder over cursor, using refs as its reference
// tables. Passing in refs (rather than owning a fresh set) lets a
// MetricReader reuse the strings/traits tables across records while
// clearing only the objects table at record boundaries.
func NewDecoder(cursor *ByteCursor, refs *RefTables) *Decoder {
	return &Decoder{Cursor: cursor, Refs: refs}
}

// ReadValue reads one type-marker byte and dispatches to the matching
// value reader. Recursive: container readers call back into ReadValue
// for their elements.
func (d *Decoder) ReadValue() (Value, error) {
	marker, err := d.Cursor.ReadByte()
	if err != nil {
		return Value{}, err
	}
	switch marker {
	case markerUndefined:
		return UndefinedValue(), nil
	case markerNull:
		return NullValue(), nil
	case markerFalse:
		return BoolValue(false), nil
	case markerTrue:
		return BoolValue(true), nil
	case markerInteger:
		i, err := DecodeInteger(d.Cursor)
		if err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case markerDouble:
		f, err := d.Cursor.ReadF64BE()
		if err != nil {
			return Value{}, err
		}
		return DoubleValue(f), nil
	case markerString:
		s, err := d.readString(false)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case markerXMLDoc, markerXML:
		return d.readXML()
	case markerDate:
		return d.readDate()
	case markerArray:
		return d.readArray()
	case markerObject:
		return d.readObject()
	case markerByteArray:
		return d.readByteArray()
	case markerVectorInt:
		return d.readVector(VectorInt32)
	case markerVectorUint:
		return d.readVector(VectorUint32)
	case markerVectorDbl:
		return d.readVector(VectorDouble)
	case markerVectorObj:
		return d.readVector(VectorObject)
	case markerDictionary:
		return d.readDictionary()
	default:
		return Value{}, newDecodeError(d.Cursor.Pos()-1, ErrUnknownMarker)
	}
}

// ReadStringNoCache reads one AMF3 string without interning it, for
// callers (such as the legacy capture framing, spec.md §9) that know
// the producer never adds a particular string to the shared table.
func (d *Decoder) ReadStringNoCache() (string, error) {
	return d.readString(true)
}

// readString reads the AMF3 string body (spec.md §4.4). noCache
// disables interning, used for trait member names and other contexts
// where the producer never adds the string to the table.
func (d *Decoder) readString(noCache bool) (string, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return "", err
	}
	if u&1 == 0 {
		return d.Refs.LookupString(int(u >> 1))
	}
	length := int(u >> 1)
	if length == 0 {
		return "", nil
	}
	raw, err := d.Cursor.ReadBytes(length)
	if err != nil {
		return "", err
	}
	s := string(raw)
	if !noCache {
		d.Refs.InternString(s)
	}
	return s, nil
}

// refOrLength reads the ref-or-body U29 header shared by xml,
// byte-array, date, array, dictionary and vector markers: bit 0 clear
// means a reference (remainder>>1 is the objects-table index); bit 0
// set means an inline body follows, with the remainder a length, count,
// or (for objects) a traits descriptor.
func refOrLength(u uint32) (isRef bool, n uint32) {
	if u&1 == 0 {
		return true, u >> 1
	}
	return false, u >> 1
}

func (d *Decoder) readXML() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	raw, err := d.Cursor.ReadBytes(int(n))
	if err != nil {
		return Value{}, err
	}
	v := Value{Kind: KindXML, Bytes: raw, Str: string(raw)}
	d.Refs.InternObject(v)
	return v, nil
}

func (d *Decoder) readByteArray() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	raw, err := d.Cursor.ReadBytes(int(n))
	if err != nil {
		return Value{}, err
	}
	v := Value{Kind: KindByteArray, Bytes: raw}
	d.Refs.InternObject(v)
	return v, nil
}

func (d *Decoder) readDate() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	ms, err := d.Cursor.ReadF64BE()
	if err != nil {
		return Value{}, err
	}
	v := Value{Kind: KindDate, Double: ms, Date: msToTime(ms)}
	d.Refs.InternObject(v)
	return v, nil
}

// readArray decodes an AMF3 array (spec.md §4.5): an inline form
// reserves an empty container and interns it BEFORE reading any
// children, so a child referencing the array itself (a cycle) resolves
// correctly. The associative portion is read first, terminated by an
// empty-string key, then exactly `count` dense values follow.
func (d *Decoder) readArray() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	count := int(n)
	arr := NewArrayValue(count)
	v := Value{Kind: KindArray, Array: arr}
	idx := d.Refs.InternObject(v)

	for {
		key, err := d.readString(true)
		if err != nil {
			return Value{}, err
		}
		if key == "" {
			break
		}
		val, err := d.ReadValue()
		if err != nil {
			return Value{}, err
		}
		arr.Named.Set(key, val)
	}
	for i := 0; i < count; i++ {
		val, err := d.ReadValue()
		if err != nil {
			return Value{}, err
		}
		arr.Dense[i] = val
	}
	d.Refs.SetObject(idx, v)
	return v, nil
}

// readObject decodes an AMF3 object (spec.md §4.5). The header's low
// bits carry the traits kind: "...01" is a traits-table reference,
// otherwise a fresh trait descriptor follows (class name, then one
// no-cache string per slot). Externalizable objects are rejected: this
// decoder, like the reference implementation it is ported from, does
// not know the producer-specific externalizable payload layout.
func (d *Decoder) readObject() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	if u&1 == 0 {
		return d.Refs.LookupObject(int(u >> 1))
	}

	var trait Trait
	if u&2 == 0 {
		idx := int(u >> 2)
		trait, err = d.Refs.LookupTrait(idx)
		if err != nil {
			return Value{}, err
		}
	} else {
		externalizable := u&4 != 0
		dynamic := u&8 != 0
		slotCount := int(u >> 4)
		if externalizable {
			return Value{}, newDecodeError(d.Cursor.Pos(), ErrUnknownMarker)
		}
		className, err := d.readString(true)
		if err != nil {
			return Value{}, err
		}
		slots := make([]string, slotCount)
		for i := range slots {
			slots[i], err = d.readString(true)
			if err != nil {
				return Value{}, err
			}
		}
		trait = Trait{ClassName: className, Dynamic: dynamic, Externalizable: externalizable, Slots: slots}
		d.Refs.InternTrait(trait)
	}

	obj := NewObjectValue(trait)
	v := Value{Kind: KindObject, Object: obj}
	idx := d.Refs.InternObject(v)

	for _, slot := range trait.Slots {
		val, err := d.ReadValue()
		if err != nil {
			return Value{}, err
		}
		obj.Fields[slot] = val
	}
	if trait.Dynamic {
		for {
			key, err := d.readString(true)
			if err != nil {
				return Value{}, err
			}
			if key == "" {
				break
			}
			val, err := d.ReadValue()
			if err != nil {
				return Value{}, err
			}
			obj.SetDynamic(key, val)
		}
	}
	d.Refs.SetObject(idx, v)
	return v, nil
}

// readDictionary decodes an AMF3 Dictionary: a weak-keys flag byte
// (ignored semantically, as AMF3 weak references have no Go analogue)
// followed by `count` key/value pairs of arbitrary Values.
func (d *Decoder) readDictionary() (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	count := int(n)
	weakByte, err := d.Cursor.ReadByte()
	if err != nil {
		return Value{}, err
	}
	dict := &DictValue{WeakKeys: weakByte == 1}
	v := Value{Kind: KindDictionary, Dict: dict}
	idx := d.Refs.InternObject(v)

	for i := 0; i < count; i++ {
		key, err := d.ReadValue()
		if err != nil {
			return Value{}, err
		}
		val, err := d.ReadValue()
		if err != nil {
			return Value{}, err
		}
		dict.Append(key, val)
	}
	d.Refs.SetObject(idx, v)
	return v, nil
}

// readVector decodes one of the four AMF3 typed-vector markers: a count
// and a fixed-size flag, then `count` elements of the given kind. Object
// vectors are additionally preceded by a no-cache class-name string.
func (d *Decoder) readVector(kind VectorKind) (Value, error) {
	u, err := DecodeUint29(d.Cursor)
	if err != nil {
		return Value{}, err
	}
	isRef, n := refOrLength(u)
	if isRef {
		return d.Refs.LookupObject(int(n))
	}
	count := int(n)
	fixedByte, err := d.Cursor.ReadByte()
	if err != nil {
		return Value{}, err
	}
	vec := &VectorValue{Kind: kind, Fixed: fixedByte == 1}
	v := Value{Kind: KindVector, Vector: vec}
	idx := d.Refs.InternObject(v)

	switch kind {
	case VectorInt32:
		vec.Int32s = make([]int32, count)
		for i := range vec.Int32s {
			raw, err := d.Cursor.ReadU32BE()
			if err != nil {
				return Value{}, err
			}
			vec.Int32s[i] = int32(raw)
		}
	case VectorUint32:
		vec.Uint32s = make([]uint32, count)
		for i := range vec.Uint32s {
			raw, err := d.Cursor.ReadU32BE()
			if err != nil {
				return Value{}, err
			}
			vec.Uint32s[i] = raw
		}
	case VectorDouble:
		vec.Doubles = make([]float64, count)
		for i := range vec.Doubles {
			raw, err := d.Cursor.ReadF64BE()
			if err != nil {
				return Value{}, err
			}
			vec.Doubles[i] = raw
		}
	case VectorObject:
		className, err := d.readString(true)
		if err != nil {
			return Value{}, err
		}
		vec.ClassName = className
		vec.Objects = make([]Value, count)
		for i := range vec.Objects {
			vec.Objects[i], err = d.ReadValue()
			if err != nil {
				return Value{}, err
			}
		}
	}
	d.Refs.SetObject(idx, v)
	return v, nil
}
