package types

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"duck-adapter/internal/domain"
)

// Output is the single-value buffer a Serializer writes into. A fresh
// Output holds Null.
type Output struct {
	value Value
}

// SetValue replaces the buffered value.
func (o *Output) SetValue(v Value) { o.value = v }

// Value returns the buffered value.
func (o *Output) Value() Value { return o.value }

// Serializer converts one Go value into out. Returning isNull=true declares
// the value absent; anything written to out is then discarded.
type Serializer interface {
	ToSQL(out *Output) (isNull bool, err error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(out *Output) (bool, error)

// ToSQL calls f(out).
func (f SerializerFunc) ToSQL(out *Output) (bool, error) { return f(out) }

// Codec converts between Go type T and the native value of one category.
type Codec[T any] struct {
	info   CategoryInfo
	encode func(T) Value
	decode func(Value) (T, error)
}

// NewCodec builds a codec for a registered category. It panics when the
// category is unknown, so a missing registration fails at init rather than
// at bind time.
func NewCodec[T any](c Category, encode func(T) Value, decode func(Value) (T, error)) Codec[T] {
	return Codec[T]{info: MustLookup(c), encode: encode, decode: decode}
}

// Category returns the codec's category.
func (c Codec[T]) Category() Category { return c.info.Category }

// SQLType returns the DuckDB type name of the codec's category.
func (c Codec[T]) SQLType() string { return c.info.SQLType }

// Serialize converts v to its native value.
func (c Codec[T]) Serialize(v T) Value { return c.encode(v) }

// Deserialize converts a native value back to T. It fails with a
// DeserializationError on a tag mismatch or a payload that violates the
// category.
func (c Codec[T]) Deserialize(v Value) (T, error) {
	return c.decode(v)
}

// Bind returns a Serializer that writes v through the codec. Text that is
// not valid UTF-8 fails with a SerializationError, since DuckDB rejects it.
func (c Codec[T]) Bind(v T) Serializer {
	return SerializerFunc(func(out *Output) (bool, error) {
		return false, c.write(out, c.encode(v))
	})
}

func (c Codec[T]) write(out *Output, v Value) error {
	if v.Kind() == KindText && !utf8.ValidString(v.str) {
		return domain.ErrSerialization("%s value %q is not valid UTF-8", c.info.Category, v.str)
	}
	out.SetValue(v)
	return nil
}

// Nullable lifts c to pointers: nil maps to Null in both directions.
func Nullable[T any](c Codec[T]) Codec[*T] {
	return Codec[*T]{
		info: c.info,
		encode: func(p *T) Value {
			if p == nil {
				return Null()
			}
			return c.encode(*p)
		},
		decode: func(v Value) (*T, error) {
			if v.IsNull() {
				return nil, nil
			}
			t, err := c.decode(v)
			if err != nil {
				return nil, err
			}
			return &t, nil
		},
	}
}

// BindNullable returns a Serializer for an optional value. A nil pointer
// reports null, so the bind collector records an explicit Null.
func BindNullable[T any](c Codec[T], v *T) Serializer {
	return SerializerFunc(func(out *Output) (bool, error) {
		if v == nil {
			return true, nil
		}
		return false, c.write(out, c.encode(*v))
	})
}

// Built-in codecs, one per registered category.
var (
	Boolean   = NewCodec(CategoryBool, Bool, decodeBool)
	TinyInt   = NewCodec(CategoryTinyInt, Int8, decodeInt[int8](CategoryTinyInt))
	SmallInt  = NewCodec(CategorySmallInt, Int16, decodeInt[int16](CategorySmallInt))
	Integer   = NewCodec(CategoryInteger, Int32, decodeInt[int32](CategoryInteger))
	BigInt    = NewCodec(CategoryBigInt, Int64, decodeInt[int64](CategoryBigInt))
	Float     = NewCodec(CategoryFloat, Float32, decodeFloat32)
	Double    = NewCodec(CategoryDouble, Float64, decodeFloat64)
	Varchar   = NewCodec(CategoryText, Text, decodeText)
	Binary    = NewCodec(CategoryBinary, Blob, decodeBinary)
	Date      = NewCodec(CategoryDate, DateValue, decodeDate)
	Time      = NewCodec(CategoryTime, TimeValue, decodeTime)
	Timestamp = NewCodec(CategoryTimestamp, TimestampValue, decodeTimestamp)
)

func mismatch(c Category, v Value) error {
	if v.IsNull() {
		return domain.ErrDeserialization("unexpected NULL for non-nullable %s", c)
	}
	return domain.ErrDeserialization("cannot decode %s value as %s", v.Kind(), c)
}

func decodeBool(v Value) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, mismatch(CategoryBool, v)
	}
	return b, nil
}

func decodeInt[T int8 | int16 | int32 | int64](c Category) func(Value) (T, error) {
	return func(v Value) (T, error) {
		i, ok := v.AsInt()
		if !ok {
			return 0, mismatch(c, v)
		}
		t := T(i)
		if int64(t) != i {
			return 0, domain.ErrDeserialization("value %d out of range for %s", i, c)
		}
		return t, nil
	}
}

func decodeFloat32(v Value) (float32, error) {
	f, ok := v.AsFloat()
	if !ok {
		return 0, mismatch(CategoryFloat, v)
	}
	if v.Kind() == KindFloat64 && !math.IsNaN(f) && float64(float32(f)) != f {
		return 0, domain.ErrDeserialization("value %g is not representable as %s", f, CategoryFloat)
	}
	return float32(f), nil
}

func decodeFloat64(v Value) (float64, error) {
	f, ok := v.AsFloat()
	if !ok {
		return 0, mismatch(CategoryDouble, v)
	}
	return f, nil
}

func decodeText(v Value) (string, error) {
	s, ok := v.AsText()
	if !ok {
		return "", mismatch(CategoryText, v)
	}
	return s, nil
}

func decodeBinary(v Value) ([]byte, error) {
	switch v.Kind() {
	case KindBlob:
		return append([]byte{}, v.blob...), nil
	case KindText:
		return []byte(v.str), nil
	}
	return nil, mismatch(CategoryBinary, v)
}

func decodeDate(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindDate:
		return v.ts, nil
	case KindTimestamp:
		if !v.ts.Equal(normalizeDate(v.ts)) {
			return time.Time{}, domain.ErrDeserialization("timestamp %s has a time part and cannot decode as %s", v, CategoryDate)
		}
		return v.ts, nil
	case KindText:
		t, err := time.Parse(DateLayout, strings.TrimSpace(v.str))
		if err != nil {
			return time.Time{}, domain.ErrDeserialization("invalid date %q: %v", v.str, err)
		}
		return normalizeDate(t), nil
	}
	return time.Time{}, mismatch(CategoryDate, v)
}

func decodeTime(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindTime:
		return v.ts, nil
	case KindText:
		t, err := time.Parse("15:04:05", strings.TrimSpace(v.str))
		if err != nil {
			return time.Time{}, domain.ErrDeserialization("invalid time %q: %v", v.str, err)
		}
		return normalizeClock(t), nil
	}
	return time.Time{}, mismatch(CategoryTime, v)
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	DateLayout,
}

func decodeTimestamp(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindTimestamp, KindDate:
		return v.ts, nil
	case KindText:
		s := strings.TrimSpace(v.str)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return normalizeTimestamp(t), nil
			}
		}
		return time.Time{}, domain.ErrDeserialization("invalid timestamp %q", v.str)
	}
	return time.Time{}, mismatch(CategoryTimestamp, v)
}
