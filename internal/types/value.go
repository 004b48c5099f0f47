// Package types maps Go scalar values to and from the native value
// representation used by the DuckDB driver.
//
// Every value crossing the engine boundary is a [Value]: a closed tagged
// union whose tag is the native [Kind]. A [Codec] converts between one Go
// type and one [Category]; categories are registered once at init and carry
// the DuckDB type name and the Kind they serialize to.
package types

import (
	"bytes"
	"fmt"
	"math"
	"time"
)

// Kind is the native tag of a Value.
type Kind uint8

// Native value tags.
const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	KindBlob
	KindDate
	KindTime
	KindTimestamp
	kindCount
)

var kindNames = [...]string{
	KindNull:      "NULL",
	KindBool:      "BOOLEAN",
	KindInt8:      "TINYINT",
	KindInt16:     "SMALLINT",
	KindInt32:     "INTEGER",
	KindInt64:     "BIGINT",
	KindFloat32:   "FLOAT",
	KindFloat64:   "DOUBLE",
	KindText:      "VARCHAR",
	KindBlob:      "BLOB",
	KindDate:      "DATE",
	KindTime:      "TIME",
	KindTimestamp: "TIMESTAMP",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared tags.
func (k Kind) Valid() bool { return k < kindCount }

// Value is the native tagged scalar. The zero Value is Null.
//
// Blob payloads may be borrowed from a driver buffer; Owned returns a copy
// that is safe to retain after the originating call returns.
type Value struct {
	kind     Kind
	bits     uint64
	str      string
	blob     []byte
	ts       time.Time
	borrowed bool
}

// Null returns the explicit Null value.
func Null() Value { return Value{} }

// Bool returns a Bool value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Int8 returns an Int8 value.
func Int8(i int8) Value { return Value{kind: KindInt8, bits: uint64(int64(i))} }

// Int16 returns an Int16 value.
func Int16(i int16) Value { return Value{kind: KindInt16, bits: uint64(int64(i))} }

// Int32 returns an Int32 value.
func Int32(i int32) Value { return Value{kind: KindInt32, bits: uint64(int64(i))} }

// Int64 returns an Int64 value.
func Int64(i int64) Value { return Value{kind: KindInt64, bits: uint64(i)} }

// Float32 returns a Float32 value. NaN payloads are passed through untouched.
func Float32(f float32) Value { return Value{kind: KindFloat32, bits: uint64(math.Float32bits(f))} }

// Float64 returns a Float64 value. NaN payloads are passed through untouched.
func Float64(f float64) Value { return Value{kind: KindFloat64, bits: math.Float64bits(f)} }

// Text returns a Text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Blob returns an owned Blob value; b is copied.
func Blob(b []byte) Value {
	return Value{kind: KindBlob, blob: bytes.Clone(nonNil(b))}
}

// BorrowedBlob returns a Blob value that aliases b. The caller must not
// retain it past the lifetime of b without calling Owned.
func BorrowedBlob(b []byte) Value {
	return Value{kind: KindBlob, blob: nonNil(b), borrowed: true}
}

// DateValue returns a Date value normalized to UTC midnight.
func DateValue(t time.Time) Value { return Value{kind: KindDate, ts: normalizeDate(t)} }

// TimeValue returns a Time value normalized to the clock reading on 0000-01-01 UTC.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, ts: normalizeClock(t)} }

// TimestampValue returns a Timestamp value normalized to UTC at microsecond precision.
func TimestampValue(t time.Time) Value { return Value{kind: KindTimestamp, ts: normalizeTimestamp(t)} }

// Kind returns the native tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the explicit Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Borrowed reports whether v aliases memory it does not own.
func (v Value) Borrowed() bool { return v.borrowed }

// Owned returns v with any borrowed payload copied.
func (v Value) Owned() Value {
	if !v.borrowed {
		return v
	}
	v.blob = bytes.Clone(v.blob)
	v.borrowed = false
	return v
}

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() (bool, bool) { return v.bits == 1, v.kind == KindBool }

// AsInt returns the payload of any integer value, sign-extended to int64.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return int64(v.bits), true
	}
	return 0, false
}

// AsFloat returns the payload of a Float32 or Float64 value.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat32:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case KindFloat64:
		return math.Float64frombits(v.bits), true
	}
	return 0, false
}

// AsText returns the payload of a Text value.
func (v Value) AsText() (string, bool) { return v.str, v.kind == KindText }

// AsBlob returns the payload of a Blob value. The slice may be borrowed.
func (v Value) AsBlob() ([]byte, bool) { return v.blob, v.kind == KindBlob }

// AsTime returns the payload of a Date, Time or Timestamp value.
func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindDate, KindTime, KindTimestamp:
		return v.ts, true
	}
	return time.Time{}, false
}

// Equal reports whether two values carry the same tag and payload. Floats are
// compared bitwise, so a NaN equals the same NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return v.str == o.str
	case KindBlob:
		return bytes.Equal(v.blob, o.blob)
	case KindDate, KindTime, KindTimestamp:
		return v.ts.Equal(o.ts)
	default:
		return v.bits == o.bits
	}
}

// Arg returns the driver argument used to bind v.
func (v Value) Arg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.bits == 1
	case KindInt8:
		return int8(v.bits)
	case KindInt16:
		return int16(v.bits)
	case KindInt32:
		return int32(v.bits)
	case KindInt64:
		return int64(v.bits)
	case KindFloat32:
		return math.Float32frombits(uint32(v.bits))
	case KindFloat64:
		return math.Float64frombits(v.bits)
	case KindText:
		return v.str
	case KindBlob:
		return v.blob
	case KindDate, KindTimestamp:
		return v.ts
	case KindTime:
		// DuckDB has no year 0; anchor the clock on the Unix epoch for binding.
		return time.Date(1970, 1, 1, v.ts.Hour(), v.ts.Minute(), v.ts.Second(), v.ts.Nanosecond(), time.UTC)
	}
	panic(fmt.Sprintf("types: unreachable native value kind %d", v.kind))
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%t", v.bits == 1)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%d", int64(v.bits))
	case KindFloat32, KindFloat64:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case KindText:
		return v.str
	case KindBlob:
		return fmt.Sprintf("\\x%x", v.blob)
	case KindDate:
		return v.ts.Format(DateLayout)
	case KindTime:
		return v.ts.Format(TimeLayout)
	case KindTimestamp:
		return v.ts.Format(TimestampLayout)
	}
	return v.kind.String()
}

// Text layouts used when dates and times travel as strings.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05.999999"
	TimestampLayout = "2006-01-02 15:04:05.999999"
)

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeClock(t time.Time) time.Time {
	return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000*1000, time.UTC)
}

func normalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
