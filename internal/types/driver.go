package types

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"duck-adapter/internal/domain"
)

// FromDriver converts a value scanned from the DuckDB driver into a Value.
// dbType is the column's database type name and decides how time.Time
// payloads are tagged. The result never borrows driver memory.
//
// Only scalar columns convert. INTERVAL, LIST, STRUCT and MAP values fail with
// a DeserializationError; cast them to VARCHAR in the query to read them.
func FromDriver(src any, dbType string) (Value, error) {
	switch v := src.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case int8:
		return Int8(v), nil
	case int16:
		return Int16(v), nil
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case int:
		return Int64(int64(v)), nil
	case uint8:
		return Int16(int16(v)), nil
	case uint16:
		return Int32(int32(v)), nil
	case uint32:
		return Int64(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, domain.ErrDeserialization("unsigned value %d overflows BIGINT", v)
		}
		return Int64(int64(v)), nil
	case float32:
		return Float32(v), nil
	case float64:
		return Float64(v), nil
	case string:
		return Text(v), nil
	case []byte:
		if strings.EqualFold(dbType, "UUID") {
			u, err := uuid.FromBytes(v)
			if err != nil {
				return Value{}, domain.ErrDeserialization("decode UUID: %v", err)
			}
			return Text(u.String()), nil
		}
		return BorrowedBlob(v).Owned(), nil
	case time.Time:
		return temporal(v, dbType), nil
	case *big.Int:
		if v == nil {
			return Null(), nil
		}
		if v.IsInt64() {
			return Int64(v.Int64()), nil
		}
		return Text(v.String()), nil
	case interface{ Float64() float64 }:
		// DECIMAL
		return Float64(v.Float64()), nil
	case fmt.Stringer:
		return Text(v.String()), nil
	}
	return Value{}, domain.ErrDeserialization("unsupported native value %T for column type %s", src, dbType)
}

func temporal(t time.Time, dbType string) Value {
	switch name := strings.ToUpper(strings.TrimSpace(dbType)); {
	case name == "DATE":
		return DateValue(t)
	case strings.HasPrefix(name, "TIME") && !strings.HasPrefix(name, "TIMESTAMP"):
		return TimeValue(t)
	default:
		return TimestampValue(t)
	}
}
