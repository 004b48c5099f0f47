package types

import (
	"fmt"
	"strings"
	"sync"
)

// Category is an abstract scalar category understood by the adapter.
type Category string

// Built-in categories.
const (
	CategoryBool      Category = "bool"
	CategoryTinyInt   Category = "tinyint"
	CategorySmallInt  Category = "smallint"
	CategoryInteger   Category = "integer"
	CategoryBigInt    Category = "bigint"
	CategoryFloat     Category = "float"
	CategoryDouble    Category = "double"
	CategoryText      Category = "text"
	CategoryBinary    Category = "binary"
	CategoryDate      Category = "date"
	CategoryTime      Category = "time"
	CategoryTimestamp Category = "timestamp"
)

// CategoryInfo describes a registered category: the DuckDB type used in DDL
// and the native Kind its values serialize to.
type CategoryInfo struct {
	Category Category
	SQLType  string
	Kind     Kind
}

type categoryRegistry struct {
	mu   sync.RWMutex
	cats map[Category]CategoryInfo
}

// registry is populated during variable initialization so that the built-in
// codecs below can resolve their categories before any init function runs.
var registry = newRegistry()

func newRegistry() *categoryRegistry {
	r := &categoryRegistry{cats: make(map[Category]CategoryInfo)}
	for _, info := range []CategoryInfo{
		{CategoryBool, "BOOLEAN", KindBool},
		{CategoryTinyInt, "TINYINT", KindInt8},
		{CategorySmallInt, "SMALLINT", KindInt16},
		{CategoryInteger, "INTEGER", KindInt32},
		{CategoryBigInt, "BIGINT", KindInt64},
		{CategoryFloat, "FLOAT", KindFloat32},
		{CategoryDouble, "DOUBLE", KindFloat64},
		{CategoryText, "VARCHAR", KindText},
		{CategoryBinary, "BLOB", KindBlob},
		{CategoryDate, "DATE", KindDate},
		{CategoryTime, "TIME", KindTime},
		{CategoryTimestamp, "TIMESTAMP", KindTimestamp},
	} {
		if err := r.register(info); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a category. It is the single registration point for new
// scalar categories and fails for duplicates, empty names, Null or unknown kinds.
func Register(info CategoryInfo) error {
	return registry.register(info)
}

func (r *categoryRegistry) register(info CategoryInfo) error {
	if info.Category == "" {
		return fmt.Errorf("category name is required")
	}
	if !info.Kind.Valid() || info.Kind == KindNull {
		return fmt.Errorf("category %q: invalid native kind %s", info.Category, info.Kind)
	}
	if strings.TrimSpace(info.SQLType) == "" {
		return fmt.Errorf("category %q: SQL type is required", info.Category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cats[info.Category]; ok {
		return fmt.Errorf("category %q already registered", info.Category)
	}
	r.cats[info.Category] = info
	return nil
}

// Lookup returns the registration for c.
func Lookup(c Category) (CategoryInfo, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	info, ok := registry.cats[c]
	return info, ok
}

// MustLookup is like Lookup but panics for unregistered categories.
func MustLookup(c Category) CategoryInfo {
	info, ok := Lookup(c)
	if !ok {
		panic(fmt.Sprintf("types: category %q is not registered", c))
	}
	return info
}
