// Package errmap translates failures crossing the DuckDB boundary into the
// adapter's error taxonomy.
//
// Classification is heuristic: DuckDB reports constraint failures as plain
// messages, so the kind is recovered from message text. The heuristic sits
// behind the [Classifier] interface and can be replaced per connection.
package errmap

import (
	"errors"
	"strings"

	"github.com/duckdb/duckdb-go/v2"

	"duck-adapter/internal/domain"
)

// Classifier decides the kind of an engine failure from its message.
type Classifier interface {
	Classify(message string) domain.ErrorKind
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(message string) domain.ErrorKind

// Classify calls f(message).
func (f ClassifierFunc) Classify(message string) domain.ErrorKind { return f(message) }

// HeuristicClassifier matches case-insensitive substrings of the message.
type HeuristicClassifier struct{}

// Classify implements Classifier.
func (HeuristicClassifier) Classify(message string) domain.ErrorKind {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "unique") || strings.Contains(m, "duplicate"):
		return domain.UniqueViolation
	case strings.Contains(m, "not null"):
		return domain.NotNullViolation
	case strings.Contains(m, "foreign key"):
		return domain.ForeignKeyViolation
	case strings.Contains(m, "check constraint"):
		return domain.CheckViolation
	default:
		return domain.Unknown
	}
}

// Translator converts native errors. The zero value uses HeuristicClassifier.
type Translator struct {
	Classifier Classifier
}

// New returns a Translator using c, or the heuristic classifier when c is nil.
func New(c Classifier) *Translator {
	return &Translator{Classifier: c}
}

var defaultTranslator = New(nil)

// Translate converts err with the default translator.
func Translate(err error) error {
	return defaultTranslator.Translate(err)
}

// Translate maps err into the taxonomy. Errors already in the taxonomy are
// returned unchanged, so translating twice is harmless; nil stays nil. Only
// *duckdb.Error messages are classified; anything else the engine did not
// produce is an Unknown DatabaseError.
func (t *Translator) Translate(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsTaxonomy(err) {
		return err
	}

	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		return t.FromMessage(duckErr.Msg)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "sql: expected ") && strings.Contains(msg, " arguments, got "):
		return &domain.DatabaseError{Kind: domain.Unknown, Message: "invalid parameter count: " + strings.TrimPrefix(msg, "sql: ")}
	case strings.HasPrefix(msg, "sql: converting argument"):
		return &domain.SerializationError{Err: err}
	case strings.HasPrefix(msg, "sql: Scan error"):
		return &domain.DeserializationError{Err: err}
	}
	return &domain.DatabaseError{Kind: domain.Unknown, Message: msg}
}

// FromMessage builds a classified DatabaseError from an engine message.
func (t *Translator) FromMessage(message string) *domain.DatabaseError {
	c := t.Classifier
	if c == nil {
		c = HeuristicClassifier{}
	}
	return &domain.DatabaseError{
		Kind:       c.Classify(message),
		Message:    message,
		Table:      ExtractTable(message),
		Column:     ExtractColumn(message),
		Constraint: ExtractConstraint(message),
		Position:   ExtractPosition(message),
	}
}
