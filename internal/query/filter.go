package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ge-price-lab/internal/domain"
)

var (
	// ErrBadPredicate is returned for an expression without a field or operator.
	ErrBadPredicate = errors.New("malformed predicate")

	// ErrUnknownField is returned for a predicate naming an unsupported field.
	ErrUnknownField = errors.New("unknown field")
)

// Operator is a comparison operator.
type Operator string

const (
	OpGreater Operator = ">"
	OpLess    Operator = "<"
)

// ParseOperator validates an operator string.
func ParseOperator(s string) (Operator, bool) {
	switch op := Operator(strings.TrimSpace(s)); op {
	case OpGreater, OpLess:
		return op, true
	}
	return "", false
}

// Compare reports whether value op ref holds. A nil value never matches,
// in either direction. Unknown operators never match.
func Compare(value *float64, op Operator, ref float64) bool {
	if value == nil {
		return false
	}
	switch op {
	case OpGreater:
		return *value > ref
	case OpLess:
		return *value < ref
	}
	return false
}

// Getter extracts a numeric field from a record; nil means absent.
type Getter[T any] func(T) *float64

// Predicate is one "field op ref" condition.
type Predicate[T any] struct {
	Field string
	Value Getter[T]
	Op    Operator
	Ref   float64
}

// Match applies the predicate to one record.
func (p Predicate[T]) Match(v T) bool {
	return Compare(p.Value(v), p.Op, p.Ref)
}

// String renders the predicate as an expression.
func (p Predicate[T]) String() string {
	return fmt.Sprintf("%s%s%g", p.Field, p.Op, p.Ref)
}

// Filter returns the records matching every predicate, preserving order.
func Filter[T any](records []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		ok := true
		for _, p := range preds {
			if !p.Match(r) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// SortBy returns a stably sorted copy of records. Records without a value
// sort last in both directions.
func SortBy[T any](records []T, value Getter[T], desc bool) []T {
	out := append([]T(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := value(out[i]), value(out[j])
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case desc:
			return *a > *b
		default:
			return *a < *b
		}
	})
	return out
}

// ParsePredicate parses "field>ref" or "field<ref" using fields to resolve
// the field name. The reference goes through ParseReference.
func ParsePredicate[T any](expr string, fields func(string) (Getter[T], bool)) (Predicate[T], error) {
	idx := strings.IndexAny(expr, "<>")
	if idx <= 0 {
		return Predicate[T]{}, fmt.Errorf("%w: %q", ErrBadPredicate, expr)
	}

	name := strings.ToLower(strings.TrimSpace(expr[:idx]))
	if name == "" {
		return Predicate[T]{}, fmt.Errorf("%w: %q", ErrBadPredicate, expr)
	}

	get, ok := fields(name)
	if !ok {
		return Predicate[T]{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	ref, err := ParseReference(expr[idx+1:])
	if err != nil {
		return Predicate[T]{}, fmt.Errorf("%w: %q: %v", ErrBadPredicate, expr, err)
	}

	return Predicate[T]{
		Field: name,
		Value: get,
		Op:    Operator(expr[idx : idx+1]),
		Ref:   ref,
	}, nil
}

// ItemPredicate parses a predicate over items.
func ItemPredicate(expr string) (Predicate[*domain.Item], error) {
	return ParsePredicate(expr, ItemField)
}

// SpikePredicate parses a predicate over spike events.
func SpikePredicate(expr string) (Predicate[*domain.SpikeEvent], error) {
	return ParsePredicate(expr, SpikeField)
}

// SearchByName keeps the items whose name contains text, ignoring case.
// Empty text keeps everything.
func SearchByName(items []*domain.Item, text string) []*domain.Item {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return append([]*domain.Item(nil), items...)
	}

	var out []*domain.Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), text) {
			out = append(out, it)
		}
	}
	return out
}
