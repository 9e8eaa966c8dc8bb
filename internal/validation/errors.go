package validation

import (
	"fmt"
	"sort"
)

// Error carries the per-field messages of a rejected request. It is a
// caller-correctable failure and is rendered as a 422 response.
type Error struct {
	Fields map[string][]string `json:"errors"`
}

func newError() *Error {
	return &Error{Fields: make(map[string][]string)}
}

// Add records a message for field.
func (e *Error) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field failed validation.
func (e *Error) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *Error) empty() bool {
	return len(e.Fields) == 0
}

// Error returns the first message, followed by a count of the others.
func (e *Error) Error() string {
	if e.empty() {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	total := 0
	for name, msgs := range e.Fields {
		names = append(names, name)
		total += len(msgs)
	}
	sort.Strings(names)
	first := e.Fields[names[0]][0]
	switch total {
	case 1:
		return first
	case 2:
		return fmt.Sprintf("%s (and 1 more error)", first)
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, total-1)
	}
}
