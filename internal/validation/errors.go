// Package validation holds the error collection produced by validation
// pipelines. Failures are values attached to the object being validated,
// never panics.
package validation

import (
	"slices"
	"strings"
)

// Base is the field name used for record-level errors.
const Base = "base"

// Common error codes.
const (
	CodeBlank         = "blank"
	CodeInvalid       = "invalid"
	CodeInclusion     = "inclusion"
	CodeInvalidChoice = "invalid_choice"
	CodeAccepted      = "accepted"
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is an ordered list of field and record-level errors.
type Errors []FieldError

func (e *Errors) Add(field, code, message string) {
	*e = append(*e, FieldError{Field: field, Code: code, Message: message})
}

func (e *Errors) AddBase(message string) {
	e.Add(Base, CodeInvalid, message)
}

// Merge appends other, prefixing each field with prefix when non-empty.
func (e *Errors) Merge(prefix string, other Errors) {
	for _, fe := range other {
		if prefix != "" && fe.Field != Base {
			fe.Field = prefix + "." + fe.Field
		}
		*e = append(*e, fe)
	}
}

func (e Errors) Empty() bool { return len(e) == 0 }

// On returns the errors recorded against field.
func (e Errors) On(field string) []FieldError {
	var out []FieldError
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

func (e Errors) Has(field, code string) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

// Fields returns the distinct fields with errors in first-seen order.
func (e Errors) Fields() []string {
	var fields []string
	for _, fe := range e {
		if !slices.Contains(fields, fe.Field) {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// FullMessages renders "field message" strings, base errors as the bare message.
func (e Errors) FullMessages() []string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Field == Base {
			msgs = append(msgs, fe.Message)
			continue
		}
		msgs = append(msgs, strings.ReplaceAll(fe.Field, "_", " ")+" "+fe.Message)
	}
	return msgs
}

func (e Errors) Error() string {
	return strings.Join(e.FullMessages(), "; ")
}
