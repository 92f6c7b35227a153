package report

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityError     Severity = "error"
	SeverityWarning   Severity = "warning"
	SeverityException Severity = "exception"
)

// Entry is one finding produced while validating an audit file. Table,
// Document and Line locate the offending record; Field names the attribute.
type Entry struct {
	Severity Severity
	Table    string
	Document string
	Line     *int
	Field    string
	Message  string
}

func (e Entry) String() string {
	var b strings.Builder
	if e.Table != "" {
		b.WriteString(e.Table)
		b.WriteString(": ")
	}
	if e.Document != "" {
		b.WriteString(e.Document)
		b.WriteString(": ")
	}
	if e.Line != nil {
		fmt.Fprintf(&b, "line %d: ", *e.Line)
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

type Sink interface {
	AddValidationError(e Entry)
	AddWarning(e Entry)
	AddExceptionError(e Entry)
}

// Register is the audit file's global sink. It is not safe for concurrent use;
// a validation run owns its register exclusively.
type Register struct {
	entries []Entry
}

func NewRegister() *Register {
	return &Register{}
}

func (r *Register) AddValidationError(e Entry) {
	e.Severity = SeverityError
	r.entries = append(r.entries, e)
}

func (r *Register) AddWarning(e Entry) {
	e.Severity = SeverityWarning
	r.entries = append(r.entries, e)
}

func (r *Register) AddExceptionError(e Entry) {
	e.Severity = SeverityException
	r.entries = append(r.entries, e)
}

func (r *Register) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Register) Errors() []Entry     { return r.filter(SeverityError) }
func (r *Register) Warnings() []Entry   { return r.filter(SeverityWarning) }
func (r *Register) Exceptions() []Entry { return r.filter(SeverityException) }

// Valid reports whether no error or exception has been recorded. Warnings do
// not affect the verdict.
func (r *Register) Valid() bool {
	for _, e := range r.entries {
		if e.Severity != SeverityWarning {
			return false
		}
	}
	return true
}

func (r *Register) filter(s Severity) []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.Severity == s {
			out = append(out, e)
		}
	}
	return out
}
