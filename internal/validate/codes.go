package validate

import (
	"fmt"
	"slices"

	"github.com/josh-kwaku/audit-validator/internal/report"
)

// codeRegistry remembers which document type every internal document code
// was used with, across all tables.
type codeRegistry struct {
	uses map[string][]codeUse
}

type codeUse struct {
	typ      string
	table    string
	document string
}

func newCodeRegistry() *codeRegistry {
	return &codeRegistry{uses: make(map[string][]codeUse)}
}

func (r *codeRegistry) observe(code, typ, table, document string) {
	for _, u := range r.uses[code] {
		if u.typ == typ {
			return
		}
	}
	r.uses[code] = append(r.uses[code], codeUse{typ: typ, table: table, document: document})
}

// check reports every code used with more than one type. The first type seen
// is taken as the code's owner.
func (r *codeRegistry) check(sink report.Sink) bool {
	codes := make([]string, 0, len(r.uses))
	for code := range r.uses {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	ok := true
	for _, code := range codes {
		uses := r.uses[code]
		for _, u := range uses[1:] {
			ok = false
			sink.AddValidationError(report.Entry{
				Table:    u.table,
				Document: u.document,
				Field:    "Number",
				Message:  fmt.Sprintf("document code %q used with type %s and %s", code, uses[0].typ, u.typ),
			})
		}
	}
	return ok
}
