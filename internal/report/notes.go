package report

// Note is a finding attached to a single entity, tagged with the field at fault.
type Note struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Notes is embedded by every validated entity (document, line, table).
type Notes struct {
	errs     []Note
	warnings []Note
}

func (n *Notes) AddError(message, field string) {
	n.errs = append(n.errs, Note{Field: field, Message: message})
}

func (n *Notes) AddWarning(message, field string) {
	n.warnings = append(n.warnings, Note{Field: field, Message: message})
}

func (n *Notes) Errors() []Note   { return n.errs }
func (n *Notes) Warnings() []Note { return n.warnings }

func (n *Notes) HasErrors() bool { return len(n.errs) > 0 }

// Reset drops every note so that an entity can be validated again.
func (n *Notes) Reset() {
	n.errs = nil
	n.warnings = nil
}
