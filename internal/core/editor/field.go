package editor

import "github.com/yndnr/lwm2m-seccfg/internal/core/domain"

// Field is one editable form control: its value, whether the user changed
// it since the last merge, and the rule it is validated against.
type Field struct {
	value string
	dirty bool
	rule  domain.Rule
	err   error
}

func newField(value string, rule domain.Rule) *Field {
	f := &Field{value: value, rule: rule}
	f.validate()
	return f
}

// Value returns the current value.
func (f *Field) Value() string { return f.value }

// Dirty reports whether the value changed since the last merge.
func (f *Field) Dirty() bool { return f.dirty }

// Valid reports whether the value satisfies the active rule.
func (f *Field) Valid() bool { return f.err == nil }

// Err returns the last validation error.
func (f *Field) Err() error { return f.err }

// Rule returns the active rule.
func (f *Field) Rule() domain.Rule { return f.rule }

// set records a user edit.
func (f *Field) set(v string) {
	f.value = v
	f.dirty = true
	f.validate()
}

// reset replaces the value without marking the field dirty.
func (f *Field) reset(v string) {
	f.value = v
	f.dirty = false
	f.validate()
}

// setRule swaps the rule and re-validates the current value.
func (f *Field) setRule(r domain.Rule) {
	f.rule = r
	f.validate()
}

func (f *Field) markPristine() {
	f.dirty = false
}

// mergeable reports whether the field holds an edit that may be merged.
func (f *Field) mergeable() bool {
	return f.dirty && f.err == nil
}

func (f *Field) validate() {
	f.err = f.rule.Check(f.value)
}

// FieldState is a read-only snapshot of a Field.
type FieldState struct {
	Value string      `json:"value"`
	Dirty bool        `json:"dirty"`
	Valid bool        `json:"valid"`
	Error string      `json:"error,omitempty"`
	Rule  domain.Rule `json:"rule"`
}

func (f *Field) state() FieldState {
	st := FieldState{
		Value: f.value,
		Dirty: f.dirty,
		Valid: f.err == nil,
		Rule:  f.rule,
	}
	if f.err != nil {
		st.Error = f.err.Error()
	}
	return st
}
