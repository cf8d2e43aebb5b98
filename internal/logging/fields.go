package logging

// Structured logging field names.
const (
	FieldError   = "error"
	FieldPath    = "path"
	FieldLang    = "lang"
	FieldName    = "name"
	FieldTitle   = "title"
	FieldEntries = "entries"
	FieldAddr    = "addr"
	FieldMethod  = "method"
	FieldStatus  = "status"
	FieldConfig  = "config"
	FieldOutput  = "output"
)
