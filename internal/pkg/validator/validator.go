package validator

// Validator validates request structs tagged with `validate:"..."`.
type Validator interface {
	Validate(data any) error
}
