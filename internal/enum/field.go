package enum

type FieldKind string

const (
	FieldNationalID FieldKind = "national_id"
	FieldPostalCode FieldKind = "postal_code"
)

func (t FieldKind) String() string {
	return string(t)
}

type ValidationFailure string

const (
	ValidationFailureNone    ValidationFailure = ""
	ValidationBadLength      ValidationFailure = "bad_length"
	ValidationBadCheckDigit  ValidationFailure = "bad_check_digit"
	ValidationRepeatedDigits ValidationFailure = "repeated_digits"
	ValidationBadStructure   ValidationFailure = "bad_structural_pattern"
)

func (t ValidationFailure) String() string {
	return string(t)
}
