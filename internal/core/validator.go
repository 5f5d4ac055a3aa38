package core

import "math"

type ValidationCode string

const (
	NotANumber     ValidationCode = "not_a_number"
	NaNInput       ValidationCode = "nan_input"
	InfiniteInput  ValidationCode = "infinite_input"
	DivisionByZero ValidationCode = "division_by_zero"
)

var validationMessages = map[ValidationCode]string{
	NotANumber:     "Both inputs must be numbers",
	NaNInput:       "Inputs cannot be NaN",
	InfiniteInput:  "Inputs cannot be infinite",
	DivisionByZero: "Division by zero is not allowed",
}

// ValidationError is returned when operands are rejected before computing.
// Its message is what clients see after the "Error: " prefix.
type ValidationError struct {
	Code ValidationCode
}

func (e *ValidationError) Error() string     { return validationMessages[e.Code] }
func (e *ValidationError) ErrorCode() string { return string(e.Code) }

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrNotANumber     = &ValidationError{Code: NotANumber}
	ErrNaNInput       = &ValidationError{Code: NaNInput}
	ErrInfiniteInput  = &ValidationError{Code: InfiniteInput}
	ErrDivisionByZero = &ValidationError{Code: DivisionByZero}
)

// ValidateNumbers checks that both operands are finite real numbers.
func ValidateNumbers(a, b Number) error {
	if !a.IsValid() || !b.IsValid() {
		return ErrNotANumber
	}
	fa, fb := a.Float64(), b.Float64()
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return ErrNaNInput
	}
	if math.IsInf(fa, 0) || math.IsInf(fb, 0) {
		return ErrInfiniteInput
	}
	return nil
}

// ValidateDivision extends ValidateNumbers with a non-zero divisor check.
func ValidateDivision(a, b Number) error {
	if err := ValidateNumbers(a, b); err != nil {
		return err
	}
	if b.Float64() == 0 {
		return ErrDivisionByZero
	}
	return nil
}
