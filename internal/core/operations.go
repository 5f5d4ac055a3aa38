// Package core implements the calculator: numeric operands, input
// validation and the four binary operations.
package core

import "math"

// Result is the outcome of one operation: exactly one of a value or an error.
type Result struct {
	value Number
	err   error
}

func Success(v Number) Result { return Result{value: v} }

// Failure builds a failed Result. A nil err is treated as an internal failure
// so that a Result is never both or neither.
func Failure(err error) Result {
	if err == nil {
		err = errUnspecified
	}
	return Result{err: err}
}

func (r Result) OK() bool      { return r.err == nil }
func (r Result) Value() Number { return r.value }
func (r Result) Err() error    { return r.err }

// Text renders the result as a tool content block: the value on success,
// "Error: <message>" on failure.
func (r Result) Text() string {
	if r.err != nil {
		return "Error: " + r.err.Error()
	}
	return r.value.String()
}

type unspecifiedError struct{}

func (unspecifiedError) Error() string { return "Unknown error" }

var errUnspecified error = unspecifiedError{}

// Operation is a pure binary arithmetic function.
type Operation func(a, b Number) Result

func Add(a, b Number) Result {
	if err := ValidateNumbers(a, b); err != nil {
		return Failure(err)
	}
	if x, y, ok := ints(a, b); ok {
		if sum, ok := addInt64(x, y); ok {
			return Success(Int(sum))
		}
	}
	return Success(Float(a.Float64() + b.Float64()))
}

func Subtract(a, b Number) Result {
	if err := ValidateNumbers(a, b); err != nil {
		return Failure(err)
	}
	if x, y, ok := ints(a, b); ok && y != math.MinInt64 {
		if diff, ok := addInt64(x, -y); ok {
			return Success(Int(diff))
		}
	}
	return Success(Float(a.Float64() - b.Float64()))
}

func Multiply(a, b Number) Result {
	if err := ValidateNumbers(a, b); err != nil {
		return Failure(err)
	}
	if x, y, ok := ints(a, b); ok {
		if prod, ok := mulInt64(x, y); ok {
			return Success(Int(prod))
		}
	}
	return Success(Float(a.Float64() * b.Float64()))
}

// Divide always produces a float quotient, even for two integers.
func Divide(a, b Number) Result {
	if err := ValidateDivision(a, b); err != nil {
		return Failure(err)
	}
	return Success(Float(a.Float64() / b.Float64()))
}

type namedOperation struct {
	name string
	op   Operation
}

// Catalog order is also tools/list order.
var operations = []namedOperation{
	{name: "add", op: Add},
	{name: "subtract", op: Subtract},
	{name: "multiply", op: Multiply},
	{name: "divide", op: Divide},
}

// LookupOperation returns the operation registered under name.
func LookupOperation(name string) (Operation, bool) {
	for _, o := range operations {
		if o.name == name {
			return o.op, true
		}
	}
	return nil, false
}

// OperationNames lists registered operations in catalog order.
func OperationNames() []string {
	names := make([]string, len(operations))
	for i, o := range operations {
		names[i] = o.name
	}
	return names
}

func ints(a, b Number) (int64, int64, bool) {
	x, okA := a.Int64()
	y, okB := b.Int64()
	return x, y, okA && okB
}

func addInt64(x, y int64) (int64, bool) {
	s := x + y
	if (x > 0 && y > 0 && s < 0) || (x < 0 && y < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func mulInt64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	p := x * y
	if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	return p, true
}
