package core

import (
	"errors"
	"fmt"
)

// CodedError is implemented by domain errors that carry a machine-readable code.
type CodedError interface {
	error
	ErrorCode() string
}

// UnknownToolError is the synthetic failure for a tools/call naming a tool
// that is not in the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string     { return fmt.Sprintf("Unknown tool: %s", e.Name) }
func (e *UnknownToolError) ErrorCode() string { return "unknown_tool" }

// ErrorCode returns a stable label for err, suitable for metric and span
// attributes. Nil maps to "ok".
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return "internal_error"
}
