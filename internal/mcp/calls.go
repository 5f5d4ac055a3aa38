package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/calcmcp/calcmcp/internal/core"
)

// ToolCall is one requested invocation inside tools/call.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage

	// err is set when the entry itself could not be decoded; the call then
	// fails on its own without affecting the rest of the batch.
	err error

	// noName marks a call whose name was absent or null.
	noName bool
}

// Arguments are the operands every calculator tool takes.
type Arguments struct {
	A core.Number
	B core.Number
}

// decodeArguments looks up "a" and "b" by exact key; encoding/json would
// otherwise also accept "A" and "B".
func (c ToolCall) decodeArguments() (Arguments, error) {
	var args Arguments
	if len(c.Arguments) == 0 || string(c.Arguments) == "null" {
		return args, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(c.Arguments, &fields); err != nil {
		return Arguments{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if raw, ok := fields["a"]; ok {
		if err := args.A.UnmarshalJSON(raw); err != nil {
			return Arguments{}, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if raw, ok := fields["b"]; ok {
		if err := args.B.UnmarshalJSON(raw); err != nil {
			return Arguments{}, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	return args, nil
}

// callSource is one way clients encode tool calls in tools/call params.
type callSource struct {
	name    string
	extract func(params map[string]json.RawMessage) ([]ToolCall, bool)
}

// callSources are tried in order; the first match wins. Array sources only
// match when the array is non-empty.
var callSources = []callSource{
	arrayField("calls"),
	arrayField("toolCalls"),
	arrayField("tool_calls"),
	{name: "inline", extract: inlineCall},
}

// ExtractToolCalls pulls the requested calls out of tools/call params and
// reports which source matched. Params that hold no calls yield an empty
// list, not an error; only params that are not a JSON object fail.
func ExtractToolCalls(params json.RawMessage) ([]ToolCall, string, error) {
	var fields map[string]json.RawMessage
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &fields); err != nil {
			return nil, "", fmt.Errorf("decode tools/call params: %w", err)
		}
	}
	for _, src := range callSources {
		if calls, ok := src.extract(fields); ok {
			return calls, src.name, nil
		}
	}
	return []ToolCall{}, "none", nil
}

func arrayField(key string) callSource {
	return callSource{
		name: key,
		extract: func(params map[string]json.RawMessage) ([]ToolCall, bool) {
			raw, ok := params[key]
			if !ok {
				return nil, false
			}
			var entries []json.RawMessage
			if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
				return nil, false
			}
			calls := make([]ToolCall, len(entries))
			for i, entry := range entries {
				calls[i] = decodeToolCall(entry)
			}
			return calls, true
		},
	}
}

func inlineCall(params map[string]json.RawMessage) ([]ToolCall, bool) {
	raw, ok := params["name"]
	if !ok {
		return nil, false
	}
	return []ToolCall{newToolCall(raw, params["arguments"])}, true
}

func decodeToolCall(raw json.RawMessage) ToolCall {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return ToolCall{err: fmt.Errorf("tool call must be an object, got %s", truncate(string(raw), 64))}
	}
	return newToolCall(fields["name"], fields["arguments"])
}

func newToolCall(name, arguments json.RawMessage) ToolCall {
	return ToolCall{
		Name:      toolName(name),
		Arguments: arguments,
		noName:    len(name) == 0 || string(name) == "null",
	}
}

// toolName accepts any JSON value: strings are unquoted, anything else is
// kept as its literal text so it shows up in the unknown-tool message.
func toolName(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
