package mcp

import (
	"encoding/json"
	"testing"
)

func TestExtractToolCallsSourcePriority(t *testing.T) {
	tests := []struct {
		name       string
		params     string
		wantSource string
		wantNames  []string
	}{
		{
			name:       "calls wins over toolCalls",
			params:     `{"calls":[{"name":"add"}],"toolCalls":[{"name":"subtract"}]}`,
			wantSource: "calls",
			wantNames:  []string{"add"},
		},
		{
			name:       "empty calls falls through to toolCalls",
			params:     `{"calls":[],"toolCalls":[{"name":"subtract"},{"name":"divide"}]}`,
			wantSource: "toolCalls",
			wantNames:  []string{"subtract", "divide"},
		},
		{
			name:       "tool_calls",
			params:     `{"tool_calls":[{"name":"multiply"}]}`,
			wantSource: "tool_calls",
			wantNames:  []string{"multiply"},
		},
		{
			name:       "arrays win over inline",
			params:     `{"name":"add","arguments":{},"tool_calls":[{"name":"divide"}]}`,
			wantSource: "tool_calls",
			wantNames:  []string{"divide"},
		},
		{
			name:       "inline",
			params:     `{"name":"add","arguments":{"a":1,"b":2}}`,
			wantSource: "inline",
			wantNames:  []string{"add"},
		},
		{
			name:       "inline without arguments",
			params:     `{"name":"add"}`,
			wantSource: "inline",
			wantNames:  []string{"add"},
		},
		{
			name:       "non-array calls is ignored",
			params:     `{"calls":{"name":"add"},"name":"subtract"}`,
			wantSource: "inline",
			wantNames:  []string{"subtract"},
		},
		{
			name:       "nothing",
			params:     `{}`,
			wantSource: "none",
		},
		{
			name:       "absent params",
			params:     ``,
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, source, err := ExtractToolCalls(json.RawMessage(tt.params))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if source != tt.wantSource {
				t.Fatalf("source = %q, want %q", source, tt.wantSource)
			}
			if len(calls) != len(tt.wantNames) {
				t.Fatalf("got %d calls, want %d", len(calls), len(tt.wantNames))
			}
			for i, c := range calls {
				if c.Name != tt.wantNames[i] {
					t.Fatalf("call %d = %q, want %q", i, c.Name, tt.wantNames[i])
				}
			}
		})
	}
}

func TestExtractToolCallsRejectsNonObjectParams(t *testing.T) {
	if _, _, err := ExtractToolCalls(json.RawMessage(`"add"`)); err == nil {
		t.Fatal("expected error for string params")
	}
}

func TestDecodeToolCallEntries(t *testing.T) {
	calls, _, err := ExtractToolCalls(json.RawMessage(`{"calls":[42,{"name":7,"arguments":{"a":1,"b":2}},null]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	if calls[0].err == nil {
		t.Fatal("expected entry error for non-object call")
	}
	if calls[1].err != nil || calls[1].Name != "7" {
		t.Fatalf("expected literal name 7, got %q (%v)", calls[1].Name, calls[1].err)
	}
	if calls[2].err == nil {
		t.Fatal("expected entry error for null call")
	}
}

func TestDecodeArguments(t *testing.T) {
	args, err := ToolCall{Arguments: json.RawMessage(`{"a": 1.5, "b": "x"}`)}.decodeArguments()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !args.A.IsValid() || args.B.IsValid() {
		t.Fatalf("unexpected validity a=%v b=%v", args.A.IsValid(), args.B.IsValid())
	}

	if _, err := (ToolCall{Arguments: json.RawMessage(`[1,2]`)}).decodeArguments(); err == nil {
		t.Fatal("expected error for array arguments")
	}

	args, err = ToolCall{Arguments: json.RawMessage(`null`)}.decodeArguments()
	if err != nil || args.A.IsValid() {
		t.Fatalf("null arguments should decode to invalid operands, err=%v", err)
	}
}

func TestDecodeArgumentsKeysAreCaseSensitive(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
		wantA     bool
		wantB     bool
	}{
		{name: "upper case keys", arguments: `{"A":2,"B":3}`},
		{name: "mixed case", arguments: `{"a":2,"B":3}`, wantA: true},
		{name: "exact keys", arguments: `{"a":2,"b":3}`, wantA: true, wantB: true},
		{name: "null operand", arguments: `{"a":null,"b":3}`, wantB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ToolCall{Arguments: json.RawMessage(tt.arguments)}.decodeArguments()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if args.A.IsValid() != tt.wantA || args.B.IsValid() != tt.wantB {
				t.Fatalf("validity a=%v b=%v, want a=%v b=%v", args.A.IsValid(), args.B.IsValid(), tt.wantA, tt.wantB)
			}
		})
	}
}

func TestToolCallMissingNameIsFlagged(t *testing.T) {
	calls, _, err := ExtractToolCalls(json.RawMessage(`{"calls":[{"arguments":{}},{"name":null},{"name":""},{"name":"add"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, true, false, false}
	for i, c := range calls {
		if c.noName != want[i] {
			t.Fatalf("call %d noName = %v, want %v", i, c.noName, want[i])
		}
		if c.Name != "" && i < 3 {
			t.Fatalf("call %d name = %q, want empty", i, c.Name)
		}
	}
}

func TestResultShapeRender(t *testing.T) {
	one := []CallOutcome{{Name: "add", Content: []Content{TextContent("5")}}}
	two := append(one, CallOutcome{Name: "multiply", Content: []Content{TextContent("20")}})

	if _, ok := ShapeNamed.Render(one).(CallOutcome); !ok {
		t.Fatal("single call should render as one named outcome")
	}
	calls, ok := ShapeNamed.Render(two).(CallsResult)
	if !ok || len(calls.Calls) != 2 {
		t.Fatalf("two calls should render as calls list, got %#v", ShapeNamed.Render(two))
	}
	empty, ok := ShapeNamed.Render(nil).(CallsResult)
	if !ok || empty.Calls == nil {
		t.Fatal("zero calls should render an empty calls list")
	}

	flat := ShapeFlat.Render(two).(ContentResult)
	if len(flat.Content) != 2 || flat.Content[0].Text != "5" || flat.Content[1].Text != "20" {
		t.Fatalf("unexpected flat content: %+v", flat.Content)
	}
	b, _ := json.Marshal(ShapeFlat.Render(nil))
	if string(b) != `{"content":[]}` {
		t.Fatalf("unexpected empty flat render: %s", b)
	}
}
