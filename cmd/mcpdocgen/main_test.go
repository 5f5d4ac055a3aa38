package main

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/calcmcp/calcmcp/internal/mcp"
)

func TestCollectListsSortedInputs(t *testing.T) {
	docs := collect(mcp.ToolDefinitions())
	if len(docs) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(docs))
	}

	divide := docs[3]
	if divide.Name != "divide" {
		t.Fatalf("expected divide last, got %q", divide.Name)
	}
	if len(divide.Inputs) != 2 || divide.Inputs[0].Name != "a" || divide.Inputs[1].Name != "b" {
		t.Fatalf("unexpected inputs: %+v", divide.Inputs)
	}
	if divide.Inputs[0].Description != "Numerator" || !divide.Inputs[0].Required || divide.Inputs[0].Type != "number" {
		t.Fatalf("unexpected numerator doc: %+v", divide.Inputs[0])
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := writeMarkdown(&buf, collect(mcp.ToolDefinitions())); err != nil {
		t.Fatalf("writeMarkdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# MCP Tools (Generated)",
		"- `add`",
		"  - Description: Subtract second number from first",
		"    - `b` number (required): Denominator",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := writeYAML(&buf, collect(mcp.ToolDefinitions())); err != nil {
		t.Fatalf("writeYAML: %v", err)
	}

	var got struct {
		Tools []toolDoc `yaml:"tools"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(got.Tools) != 4 || got.Tools[2].Name != "multiply" {
		t.Fatalf("unexpected tools: %+v", got.Tools)
	}
	if got.Tools[0].Inputs[1].Description != "Second number" {
		t.Fatalf("unexpected input: %+v", got.Tools[0].Inputs[1])
	}
}
