package mcp

import "github.com/google/jsonschema-go/jsonschema"

// Tool describes one callable operation in tools/list.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type ToolList struct {
	Tools []Tool `json:"tools"`
}

// ToolDefinitions returns the static tool catalog. The order matches
// core.OperationNames.
func ToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "add",
			Description: "Add two numbers",
			InputSchema: binarySchema("First number", "Second number"),
		},
		{
			Name:        "subtract",
			Description: "Subtract second number from first",
			InputSchema: binarySchema("First number", "Second number"),
		},
		{
			Name:        "multiply",
			Description: "Multiply two numbers",
			InputSchema: binarySchema("First number", "Second number"),
		},
		{
			Name:        "divide",
			Description: "Divide first number by second",
			InputSchema: binarySchema("Numerator", "Denominator"),
		},
	}
}

func binarySchema(aDesc, bDesc string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"a": {Type: "number", Description: aDesc},
			"b": {Type: "number", Description: bDesc},
		},
		Required: []string{"a", "b"},
	}
}
