package mcp

// Content is a single MCP content block.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// CallOutcome is the formatted result of one tool call.
type CallOutcome struct {
	Name    string    `json:"name"`
	Content []Content `json:"content"`
}

// ContentResult is the flattened tools/call result.
type ContentResult struct {
	Content []Content `json:"content"`
}

// CallsResult is the multi-call tools/call result.
type CallsResult struct {
	Calls []CallOutcome `json:"calls"`
}

// ResultShape selects how a transport renders tools/call outcomes. Each
// transport fixes its shape; it is not configurable.
type ResultShape string

const (
	// ShapeFlat concatenates every call's content into one list without
	// names. Used by the line-delimited transports.
	ShapeFlat ResultShape = "flat"

	// ShapeNamed returns a single named outcome for exactly one call and a
	// "calls" list otherwise. Used by HTTP.
	ShapeNamed ResultShape = "named"
)

func (s ResultShape) Render(outcomes []CallOutcome) any {
	if s == ShapeNamed {
		if len(outcomes) == 1 {
			return outcomes[0]
		}
		if outcomes == nil {
			outcomes = []CallOutcome{}
		}
		return CallsResult{Calls: outcomes}
	}

	flat := make([]Content, 0, len(outcomes))
	for _, o := range outcomes {
		flat = append(flat, o.Content...)
	}
	return ContentResult{Content: flat}
}
