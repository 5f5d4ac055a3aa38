package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"
)

func serveLines(t *testing.T, input string) []map[string]any {
	t.Helper()
	d := newTestDispatcher()
	var out strings.Builder
	if err := d.ServeStream(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("serve stream: %v", err)
	}

	var responses []map[string]any
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("response line is not json: %q", line)
		}
		responses = append(responses, m)
	}
	return responses
}

func TestServeStreamSession(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`   `,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"add","arguments":{"a":5,"b":3}}}`,
	}, "\n") + "\n"

	responses := serveLines(t, input)
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses (notification and blank lines are silent), got %d", len(responses))
	}
	for i, want := range []float64{1, 2, 3} {
		if responses[i]["id"] != want {
			t.Fatalf("response %d id = %v, want %v", i, responses[i]["id"], want)
		}
	}

	result := responses[2]["result"].(map[string]any)
	content := result["content"].([]any)
	if len(content) != 1 || content[0].(map[string]any)["text"] != "8" {
		t.Fatalf("unexpected flattened content: %v", result)
	}
	if _, named := result["name"]; named {
		t.Fatal("line transport must not name results")
	}
}

func TestServeStreamFlattensMultipleCalls(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"calls":[` +
		`{"name":"add","arguments":{"a":2,"b":3}},` +
		`{"name":"multiply","arguments":{"a":4,"b":5}},` +
		`{"name":"foo","arguments":{"a":1,"b":1}}]}}` + "\n"

	responses := serveLines(t, input)
	content := responses[0]["result"].(map[string]any)["content"].([]any)
	var texts []string
	for _, c := range content {
		texts = append(texts, c.(map[string]any)["text"].(string))
	}
	if strings.Join(texts, "|") != "5|20|Error: Unknown tool: foo" {
		t.Fatalf("unexpected texts: %v", texts)
	}
}

func TestServeStreamParseErrorUsesLastID(t *testing.T) {
	input := strings.Join([]string{
		`{not json`,
		`{"jsonrpc":"2.0","id":7,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":`,
	}, "\n")

	responses := serveLines(t, input)
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}

	first := responses[0]
	if first["id"] != float64(0) {
		t.Fatalf("parse error before any request should use id 0, got %v", first["id"])
	}
	if code := first["error"].(map[string]any)["code"]; code != float64(-32700) {
		t.Fatalf("expected -32700, got %v", code)
	}

	last := responses[2]
	if last["id"] != float64(7) {
		t.Fatalf("parse error should reuse last id 7, got %v", last["id"])
	}
	errObj := last["error"].(map[string]any)
	if errObj["message"] != "Parse error" || errObj["data"] == "" {
		t.Fatalf("unexpected error object: %v", errObj)
	}
}

func TestServeStreamNonObjectRequestIsInternalError(t *testing.T) {
	responses := serveLines(t, "[1,2,3]\n")
	if code := responses[0]["error"].(map[string]any)["code"]; code != float64(-32603) {
		t.Fatalf("expected -32603, got %v", code)
	}
}

func TestServeStreamUnknownMethodAndMissingID(t *testing.T) {
	responses := serveLines(t, `{"jsonrpc":"2.0","method":"prompts/list"}`+"\n")
	if responses[0]["id"] != float64(0) {
		t.Fatalf("request without id should be answered with id 0, got %v", responses[0]["id"])
	}
	if code := responses[0]["error"].(map[string]any)["code"]; code != float64(-32601) {
		t.Fatalf("expected -32601, got %v", code)
	}
}

func TestServeStreamFlushesEachResponse(t *testing.T) {
	d := newTestDispatcher()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	done := make(chan error, 1)
	go func() { done <- d.ServeStream(context.Background(), inR, outW) }()

	reader := bufio.NewReader(outR)
	for i := 1; i <= 2; i++ {
		go func(id int) {
			inW.Write([]byte(`{"jsonrpc":"2.0","id":` + strconv.Itoa(id) + `,"method":"tools/list"}` + "\n"))
		}(i)

		lineCh := make(chan string, 1)
		go func() {
			line, _ := reader.ReadString('\n')
			lineCh <- line
		}()
		select {
		case line := <-lineCh:
			if !strings.Contains(line, `"tools"`) {
				t.Fatalf("unexpected line: %q", line)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("response was not flushed before the next request")
		}
	}

	inW.Close()
	if err := <-done; err != nil {
		t.Fatalf("serve stream: %v", err)
	}
	outW.Close()
}

func TestServeStreamStopsOnCancelledContext(t *testing.T) {
	d := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := d.ServeStream(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n"), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output after cancellation, got %q", out.String())
	}
}

func TestServeStreamReturnsWhenCancelledWhileReadBlocks(t *testing.T) {
	d := newTestDispatcher()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.ServeStream(ctx, pr, io.Discard) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ServeStream did not return after cancellation with an idle reader")
	}
}

func TestServeStreamNonFiniteOperands(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"add","arguments":{"a":NaN,"b":1}}}`,
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"multiply","arguments":{"a":2,"b":Infinity}}}`,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"divide","arguments":{"a":-Infinity,"b":2}}}`,
	}, "\n")

	responses := serveLines(t, input)
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}

	want := []struct {
		id   float64
		text string
	}{
		{7, "Error: Inputs cannot be NaN"},
		{8, "Error: Inputs cannot be infinite"},
		{9, "Error: Inputs cannot be infinite"},
	}
	for i, w := range want {
		resp := responses[i]
		if resp["id"] != w.id {
			t.Fatalf("response %d id = %v, want %v", i, resp["id"], w.id)
		}
		if _, ok := resp["error"]; ok {
			t.Fatalf("response %d must not be a protocol error: %v", i, resp["error"])
		}
		content := resp["result"].(map[string]any)["content"].([]any)
		if got := content[0].(map[string]any)["text"]; got != w.text {
			t.Fatalf("response %d text = %v, want %q", i, got, w.text)
		}
	}
}
