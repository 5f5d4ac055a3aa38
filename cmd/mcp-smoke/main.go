// Command mcp-smoke drives a calcmcp stdio server with the reference MCP
// client and checks the calculator end to end. With -http-url it also
// exercises a running HTTP transport.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type scenario struct {
	name string
	fn   func(ctx context.Context, s *mcp.ClientSession) error
}

func main() {
	var (
		bin     = flag.String("bin", "", "calcmcp binary (default: go run ./cmd/calcmcp)")
		httpURL = flag.String("http-url", "", "base URL of a running HTTP transport, e.g. http://127.0.0.1:8000")
		timeout = flag.Duration("timeout", 60*time.Second, "Overall timeout")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: serverCommand(ctx, *bin)}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()
	fmt.Println("server: connected over stdio")

	failed := 0
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		if err := sc.fn(ctx, session); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
			continue
		}
		fmt.Printf("PASS  %s\n", sc.name)
	}

	if *httpURL != "" {
		if err := checkHTTP(ctx, strings.TrimRight(*httpURL, "/")); err != nil {
			failed++
			fmt.Printf("FAIL  http_transport: %v\n", err)
		} else {
			fmt.Println("PASS  http_transport")
		}
	}

	if failed > 0 {
		fmt.Printf("\n--- %d failed ---\n", failed)
		os.Exit(1)
	}
	fmt.Println("\n--- all passed ---")
}

func allScenarios() []scenario {
	return []scenario{
		{"tool_discovery", scenarioToolDiscovery},
		{"arithmetic", scenarioArithmetic},
		{"division_by_zero", scenarioDivisionByZero},
		{"invalid_input", scenarioInvalidInput},
		{"unknown_tool", scenarioUnknownTool},
	}
}

func serverCommand(ctx context.Context, bin string) *exec.Cmd {
	var cmd *exec.Cmd
	if bin != "" {
		cmd = exec.CommandContext(ctx, bin, "-transport", "stdio")
	} else {
		cmd = exec.CommandContext(ctx, "go", "run", "./cmd/calcmcp", "-transport", "stdio")
	}
	cmd.Stderr = os.Stderr
	return cmd
}

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession) error {
	tools, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}
	want := []string{"add", "subtract", "multiply", "divide"}
	if len(tools.Tools) != len(want) {
		return fmt.Errorf("tool count: want %d, got %d", len(want), len(tools.Tools))
	}
	for i, t := range tools.Tools {
		if t.Name != want[i] {
			return fmt.Errorf("tool %d: want %q, got %q", i, want[i], t.Name)
		}
		if t.Description == "" || t.InputSchema == nil {
			return fmt.Errorf("tool %q is missing metadata", t.Name)
		}
	}
	return nil
}

func scenarioArithmetic(ctx context.Context, s *mcp.ClientSession) error {
	cases := []struct {
		tool string
		a, b any
		want string
	}{
		{"add", 2, 3, "5"},
		{"subtract", 10, 4.5, "5.5"},
		{"multiply", 6, 7, "42"},
		{"divide", 10, 2, "5.0"},
		{"divide", 10, 3, "3.3333333333333335"},
	}
	for _, c := range cases {
		got, err := callText(ctx, s, c.tool, c.a, c.b)
		if err != nil {
			return err
		}
		if got != c.want {
			return fmt.Errorf("%s(%v, %v): want %q, got %q", c.tool, c.a, c.b, c.want, got)
		}
	}
	return nil
}

func scenarioDivisionByZero(ctx context.Context, s *mcp.ClientSession) error {
	got, err := callText(ctx, s, "divide", 5, 0)
	if err != nil {
		return err
	}
	if got != "Error: Division by zero is not allowed" {
		return fmt.Errorf("unexpected text %q", got)
	}
	return nil
}

func scenarioInvalidInput(ctx context.Context, s *mcp.ClientSession) error {
	got, err := callText(ctx, s, "add", "two", 3)
	if err != nil {
		return err
	}
	if got != "Error: Both inputs must be numbers" {
		return fmt.Errorf("unexpected text %q", got)
	}
	return nil
}

func scenarioUnknownTool(ctx context.Context, s *mcp.ClientSession) error {
	got, err := callText(ctx, s, "modulo", 5, 3)
	if err != nil {
		return err
	}
	if got != "Error: Unknown tool: modulo" {
		return fmt.Errorf("unexpected text %q", got)
	}
	return nil
}

func callText(ctx context.Context, s *mcp.ClientSession, name string, a, b any) (string, error) {
	payload, err := json.Marshal(map[string]any{"a": a, "b": b})
	if err != nil {
		return "", fmt.Errorf("marshal %s args: %w", name, err)
	}
	res, err := s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(payload)})
	if err != nil {
		return "", fmt.Errorf("CallTool %s: %w", name, err)
	}
	if len(res.Content) != 1 {
		return "", fmt.Errorf("%s: expected one content block, got %d", name, len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("%s: unexpected content %T", name, res.Content[0])
	}
	return tc.Text, nil
}

// checkHTTP talks to the HTTP transport directly: its tools/call result is
// named per call, which is not the shape the reference client expects.
func checkHTTP(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: status %d", resp.StatusCode)
	}

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"multiply","arguments":{"a":1.5,"b":4}}}`)
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, base+"/mcp", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Result struct {
			Name    string `json:"name"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode mcp response: %w", err)
	}
	if out.Result.Name != "multiply" || len(out.Result.Content) != 1 || out.Result.Content[0].Text != "6.0" {
		return fmt.Errorf("unexpected result %+v", out.Result)
	}
	return nil
}
