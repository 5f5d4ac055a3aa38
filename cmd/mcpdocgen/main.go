package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/calcmcp/calcmcp/internal/mcp"
)

type toolDoc struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Inputs      []inputDoc `yaml:"inputs"`
}

type inputDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required"`
}

func main() {
	format := flag.String("format", "markdown", "output format: markdown or yaml")
	flag.Parse()

	docs := collect(mcp.ToolDefinitions())

	var err error
	switch *format {
	case "markdown", "md":
		err = writeMarkdown(os.Stdout, docs)
	case "yaml":
		err = writeYAML(os.Stdout, docs)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "mcpdocgen:", err)
		os.Exit(1)
	}
}

func collect(tools []mcp.Tool) []toolDoc {
	docs := make([]toolDoc, 0, len(tools))
	for _, t := range tools {
		doc := toolDoc{Name: t.Name, Description: t.Description, Inputs: []inputDoc{}}
		if t.InputSchema != nil {
			required := make(map[string]bool, len(t.InputSchema.Required))
			for _, r := range t.InputSchema.Required {
				required[r] = true
			}

			keys := make([]string, 0, len(t.InputSchema.Properties))
			for k := range t.InputSchema.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				prop := t.InputSchema.Properties[k]
				doc.Inputs = append(doc.Inputs, inputDoc{
					Name:        k,
					Type:        prop.Type,
					Description: prop.Description,
					Required:    required[k],
				})
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func writeMarkdown(w io.Writer, docs []toolDoc) error {
	fmt.Fprintln(w, "# MCP Tools (Generated)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This file is generated from `internal/mcp/catalog.go`.")
	fmt.Fprintln(w)

	for _, d := range docs {
		fmt.Fprintf(w, "- `%s`\n", d.Name)
		if d.Description != "" {
			fmt.Fprintf(w, "  - Description: %s\n", d.Description)
		}
		if len(d.Inputs) > 0 {
			fmt.Fprintln(w, "  - Input:")
			for _, in := range d.Inputs {
				req := "optional"
				if in.Required {
					req = "required"
				}
				fmt.Fprintf(w, "    - `%s` %s (%s): %s\n", in.Name, in.Type, req, in.Description)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, docs []toolDoc) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"tools": docs}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
