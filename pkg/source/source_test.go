package source

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

const doc = "# Checkout\n" +
	"\n" +
	"Some prose.\n" +
	"\n" +
	"```flowchart\n" +
	"vertices:\n" +
	"  - {id: cart, text: \"🛒 cart\"}\n" +
	"  - {id: pay}\n" +
	"edges:\n" +
	"  - {start: cart, end: pay, length: 2, type: double_arrow_point}\n" +
	"```\n" +
	"\n" +
	"```go\n" +
	"package main\n" +
	"```\n" +
	"\n" +
	"## Shipping *flow*\n" +
	"\n" +
	"```flowchart\n" +
	"name: explicit\n" +
	"vertices: [{id: box}]\n" +
	"```\n"

func TestExtract(t *testing.T) {
	blocks := Extract([]byte(doc), "")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	tests := []struct {
		index int
		name  string
		line  int
	}{
		{0, "Checkout", 6},
		{1, "Shipping flow", 20},
	}
	for _, tt := range tests {
		b := blocks[tt.index]
		if b.Index != tt.index {
			t.Errorf("block %d Index = %d", tt.index, b.Index)
		}
		if b.Name != tt.name {
			t.Errorf("block %d Name = %q, want %q", tt.index, b.Name, tt.name)
		}
		if b.Line != tt.line {
			t.Errorf("block %d Line = %d, want %d", tt.index, b.Line, tt.line)
		}
	}

	if got := Extract([]byte(doc), "go"); len(got) != 1 || string(got[0].Body) != "package main\n" {
		t.Errorf("Extract(go) = %+v", got)
	}
	if got := Extract([]byte("no fences here"), ""); len(got) != 0 {
		t.Errorf("plain text should have no blocks, got %d", len(got))
	}
}

func TestRecordParser(t *testing.T) {
	blocks := Extract([]byte(doc), "")
	var p RecordParser
	ctx := context.Background()

	d, err := p.Parse(ctx, blocks[0])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "Checkout" {
		t.Errorf("Name = %q, want heading fallback", d.Name)
	}
	if len(d.Vertices) != 2 || d.Vertices[0].Text != "🛒 cart" {
		t.Errorf("Vertices = %+v", d.Vertices)
	}
	if len(d.Edges) != 1 || d.Edges[0].Length != 2 || d.Edges[0].Arrow != flowchart.ArrowDoublePoint {
		t.Errorf("Edges = %+v", d.Edges)
	}

	d, err = p.Parse(ctx, blocks[1])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "explicit" {
		t.Errorf("Name = %q, explicit name should win", d.Name)
	}
}

func TestRecordParserErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "vertexes: [{id: a}]"},
		{"bad yaml", "vertices: [{id: a"},
		{"bad stroke", "edges: [{start: a, end: b, stroke: wavy}]"},
		{"bad arrow", "edges: [{start: a, end: b, type: arrow_cross}]"},
		{"negative length", "edges: [{start: a, end: b, length: -1}]"},
		{"absurd length", "edges: [{start: a, end: b, length: 100000000}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RecordParser{}.Parse(context.Background(), Block{Body: []byte(tt.body)})
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestRecordParserEmpty(t *testing.T) {
	d, err := RecordParser{}.Parse(context.Background(), Block{Name: "empty"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "empty" || len(d.Vertices) != 0 {
		t.Errorf("empty block = %+v", d)
	}
}

func TestRecordParserCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (RecordParser{}).Parse(ctx, Block{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSplit(t *testing.T) {
	blocks := Split("diagrams/orders.yaml", []byte("vertices: [{id: a}]\n"), "")
	if len(blocks) != 1 || blocks[0].Name != "orders" || blocks[0].Line != 1 {
		t.Errorf("yaml file blocks = %+v", blocks)
	}

	blocks = Split("README.md", []byte(doc), "")
	if len(blocks) != 2 {
		t.Errorf("markdown file has %d blocks, want 2", len(blocks))
	}
}

func TestExtractLanguageExact(t *testing.T) {
	src := "```flowchart title=checkout\nvertices: [{id: a}]\n```\n" +
		"```flowcharts\nvertices: [{id: b}]\n```\n" +
		"```mermaid-flowchart\nvertices: [{id: c}]\n```\n"

	blocks := Extract([]byte(src), "flowchart")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if got := string(blocks[0].Body); got != "vertices: [{id: a}]\n" {
		t.Errorf("body = %q", got)
	}
}

func TestParserFunc(t *testing.T) {
	var p Parser = ParserFunc(func(_ context.Context, b Block) (flowchart.Diagram, error) {
		return flowchart.Diagram{Name: b.Name}, nil
	})
	d, _ := p.Parse(context.Background(), Block{Name: "x"})
	if d.Name != "x" {
		t.Errorf("ParserFunc did not forward the block")
	}
}
