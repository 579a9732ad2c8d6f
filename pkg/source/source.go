package source

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

// DefaultLang is the fenced code block info string that marks a diagram.
const DefaultLang = "flowchart"

// Block is the raw text of one diagram within a document.
type Block struct {
	// Index is the position of the block within its document.
	Index int
	// Name is the nearest preceding markdown heading, or the file name for
	// single-block documents. It may be empty.
	Name string
	// Line is the 1-based line where the block body starts.
	Line int
	Body []byte
}

// Label returns a human readable identifier for log and error messages.
func (b Block) Label() string {
	if b.Name != "" {
		return fmt.Sprintf("#%d %q", b.Index, b.Name)
	}
	return fmt.Sprintf("#%d", b.Index)
}

// Parser converts one block into diagram records.
type Parser interface {
	Parse(ctx context.Context, b Block) (flowchart.Diagram, error)
}

// ParserFunc adapts a function to the [Parser] interface.
type ParserFunc func(ctx context.Context, b Block) (flowchart.Diagram, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, b Block) (flowchart.Diagram, error) {
	return f(ctx, b)
}
