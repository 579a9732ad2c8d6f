package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

// ErrMalformed is returned by [RecordParser] when a block is not a valid
// record document.
var ErrMalformed = errors.New("malformed diagram records")

// RecordParser decodes blocks whose body is a YAML record document. Unknown
// fields are rejected so typos surface as errors instead of silently
// dropped vertices.
type RecordParser struct{}

// Parse decodes b. An empty block yields an empty diagram. The block name
// is used when the document does not set one.
func (RecordParser) Parse(ctx context.Context, b Block) (flowchart.Diagram, error) {
	if err := ctx.Err(); err != nil {
		return flowchart.Diagram{}, err
	}

	var d flowchart.Diagram
	dec := yaml.NewDecoder(bytes.NewReader(b.Body))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return flowchart.Diagram{}, fmt.Errorf("%w: block %s: %v", ErrMalformed, b.Label(), err)
	}
	if d.Name == "" {
		d.Name = b.Name
	}
	if err := checkEnums(d); err != nil {
		return flowchart.Diagram{}, fmt.Errorf("%w: block %s: %v", ErrMalformed, b.Label(), err)
	}
	return d, nil
}

// MaxEdgeLength is the longest link a record may declare.
const MaxEdgeLength = 64

func checkEnums(d flowchart.Diagram) error {
	for _, e := range d.Edges {
		switch e.Stroke {
		case "", flowchart.StrokeNormal, flowchart.StrokeDotted, flowchart.StrokeThick:
		default:
			return fmt.Errorf("edge %s -> %s: unknown stroke %q", e.Start, e.End, e.Stroke)
		}
		switch e.Arrow {
		case "", flowchart.ArrowPoint, flowchart.ArrowOpen, flowchart.ArrowDoublePoint:
		default:
			return fmt.Errorf("edge %s -> %s: unknown type %q", e.Start, e.End, e.Arrow)
		}
		if e.Length < 0 {
			return fmt.Errorf("edge %s -> %s: negative length", e.Start, e.End)
		}
		if e.Length > MaxEdgeLength {
			return fmt.Errorf("edge %s -> %s: length %d exceeds %d", e.Start, e.End, e.Length, MaxEdgeLength)
		}
	}
	return nil
}

var _ Parser = RecordParser{}
