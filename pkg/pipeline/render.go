package pipeline

import (
	"context"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/render/nodelink"
)

// Render produces one artifact from a frame. JSON encodes the whole frame;
// the other formats project a single flowchart.
func Render(ctx context.Context, f frame.Frame, opts RenderOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Format == FormatJSON {
		return frame.Marshal(f)
	}

	fc, err := Select(f, opts.Flowchart)
	if err != nil {
		return nil, err
	}
	dot := nodelink.ToDOT(*fc, opts.Options)

	switch opts.Format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	default:
		return nodelink.RenderPNG(ctx, dot)
	}
}

// Select returns the flowchart with the given id or name, or the first one
// when key is empty.
func Select(f frame.Frame, key string) (*frame.Flowchart, error) {
	if len(f.Flowcharts) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "frame has no flowcharts")
	}
	if key == "" {
		return &f.Flowcharts[0], nil
	}
	fc, ok := f.Find(key)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no flowchart %q in frame", key)
	}
	return fc, nil
}
