package pipeline

import (
	"context"
	"os"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/scene"
	"github.com/matzehuels/flowspace/pkg/source"
)

// ReadDocument returns the document content and its blocks.
func ReadDocument(opts Options) ([]byte, []source.Block, error) {
	src := opts.Source
	if src == nil {
		data, err := os.ReadFile(opts.Path)
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "document %s", opts.Path)
		}
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
		}
		src = data
	}

	return src, source.Split(opts.Path, src, opts.Lang), nil
}

// Load builds every block of the document into a new scene. Blocks that
// fail are listed in the report; Load itself only fails when the document
// cannot be read or contains no diagram at all.
func Load(ctx context.Context, opts Options) (*scene.Scene, scene.Report, error) {
	_, blocks, err := ReadDocument(opts)
	if err != nil {
		return nil, scene.Report{}, err
	}
	return loadBlocks(ctx, blocks, opts)
}

func loadBlocks(ctx context.Context, blocks []source.Block, opts Options) (*scene.Scene, scene.Report, error) {
	if len(blocks) == 0 {
		return nil, scene.Report{}, errors.New(errors.ErrCodeNotFound, "no %q blocks found", opts.Lang)
	}

	sc := scene.New()
	loader := &scene.Loader{
		Parser:      opts.Parser,
		Scene:       sc,
		Logger:      opts.Logger,
		Concurrency: opts.Concurrency,
		Build:       opts.Build,
	}
	report := loader.Load(ctx, blocks)
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	return sc, report, nil
}
