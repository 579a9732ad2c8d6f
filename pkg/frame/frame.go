package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidFrame is returned when decoded data is not a usable frame.
var ErrInvalidFrame = errors.New("invalid frame")

// =============================================================================
// Frame Serialization API
// =============================================================================

// Marshal converts a frame to indented JSON bytes.
func Marshal(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes produced by [Marshal].
func Unmarshal(data []byte) (Frame, error) {
	return Read(bytes.NewReader(data))
}

// WriteFile writes a frame to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(f Frame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Write encodes a frame as JSON to an io.Writer.
func Write(f Frame, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads a JSON frame file.
func ReadFile(path string) (Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return Read(file)
}

// Read decodes a JSON frame and checks that every edge endpoint names a
// node or subgraph of the same flowchart.
func Read(r io.Reader) (Frame, error) {
	var f Frame
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Frame{}, fmt.Errorf("decode: %w", err)
	}
	if err := f.validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

func (f Frame) validate() error {
	for _, fc := range f.Flowcharts {
		ids := make(map[string]bool, len(fc.Nodes)+len(fc.Subgraphs))
		for _, n := range fc.Nodes {
			ids[n.ID] = true
		}
		for _, s := range fc.Subgraphs {
			ids[s.ID] = true
		}
		for _, e := range fc.Edges {
			if !ids[e.From] || !ids[e.To] {
				return fmt.Errorf("%w: flowchart %s: edge %s references unknown endpoint", ErrInvalidFrame, fc.ID, e.ID)
			}
		}
		for _, n := range fc.Nodes {
			if n.Parent != "" && !ids[n.Parent] {
				return fmt.Errorf("%w: flowchart %s: node %s has unknown parent %s", ErrInvalidFrame, fc.ID, n.ID, n.Parent)
			}
		}
	}
	return nil
}

// Find returns the flowchart with the given id or name.
func (f *Frame) Find(key string) (*Flowchart, bool) {
	for i := range f.Flowcharts {
		if f.Flowcharts[i].ID == key || f.Flowcharts[i].Name == key {
			return &f.Flowcharts[i], true
		}
	}
	return nil, false
}
