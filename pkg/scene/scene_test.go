package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	flowerrors "github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/source"
)

func block(i int, name, body string) source.Block {
	return source.Block{Index: i, Name: name, Line: 1, Body: []byte(body)}
}

func TestLoad_IsolatesFailures(t *testing.T) {
	blocks := []source.Block{
		block(0, "first", "vertices: [{id: a}, {id: b}]\nedges: [{start: a, end: b}]\n"),
		block(1, "broken", "vertices: [{id: a}]\nedges: [{start: a, end: nowhere}]\n"),
		block(2, "third", "vertices: [{id: x}]\nsubgraphs: [{id: g, members: [x]}]\n"),
	}
	sc := New()
	l := &Loader{Scene: sc, Concurrency: 3}

	report := l.Load(context.Background(), blocks)

	if report.Loaded != 2 {
		t.Errorf("Loaded = %d, want 2", report.Loaded)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %v, want 1", report.Failures)
	}
	f := report.Failures[0]
	if f.Block.Index != 1 {
		t.Errorf("failed block = %d, want 1", f.Block.Index)
	}
	if !errors.Is(f.Err, flowchart.ErrUnknownEndpoint) {
		t.Errorf("failure = %v, want ErrUnknownEndpoint", f.Err)
	}
	if code := flowerrors.GetCode(f.Err); code != flowerrors.ErrCodeUnresolvedReference {
		t.Errorf("code = %q, want %q", code, flowerrors.ErrCodeUnresolvedReference)
	}
	if report.Err() == nil {
		t.Error("Report.Err should surface the failure")
	}

	charts := sc.Snapshot()
	if len(charts) != 2 {
		t.Fatalf("scene has %d flowcharts, want 2", len(charts))
	}
	if charts[0].Name != "first" || charts[1].Name != "third" {
		t.Errorf("scene order = %q, %q", charts[0].Name, charts[1].Name)
	}
	if charts[0].Index != 0 || charts[1].Index != 2 {
		t.Errorf("indices = %d, %d", charts[0].Index, charts[1].Index)
	}
	if charts[1].SubgraphCount() != 1 {
		t.Errorf("third flowchart subgraphs = %d", charts[1].SubgraphCount())
	}
}

func TestLoad_Malformed(t *testing.T) {
	sc := New()
	l := &Loader{Scene: sc}
	report := l.Load(context.Background(), []source.Block{block(0, "", "vertices: {")})
	if report.Loaded != 0 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !errors.Is(report.Failures[0].Err, source.ErrMalformed) {
		t.Errorf("failure = %v, want ErrMalformed", report.Failures[0].Err)
	}
	if sc.Len() != 0 {
		t.Error("malformed block should not be published")
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &Loader{Scene: New()}
	report := l.Load(ctx, []source.Block{block(0, "a", "vertices: [{id: a}]")})
	if report.Loaded != 0 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !errors.Is(report.Failures[0].Err, context.Canceled) {
		t.Errorf("failure = %v, want context.Canceled", report.Failures[0].Err)
	}
}

func TestLoad_CustomParser(t *testing.T) {
	parser := source.ParserFunc(func(_ context.Context, b source.Block) (flowchart.Diagram, error) {
		return flowchart.Diagram{Vertices: []flowchart.Vertex{{ID: string(b.Body)}}}, nil
	})
	sc := New()
	l := &Loader{Parser: parser, Scene: sc}
	l.Load(context.Background(), []source.Block{block(0, "named", "only")})

	fc, ok := sc.Find("named")
	if !ok {
		t.Fatal("block name should become the flowchart name")
	}
	if _, err := fc.Lookup("only"); err != nil {
		t.Errorf("Lookup: %v", err)
	}
}

func TestStart(t *testing.T) {
	sc := New()
	l := &Loader{Scene: sc}
	ch := l.Start(context.Background(), []source.Block{
		block(0, "a", "vertices: [{id: a}]"),
		block(1, "b", "vertices: [{id: b}]"),
	})
	report, ok := <-ch
	if !ok || report.Loaded != 2 {
		t.Fatalf("report = %+v, ok = %v", report, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after the report")
	}
	if sc.Len() != 2 {
		t.Errorf("scene has %d flowcharts", sc.Len())
	}
}

func TestLoad_SeedOffset(t *testing.T) {
	body := "vertices: [{id: a}]"
	sc := New()
	l := &Loader{Scene: sc}
	l.Load(context.Background(), []source.Block{block(0, "x", body), block(1, "y", body)})

	charts := sc.Snapshot()
	p0 := charts[0].Body(charts[0].Leaves[0].Body).Position
	p1 := charts[1].Body(charts[1].Leaves[0].Body).Position
	if p0 == p1 {
		t.Error("identical blocks should be scattered differently")
	}
}

func TestPublish_Ordering(t *testing.T) {
	sc := New()
	for _, idx := range []int{3, 1, 2, 1, 0} {
		sc.Publish(&flowchart.Flowchart{Index: idx, Name: fmt.Sprint(idx)})
	}
	var got []int
	for _, fc := range sc.Snapshot() {
		got = append(got, fc.Index)
	}
	want := []int{0, 1, 1, 2, 3}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSnapshot_Stable(t *testing.T) {
	sc := New()
	if sc.Snapshot() != nil {
		t.Error("empty scene should snapshot to nil")
	}
	sc.Publish(&flowchart.Flowchart{Index: 5})
	snap := sc.Snapshot()
	sc.Publish(&flowchart.Flowchart{Index: 0})
	if len(snap) != 1 || snap[0].Index != 5 {
		t.Error("earlier snapshot should not change")
	}
}

func TestPublish_Concurrent(t *testing.T) {
	sc := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc.Publish(&flowchart.Flowchart{Index: i})
			_ = sc.Snapshot()
		}()
	}
	wg.Wait()
	if sc.Len() != 50 {
		t.Errorf("Len = %d, want 50", sc.Len())
	}
}
