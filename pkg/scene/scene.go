// Package scene holds the flowcharts being simulated and builds them
// concurrently from source blocks.
//
// A [Scene] only grows. Builders [Scene.Publish] fully constructed
// flowcharts; the tick goroutine takes a [Scene.Snapshot] at the start of
// every tick and sees each flowchart either completely or not at all.
package scene

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/flowspace/pkg/flowchart"
)

// Scene is an append-only, index-ordered collection of flowcharts.
// The zero value is an empty scene ready for use.
type Scene struct {
	mu     sync.Mutex
	charts atomic.Pointer[[]*flowchart.Flowchart]
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Publish adds a built flowchart. Flowcharts are kept sorted by Index,
// with ties in publication order. The caller must not touch fc afterwards
// except from the tick goroutine.
func (s *Scene) Publish(fc *flowchart.Flowchart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Snapshot()
	at, _ := slices.BinarySearchFunc(cur, fc.Index+1, func(c *flowchart.Flowchart, idx int) int {
		return c.Index - idx
	})
	next := make([]*flowchart.Flowchart, 0, len(cur)+1)
	next = append(next, cur[:at]...)
	next = append(next, fc)
	next = append(next, cur[at:]...)
	s.charts.Store(&next)
}

// Snapshot returns the flowcharts published so far. The slice must not be
// modified; later publications never change it.
func (s *Scene) Snapshot() []*flowchart.Flowchart {
	p := s.charts.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Len returns the number of published flowcharts.
func (s *Scene) Len() int {
	return len(s.Snapshot())
}

// Find returns the flowchart with the given id, or failing that the first
// one with the given name.
func (s *Scene) Find(key string) (*flowchart.Flowchart, bool) {
	charts := s.Snapshot()
	for _, fc := range charts {
		if fc.ID == key {
			return fc, true
		}
	}
	for _, fc := range charts {
		if fc.Name == key {
			return fc, true
		}
	}
	return nil, false
}
