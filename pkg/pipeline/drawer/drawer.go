// Package drawer renders the data flow of a pipeline session (datasets,
// loaders, engine stages) as a DOT graph, with stage nodes shaded by how
// long they ran.
package drawer

import (
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"
)

// Flow collects nodes and edges while stages run and draws them once the
// session is over.
type Flow struct {
	mu        sync.Mutex
	fileName  string
	graph     graph.Graph[string, string]
	nodes     map[string]struct{}
	durations map[string]time.Duration
}

// New creates a flow drawer that writes DOT output to fileName.
func New(fileName string) *Flow {
	return &Flow{
		fileName:  fileName,
		graph:     graph.New(graph.StringHash, graph.Directed()),
		nodes:     make(map[string]struct{}),
		durations: make(map[string]time.Duration),
	}
}

// AddNode records a node. Re-adding an existing node is a no-op.
func (f *Flow) AddNode(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nodes[name]; ok {
		return nil
	}
	if err := f.graph.AddVertex(name); err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}
	f.nodes[name] = struct{}{}

	return nil
}

// AddEdge records a directed link. Re-adding an existing edge is a no-op.
func (f *Flow) AddEdge(parent, child string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.graph.AddEdge(parent, child)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parent, child)
	}

	return nil
}

// SetDuration labels a node with the elapsed time of its run. A repeated
// run of the same node keeps the latest duration.
func (f *Flow) SetDuration(name string, elapsed time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, properties, err := f.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrapf(err, "unable to get vertex %s", name)
	}
	properties.Attributes["xlabel"] = elapsed.String()
	f.durations[name] = elapsed

	return nil
}

const maxRGB = 240

// shade colours timed nodes on a blue-to-red scale, slowest red.
func (f *Flow) shade() error {
	if len(f.durations) == 0 {
		return nil
	}

	minValue, maxValue := time.Duration(0), time.Duration(0)
	first := true
	for _, elapsed := range f.durations {
		if first || elapsed < minValue {
			minValue = elapsed
		}
		if first || elapsed > maxValue {
			maxValue = elapsed
		}
		first = false
	}

	for name, elapsed := range f.durations {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(elapsed-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		shade, err := colors.RGB(uint8(red), 0, uint8(blue))
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		_, properties, err := f.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %s", name)
		}
		properties.Attributes["color"] = shade.ToHEX().String()
	}

	return nil
}

// Draw shades the timed nodes and writes the DOT file.
func (f *Flow) Draw() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.shade(); err != nil {
		return err
	}

	return writeDOT(f.graph, f.fileName)
}
