package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

const dotTemplate = `strict digraph {
{{range .Nodes}}	"{{.Name}}"{{if .Attrs}} [ {{.Attrs}} ]{{end}};
{{end}}{{range .Edges}}	"{{.From}}" -> "{{.To}}";
{{end}}}
`

type node struct {
	Name  string
	Attrs string
}

type edge struct {
	From string
	To   string
}

type description struct {
	Nodes []node
	Edges []edge
}

func writeDOT(g graph.Graph[string, string], fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", fileName)
	}
	defer file.Close()

	desc, err := generateDOT(g)
	if err != nil {
		return err
	}

	return renderDOT(file, desc)
}

// generateDOT flattens the graph into sorted node and edge statements so
// the rendered file is stable across runs.
func generateDOT(g graph.Graph[string, string]) (description, error) {
	var desc description

	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	names := make([]string, 0, len(adjacencyMap))
	for name := range adjacencyMap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		_, properties, err := g.VertexWithProperties(name)
		if err != nil {
			return desc, errors.Wrapf(err, "unable to get vertex %s", name)
		}
		desc.Nodes = append(desc.Nodes, node{Name: name, Attrs: nodeAttrs(name, properties.Attributes)})

		targets := make([]string, 0, len(adjacencyMap[name]))
		for target := range adjacencyMap[name] {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			desc.Edges = append(desc.Edges, edge{From: name, To: target})
		}
	}

	return desc, nil
}

// nodeAttrs renders the two attributes Flow sets: the duration becomes an
// HTML label under the node name, the shade stays a plain colour.
func nodeAttrs(name string, attributes map[string]string) string {
	var parts []string
	if xlabel, ok := attributes["xlabel"]; ok {
		parts = append(parts, fmt.Sprintf(`label=<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, name, xlabel))
	}
	if shade, ok := attributes["color"]; ok {
		parts = append(parts, fmt.Sprintf("color=%q", shade))
	}

	return strings.Join(parts, " ")
}

func renderDOT(w io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	return tpl.Execute(w, desc)
}
