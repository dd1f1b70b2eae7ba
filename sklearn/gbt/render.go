package gbt

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

var renderFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
	"dot": graphviz.Format("dot"),
}

func featureName(names []string, j int) string {
	if j < len(names) && names[j] != "" {
		return names[j]
	}
	return fmt.Sprintf("f%d", j)
}

func (t *Tree) nodeLabel(idx int, names []string) string {
	n := &t.Nodes[idx]
	if n.IsLeaf() {
		return fmt.Sprintf("leaf %d\\nvalue = %.6g\\nn = %d", idx, n.Value*t.Shrinkage, n.Count)
	}
	return fmt.Sprintf("%s <= %.6g\\ngain = %.6g\\nn = %d", featureName(names, n.Feature), n.Threshold, n.Gain, n.Count)
}

func (t *Tree) drawNode(g *cgraph.Graph, idx int, parent *cgraph.Node, names []string) error {
	current, err := g.CreateNode(fmt.Sprint(idx))
	if err != nil {
		return err
	}
	if parent != nil {
		if _, err := g.CreateEdge("", parent, current); err != nil {
			return err
		}
	}

	current.Set("label", t.nodeLabel(idx, names))
	n := &t.Nodes[idx]
	if n.IsLeaf() {
		current.Set("shape", "box")
		return nil
	}
	if err := t.drawNode(g, n.Left, current, names); err != nil {
		return err
	}
	return t.drawNode(g, n.Right, current, names)
}

// DrawGraph builds a graphviz graph of the tree. The caller closes both
// returned values. featureNames may be nil.
func (t *Tree) DrawGraph(featureNames []string) (*graphviz.Graphviz, *cgraph.Graph, error) {
	if len(t.Nodes) == 0 {
		return nil, nil, errors.NewValueError("Tree.DrawGraph", "tree has no nodes")
	}
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		gv.Close()
		return nil, nil, errors.Wrap(err, "creating graph")
	}
	if err := t.drawNode(graph, 0, nil, featureNames); err != nil {
		graph.Close()
		gv.Close()
		return nil, nil, errors.Wrap(err, "drawing tree")
	}
	return gv, graph, nil
}

// Render writes the tree to w in the given format ("png", "svg", "jpg" or "dot").
func (t *Tree) Render(w io.Writer, format string, featureNames []string) error {
	gvFormat, ok := renderFormats[format]
	if !ok {
		return errors.NewConfigError("format", "must be one of png, svg, jpg, dot", format)
	}
	gv, graph, err := t.DrawGraph(featureNames)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()

	if err := gv.Render(graph, gvFormat, w); err != nil {
		return errors.NewIOError("Tree.Render", "", err)
	}
	return nil
}

// RenderDOT writes the tree in DOT format.
func (t *Tree) RenderDOT(w io.Writer, featureNames []string) error {
	return t.Render(w, "dot", featureNames)
}

// RenderTrees writes one picture per tree into dir, named
// <prefix>_<index>.<format> in boosting order.
func (m *Model) RenderTrees(dir, prefix, format string, featureNames []string) error {
	gvFormat, ok := renderFormats[format]
	if !ok {
		return errors.NewConfigError("format", "must be one of png, svg, jpg, dot", format)
	}
	for i := range m.Trees {
		path := filepath.Join(dir, fmt.Sprintf("%s_%05d.%s", prefix, i, format))
		if err := renderTreeFile(&m.Trees[i], gvFormat, path, featureNames); err != nil {
			return err
		}
	}
	return nil
}

func renderTreeFile(t *Tree, format graphviz.Format, path string, featureNames []string) error {
	gv, graph, err := t.DrawGraph(featureNames)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()

	if err := gv.RenderFilename(graph, format, path); err != nil {
		return errors.NewIOError("Model.RenderTrees", path, err)
	}
	return nil
}
