package gbt

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/core/parallel"
)

// PredictContrib attributes the raw score of every class to the features
// along each row's decision paths. It returns one n×(NumFeatures+1) matrix per
// class; the last column holds the bias, the summed root values. A row of the
// class-k matrix sums to the raw score of class k up to rounding.
//
// Each split adds the change in node value between parent and child to the
// split feature, so contributions follow the path the row actually takes.
func (p *Predictor) PredictContrib(X mat.Matrix) ([]*mat.Dense, error) {
	src, rows, err := p.checkInput("PredictContrib", X)
	if err != nil {
		return nil, err
	}
	nFeatures := p.model.NumFeatures
	out := make([]*mat.Dense, p.model.NumClass)
	for k := range out {
		out[k] = mat.NewDense(rows, nFeatures+1, nil)
	}

	err = parallel.SafeParallelizeWorkersWithThreshold("Predictor.PredictContrib", rows, p.numThreads, parallelRowThreshold/4, func(s, e int) {
		buf := make([]float64, src.cols)
		for i := s; i < e; i++ {
			x := src.row(i, buf)
			for t := range p.model.Trees {
				tree := &p.model.Trees[t]
				tree.contribute(x, out[tree.Class].RawRowView(i))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// contribute adds the tree's path attribution for x into contrib, whose last
// element is the bias.
func (t *Tree) contribute(x, contrib []float64) {
	idx := 0
	node := &t.Nodes[idx]
	contrib[len(contrib)-1] += node.Value * t.Shrinkage
	for !node.IsLeaf() {
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		child := &t.Nodes[idx]
		contrib[node.Feature] += (child.Value - node.Value) * t.Shrinkage
		node = child
	}
}
