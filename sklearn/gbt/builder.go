package gbt

import (
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"

	"github.com/YuminosukeSato/scigo-gbt/core/parallel"
	"github.com/YuminosukeSato/scigo-gbt/dataset"
)

// parallelSplitWork is the node size (rows × candidate features) from which
// split search is spread over goroutines.
const parallelSplitWork = 1 << 14

// builderConfig holds the tree-shape parameters shared by every tree.
type builderConfig struct {
	minObs          int
	maxDepth        int
	featuresPerNode int
	lambda          float64
	minSplitLoss    float64
	workers         int
}

func newBuilderConfig(p TrainingParams) builderConfig {
	return builderConfig{
		minObs:          p.MinObservationsInLeafNode,
		maxDepth:        p.MaxTreeDepth,
		featuresPerNode: p.FeaturesPerNode,
		lambda:          p.Lambda,
		minSplitLoss:    p.MinSplitLoss,
		workers:         parallel.Workers(p.NumThreads),
	}
}

// presorted is a feature-major copy of the training matrix with, per
// feature, the row indices ordered by (value, row). It is built once per
// training run and shared read-only by every tree.
type presorted struct {
	columns [][]float64
	order   [][]int
	rows    int
}

func newPresorted(ds *dataset.DataSet, workers int) (*presorted, error) {
	nFeatures := ds.NumFeatures()
	p := &presorted{
		columns: make([][]float64, nFeatures),
		order:   make([][]int, nFeatures),
		rows:    ds.Rows(),
	}
	err := parallel.SafeFor("presort", nFeatures, workers, func(j int) {
		col := ds.Column(j, nil)
		idx := lo.Range(len(col))
		sort.Slice(idx, func(a, b int) bool {
			va, vb := col[idx[a]], col[idx[b]]
			if va != vb {
				return va < vb
			}
			return idx[a] < idx[b]
		})
		p.columns[j] = col
		p.order[j] = idx
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// splitInfo contains information about a candidate split.
type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
	nLeft     int
	valid     bool
}

// treeBuilder grows one tree on fixed gradient statistics. Each feature keeps
// its own sorted list of the sampled rows; every node owns the same
// [start, end) segment of all lists, kept in sync by a stable partition after
// each split.
type treeBuilder struct {
	cfg  builderConfig
	data *presorted
	grad []float64
	hess []float64
	rng  *rand.Rand

	order    [][]int
	goesLeft []bool
	scratch  []int
	all      []int
	nodes    []Node
}

// newTreeBuilder restricts the presorted lists to rows with sample[r] set;
// a nil sample keeps every row.
func newTreeBuilder(cfg builderConfig, data *presorted, grad, hess []float64, sample []bool, rng *rand.Rand) *treeBuilder {
	nFeatures := len(data.order)
	b := &treeBuilder{
		cfg:      cfg,
		data:     data,
		grad:     grad,
		hess:     hess,
		rng:      rng,
		order:    make([][]int, nFeatures),
		goesLeft: make([]bool, data.rows),
		all:      lo.Range(nFeatures),
	}
	for j, full := range data.order {
		if sample == nil {
			b.order[j] = append([]int(nil), full...)
			continue
		}
		b.order[j] = lo.Filter(full, func(r int, _ int) bool { return sample[r] })
	}
	b.scratch = make([]int, 0, len(b.order[0]))
	return b
}

// build grows the tree from the root and returns it.
func (b *treeBuilder) build(class int, shrinkage float64) Tree {
	b.grow(0, len(b.order[0]), 0)
	return Tree{Class: class, Shrinkage: shrinkage, Nodes: b.nodes}
}

// grow appends the subtree for segment [start, end) in preorder and returns
// the index of its root.
func (b *treeBuilder) grow(start, end, depth int) int {
	g, h := b.sums(start, end)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature: -1,
		Left:    -1,
		Right:   -1,
		Value:   leafValue(g, h, b.cfg.lambda),
		Count:   end - start,
	})

	if b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth {
		return idx
	}
	if end-start < 2*b.cfg.minObs {
		return idx
	}
	best := b.findBestSplit(start, end, g, h)
	if !best.valid || !(best.gain > b.cfg.minSplitLoss) {
		return idx
	}

	b.partition(start, end, best)
	mid := start + best.nLeft
	left := b.grow(start, mid, depth+1)
	right := b.grow(mid, end, depth+1)

	node := &b.nodes[idx]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Gain = best.gain
	node.Left = left
	node.Right = right
	return idx
}

func (b *treeBuilder) sums(start, end int) (g, h float64) {
	for _, r := range b.order[0][start:end] {
		g += b.grad[r]
		h += b.hess[r]
	}
	return g, h
}

func leafValue(g, h, lambda float64) float64 {
	return -g / (h + lambda)
}

// candidateFeatures returns the features searched at one node, ascending.
func (b *treeBuilder) candidateFeatures() []int {
	k := b.cfg.featuresPerNode
	n := len(b.all)
	if k <= 0 || k >= n {
		return b.all
	}
	subset := b.rng.Perm(n)[:k]
	sort.Ints(subset)
	return subset
}

// findBestSplit evaluates every candidate feature and reduces in ascending
// feature order, keeping the first of equally good splits.
func (b *treeBuilder) findBestSplit(start, end int, g, h float64) splitInfo {
	features := b.candidateFeatures()
	results := make([]splitInfo, len(features))

	search := func(i int) {
		results[i] = b.scanFeature(features[i], start, end, g, h)
	}
	if (end-start)*len(features) < parallelSplitWork || b.cfg.workers == 1 {
		for i := range features {
			search(i)
		}
	} else {
		// Re-raised on the builder goroutine, whose SafeExecute reports it.
		if err := parallel.SafeFor("TreeBuilder.findBestSplit", len(features), b.cfg.workers, search); err != nil {
			panic(err)
		}
	}

	var best splitInfo
	for _, s := range results {
		if s.valid && (!best.valid || s.gain > best.gain) {
			best = s
		}
	}
	return best
}

// scanFeature sweeps the sorted segment of one feature, moving rows to the
// left side one at a time, and scores every threshold between two distinct
// consecutive values that leaves minObs rows on both sides.
func (b *treeBuilder) scanFeature(feature, start, end int, g, h float64) splitInfo {
	col := b.data.columns[feature]
	rows := b.order[feature][start:end]
	n := len(rows)
	lambda := b.cfg.lambda
	minObs := b.cfg.minObs
	parentScore := g * g / (h + lambda)

	best := splitInfo{feature: feature}
	var gl, hl float64
	for i := 0; i < n-1; i++ {
		r := rows[i]
		gl += b.grad[r]
		hl += b.hess[r]

		nLeft := i + 1
		if nLeft < minObs {
			continue
		}
		if n-nLeft < minObs {
			break
		}
		a, c := col[r], col[rows[i+1]]
		if a == c {
			continue
		}

		gr, hr := g-gl, h-hl
		gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parentScore)
		if !best.valid || gain > best.gain {
			best = splitInfo{
				feature:   feature,
				threshold: midpoint(a, c),
				gain:      gain,
				nLeft:     nLeft,
				valid:     true,
			}
		}
	}
	return best
}

// midpoint returns a threshold t with a <= t < c.
func midpoint(a, c float64) float64 {
	t := a/2 + c/2
	if t < a || t >= c {
		return a
	}
	return t
}

// partition reorders every feature's [start, end) segment so rows going left
// come first, preserving the sorted order within each side.
func (b *treeBuilder) partition(start, end int, s splitInfo) {
	col := b.data.columns[s.feature]
	for _, r := range b.order[s.feature][start:end] {
		b.goesLeft[r] = col[r] <= s.threshold
	}
	for j := range b.order {
		seg := b.order[j][start:end]
		right := b.scratch[:0]
		nLeft := 0
		for _, r := range seg {
			if b.goesLeft[r] {
				seg[nLeft] = r
				nLeft++
			} else {
				right = append(right, r)
			}
		}
		copy(seg[nLeft:], right)
	}
}
