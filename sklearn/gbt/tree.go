package gbt

import (
	"math"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// Node is one element of a tree arena. Split nodes route x[Feature] <=
// Threshold to Left and everything else to Right. Leaves have Left == Right == -1.
type Node struct {
	Feature   int     // Feature index used for splitting (-1 for leaves)
	Threshold float64 // Split threshold
	Left      int     // Left child index (-1 if leaf)
	Right     int     // Right child index (-1 if leaf)

	// Value is the Newton step -G/(H+lambda) of the node's samples before
	// shrinkage. For leaves it is the tree output.
	Value float64
	Gain  float64 // Split gain (0 for leaves)
	Count int     // Number of training samples that reached the node
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Tree is a single regression tree contributing to the score of one class.
// Nodes[0] is the root.
type Tree struct {
	Class     int     // Class whose score this tree adds to
	Shrinkage float64 // Learning rate applied to leaf values
	Nodes     []Node
}

// Predict returns the shrunk leaf value for one sample.
func (t *Tree) Predict(features []float64) float64 {
	return t.Nodes[t.LeafIndex(features)].Value * t.Shrinkage
}

// LeafIndex returns the arena index of the leaf a sample falls into.
func (t *Tree) LeafIndex(features []float64) int {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return idx
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// NumLeaves counts the leaf nodes.
func (t *Tree) NumLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(idx int) int
	walk = func(idx int) int {
		n := &t.Nodes[idx]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// validate checks arena structure so that LeafIndex always terminates:
// every child index points strictly forward, as the builder lays nodes out
// in preorder.
func (t *Tree) validate(nFeatures, nClasses int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	if t.Class < 0 || t.Class >= nClasses {
		return errors.Newf("tree class %d outside [0, %d)", t.Class, nClasses)
	}
	if !(t.Shrinkage > 0) || math.IsInf(t.Shrinkage, 0) {
		return errors.Newf("invalid shrinkage %v", t.Shrinkage)
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
			return errors.Newf("node %d has non-finite value", i)
		}
		if n.IsLeaf() {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return errors.Newf("node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return errors.Newf("node %d splits on feature %d outside [0, %d)", i, n.Feature, nFeatures)
		}
		if math.IsNaN(n.Threshold) {
			return errors.Newf("node %d has NaN threshold", i)
		}
	}
	return nil
}
