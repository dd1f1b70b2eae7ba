package gbt

import (
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// Model is a trained boosted ensemble. Trees are stored round-major: tree i
// belongs to class i % NumClass and round i / NumClass. A Model is never
// modified after training and may be shared by concurrent Predictors.
type Model struct {
	NumClass     int
	NumFeatures  int
	LearningRate float64
	NumIteration int
	Objective    string
	Trees        []Tree
	Params       TrainingParams
	TrainingLoss []float64 // Mean cross-entropy after each round
}

// NumTrees returns the number of trees in the ensemble.
func (m *Model) NumTrees() int {
	return len(m.Trees)
}

// TreesForClass returns the trees that add to the score of class k, in
// boosting order.
func (m *Model) TreesForClass(k int) []Tree {
	var out []Tree
	for i := k; i < len(m.Trees); i += m.NumClass {
		out = append(out, m.Trees[i])
	}
	return out
}

// FeatureImportance returns per-feature importance. importanceType is
// "split" (number of splits using the feature) or "gain" (total gain of
// those splits).
func (m *Model) FeatureImportance(importanceType string) ([]float64, error) {
	useGain := false
	switch importanceType {
	case "split":
	case "gain":
		useGain = true
	default:
		return nil, errors.NewConfigError("importanceType", "must be 'split' or 'gain'", importanceType)
	}

	importance := make([]float64, m.NumFeatures)
	for _, tree := range m.Trees {
		for _, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			if useGain {
				importance[node.Feature] += node.Gain
			} else {
				importance[node.Feature]++
			}
		}
	}
	return importance, nil
}

// Validate checks that the model is structurally sound. Loaded models are
// validated before use.
func (m *Model) Validate() error {
	switch {
	case m.NumClass < 2:
		return errors.NewFormatErrorf("model", 0, 0, "nClasses %d is less than 2", m.NumClass)
	case m.NumFeatures < 1:
		return errors.NewFormatErrorf("model", 0, 0, "invalid feature count %d", m.NumFeatures)
	case !(m.LearningRate > 0):
		return errors.NewFormatErrorf("model", 0, 0, "invalid learning rate %v", m.LearningRate)
	case m.NumIteration < 1 || len(m.Trees) != m.NumIteration*m.NumClass:
		return errors.NewFormatErrorf("model", 0, 0, "expected %d trees for %d iterations, got %d",
			m.NumIteration*m.NumClass, m.NumIteration, len(m.Trees))
	}
	for i := range m.Trees {
		t := &m.Trees[i]
		if t.Class != i%m.NumClass {
			return errors.NewFormatErrorf("model", 0, 0, "tree %d belongs to class %d, want %d", i, t.Class, i%m.NumClass)
		}
		if err := t.validate(m.NumFeatures, m.NumClass); err != nil {
			return errors.NewFormatErrorf("model", 0, 0, "tree %d: %v", i, err)
		}
	}
	return nil
}
