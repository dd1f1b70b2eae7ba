package gbt

import (
	"math"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// Objective defines the loss a Trainer minimises. Scores are raw per-class
// margins of a single sample.
type Objective interface {
	// Name returns the name of the objective.
	Name() string

	// Transform converts raw class scores into class probabilities.
	Transform(raw, prob []float64)

	// GradHess returns the gradient and hessian of the loss with respect to
	// the score of class k, given the sample's probabilities and its label.
	GradHess(prob []float64, label, k int) (grad, hess float64)

	// Loss returns the loss of one sample.
	Loss(raw []float64, label int) float64
}

const minHessian = 1e-16

// SoftmaxObjective is multiclass cross-entropy over softmax probabilities,
// with the diagonal hessian approximation p(1-p).
type SoftmaxObjective struct{}

// NewSoftmaxObjective returns the softmax cross-entropy objective.
func NewSoftmaxObjective() *SoftmaxObjective {
	return &SoftmaxObjective{}
}

func (o *SoftmaxObjective) Name() string {
	return "multiclass_softmax"
}

// Transform computes softmax with numerical stability.
func (o *SoftmaxObjective) Transform(raw, prob []float64) {
	maxLogit := raw[0]
	for _, v := range raw[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	for i, v := range raw {
		prob[i] = math.Exp(v - maxLogit)
		sum += prob[i]
	}
	for i := range prob {
		prob[i] /= sum
	}
}

// GradHess implements Objective: g = p_k - 1[y=k], h = max(p_k(1-p_k), 1e-16).
func (o *SoftmaxObjective) GradHess(prob []float64, label, k int) (float64, float64) {
	p := prob[k]
	g := p
	if k == label {
		g = p - 1
	}
	h := p * (1 - p)
	if h < minHessian {
		h = minHessian
	}
	return g, h
}

// Loss implements Objective: log(sum exp(raw)) - raw[label].
func (o *SoftmaxObjective) Loss(raw []float64, label int) float64 {
	return errors.LogSumExp(raw) - raw[label]
}
