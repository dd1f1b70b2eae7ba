package gbt

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/core/parallel"
	"github.com/YuminosukeSato/scigo-gbt/dataset"
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

// Predictor applies a trained Model to new rows. It never modifies the
// model, so any number of Predictors may share one Model.
type Predictor struct {
	model      *Model
	objective  Objective
	numThreads int
	logger     log.Logger
}

// NewPredictor creates a predictor using the model's thread setting.
func NewPredictor(model *Model) *Predictor {
	p := &Predictor{
		model:      model,
		numThreads: model.Params.NumThreads,
		logger:     log.GetLoggerWithName("gbt.predictor"),
	}
	if model.Objective == "" || model.Objective == (&SoftmaxObjective{}).Name() {
		p.objective = NewSoftmaxObjective()
	}
	return p
}

// SetNumThreads caps the worker goroutines; 0 uses every CPU.
func (p *Predictor) SetNumThreads(n int) {
	p.numThreads = n
}

// WithObjective sets the probability transform for models trained with a
// custom objective.
func (p *Predictor) WithObjective(o Objective) *Predictor {
	p.objective = o
	return p
}

// rowSource gives row access to any mat.Matrix, without copying for
// *mat.Dense.
type rowSource struct {
	dense *mat.Dense
	m     mat.Matrix
	cols  int
}

func (r rowSource) row(i int, buf []float64) []float64 {
	if r.dense != nil {
		return r.dense.RawRowView(i)
	}
	return mat.Row(buf, i, r.m)
}

func (p *Predictor) checkInput(op string, X mat.Matrix) (rowSource, int, error) {
	if X == nil {
		return rowSource{}, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	rows, cols := X.Dims()
	if cols != p.model.NumFeatures {
		return rowSource{}, 0, errors.NewDimensionError(op, p.model.NumFeatures, cols, 1)
	}
	src := rowSource{m: X, cols: cols}
	if d, ok := X.(*mat.Dense); ok {
		src.dense = d
	}
	return src, rows, nil
}

// rawScores accumulates every tree into out (length NumClass) in boosting
// order, reproducing the training-time score updates exactly.
func (p *Predictor) rawScores(x []float64, out []float64) {
	for i := range out {
		out[i] = 0
	}
	trees := p.model.Trees
	for i := range trees {
		out[trees[i].Class] += trees[i].Predict(x)
	}
}

// forEachRow runs fn over every row in parallel with a per-worker buffer.
// A panic in a worker is returned as a *errors.PanicError.
func (p *Predictor) forEachRow(op string, src rowSource, rows int, fn func(i int, raw []float64)) error {
	k := p.model.NumClass
	return parallel.SafeParallelizeWorkersWithThreshold(op, rows, p.numThreads, parallelRowThreshold/4, func(s, e int) {
		buf := make([]float64, src.cols)
		raw := make([]float64, k)
		for i := s; i < e; i++ {
			p.rawScores(src.row(i, buf), raw)
			fn(i, raw)
		}
	})
}

// PredictRaw returns the n×NumClass matrix of summed tree outputs.
func (p *Predictor) PredictRaw(X mat.Matrix) (*mat.Dense, error) {
	src, rows, err := p.checkInput("PredictRaw", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, p.model.NumClass, nil)
	err = p.forEachRow("Predictor.PredictRaw", src, rows, func(i int, raw []float64) {
		out.SetRow(i, raw)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictProba returns the n×NumClass matrix of class probabilities.
func (p *Predictor) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if p.objective == nil {
		return nil, errors.NewConfigError("objective", "unknown objective, set one with WithObjective", p.model.Objective)
	}
	src, rows, err := p.checkInput("PredictProba", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, p.model.NumClass, nil)
	err = p.forEachRow("Predictor.PredictProba", src, rows, func(i int, raw []float64) {
		p.objective.Transform(raw, out.RawRowView(i))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Predict returns the argmax class of every row. Ties go to the lowest class
// index.
func (p *Predictor) Predict(X mat.Matrix) ([]int, error) {
	src, rows, err := p.checkInput("Predict", X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, rows)
	err = p.forEachRow("Predictor.Predict", src, rows, func(i int, raw []float64) {
		labels[i] = floats.MaxIdx(raw)
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, rows,
	)
	return labels, nil
}

// PredictDataSet predicts the labels of every row in ds. Labels carried by
// ds are ignored.
func (p *Predictor) PredictDataSet(ds *dataset.DataSet) ([]int, error) {
	if ds == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "PredictDataSet")
	}
	return p.Predict(ds.Features())
}
