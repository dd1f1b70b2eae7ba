package gbt

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/scigo-gbt/core/parallel"
	"github.com/YuminosukeSato/scigo-gbt/dataset"
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

// parallelRowThreshold is the row count from which per-sample gradient and
// score updates are spread over goroutines.
const parallelRowThreshold = 2048

// Trainer implements the boosting loop. A Trainer may be reused; every call
// to Fit starts from scratch.
type Trainer struct {
	params    TrainingParams
	objective Objective
	callbacks []Callback
	logger    log.Logger
}

// NewTrainer creates a trainer for the given parameters. Parameters are
// validated when Fit is called.
func NewTrainer(params TrainingParams) *Trainer {
	return &Trainer{
		params:    params,
		objective: NewSoftmaxObjective(),
		logger:    log.GetLoggerWithName("gbt.trainer"),
	}
}

// WithCallbacks sets the callbacks invoked after every round.
func (t *Trainer) WithCallbacks(callbacks ...Callback) *Trainer {
	t.callbacks = callbacks
	return t
}

// WithObjective replaces the softmax cross-entropy objective.
func (t *Trainer) WithObjective(o Objective) *Trainer {
	t.objective = o
	return t
}

// Params returns the training parameters.
func (t *Trainer) Params() TrainingParams {
	return t.params
}

// Fit trains a model on ds. It is FitContext with a background context.
func (t *Trainer) Fit(ds *dataset.DataSet) (*Model, error) {
	return t.FitContext(context.Background(), ds)
}

// FitContext trains a model on ds, checking ctx once per boosting round.
// Training either completes every round or returns an error and no model.
func (t *Trainer) FitContext(ctx context.Context, ds *dataset.DataSet) (model *Model, err error) {
	defer errors.Recover(&err, "Trainer.Fit")

	if ds == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "Trainer.Fit")
	}
	p := t.params
	if err := p.Validate(ds.NumFeatures()); err != nil {
		return nil, err
	}
	if !ds.HasLabels() {
		return nil, errors.NewValueError("Trainer.Fit", "training set has no labels")
	}
	if err := ds.ValidateLabels(p.NClasses); err != nil {
		return nil, err
	}

	n, nFeatures, nClasses := ds.Rows(), ds.NumFeatures(), p.NClasses
	cfg := newBuilderConfig(p)
	logger := t.logger.With(log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)
	logger.Info("Training started",
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, nClasses,
		log.LearningRateKey, p.Shrinkage,
		log.RandomSeedKey, p.Seed,
		log.WorkersKey, cfg.workers,
	)
	start := time.Now()

	data, err := newPresorted(ds, cfg.workers)
	if err != nil {
		return nil, err
	}
	labels := ds.Labels()
	scores := make([]float64, n*nClasses)
	prob := make([]float64, n*nClasses)
	grad := make([][]float64, nClasses)
	hess := make([][]float64, nClasses)
	for k := range grad {
		grad[k] = make([]float64, n)
		hess[k] = make([]float64, n)
	}

	trees := make([]Tree, 0, p.MaxIterations*nClasses)
	history := make([]float64, 0, p.MaxIterations)

	for iter := 0; iter < p.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Training cancelled", log.IterationKey, iter)
			return nil, errors.Wrapf(errors.ErrTrainingAborted, "iteration %d: %v", iter, err)
		}

		if err := t.computeGradients(scores, prob, labels, grad, hess, nClasses, cfg.workers); err != nil {
			return nil, errors.Wrapf(err, "computing gradients at iteration %d", iter)
		}
		sample := sampleRows(n, p.ObservationsPerTreeFraction, p.Seed, iter)

		roundTrees := make([]Tree, nClasses)
		buildErrs := make([]error, nClasses)
		parallel.For(nClasses, cfg.workers, func(k int) {
			buildErrs[k] = errors.SafeExecute("TreeBuilder.build", func() error {
				rng := rand.New(rand.NewPCG(p.Seed, uint64(iter*nClasses+k+1)))
				b := newTreeBuilder(cfg, data, grad[k], hess[k], sample, rng)
				roundTrees[k] = b.build(k, p.Shrinkage)
				return nil
			})
		})
		for k, err := range buildErrs {
			if err != nil {
				return nil, errors.Wrapf(err, "building tree for class %d at iteration %d", k, iter)
			}
		}
		trees = append(trees, roundTrees...)

		err := parallel.SafeParallelizeWorkersWithThreshold("Trainer.updateScores", n, cfg.workers, parallelRowThreshold, func(s, e int) {
			for i := s; i < e; i++ {
				x := ds.Row(i)
				for k := range roundTrees {
					scores[i*nClasses+k] += roundTrees[k].Predict(x)
				}
			}
		})
		if err != nil {
			return nil, errors.Wrapf(err, "updating scores at iteration %d", iter)
		}

		loss := t.meanLoss(scores, labels, nClasses)
		if err := errors.CheckScalar("training_loss", loss, iter); err != nil {
			logger.Error("Training diverged", err, log.IterationKey, iter)
			return nil, err
		}
		history = append(history, loss)

		if len(t.callbacks) > 0 {
			env := &CallbackEnv{
				Iteration:     iter,
				NumIterations: p.MaxIterations,
				Loss:          loss,
				NumTrees:      len(trees),
				Elapsed:       time.Since(start),
			}
			for _, cb := range t.callbacks {
				if err := cb(env); err != nil {
					logger.Warn("Training stopped by callback", log.IterationKey, iter, "reason", err.Error())
					return nil, errors.Wrapf(err, "callback error at iteration %d", iter)
				}
			}
		}

		logger.Debug("Training progress", log.IterationKey, iter, log.LossKey, loss)
	}

	model = &Model{
		NumClass:     nClasses,
		NumFeatures:  nFeatures,
		LearningRate: p.Shrinkage,
		NumIteration: p.MaxIterations,
		Objective:    t.objective.Name(),
		Trees:        trees,
		Params:       p,
		TrainingLoss: history,
	}
	logger.Info("Training completed",
		log.TreesKey, len(trees),
		log.LossKey, history[len(history)-1],
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return model, nil
}

// computeGradients converts current scores to probabilities and fills the
// per-class gradient and hessian vectors.
func (t *Trainer) computeGradients(scores, prob []float64, labels []int, grad, hess [][]float64, nClasses, workers int) error {
	return parallel.SafeParallelizeWorkersWithThreshold("Trainer.computeGradients", len(labels), workers, parallelRowThreshold, func(s, e int) {
		for i := s; i < e; i++ {
			raw := scores[i*nClasses : (i+1)*nClasses]
			pr := prob[i*nClasses : (i+1)*nClasses]
			t.objective.Transform(raw, pr)
			for k := 0; k < nClasses; k++ {
				grad[k][i], hess[k][i] = t.objective.GradHess(pr, labels[i], k)
			}
		}
	})
}

// meanLoss is summed sequentially so the recorded history does not depend
// on the worker count.
func (t *Trainer) meanLoss(scores []float64, labels []int, nClasses int) float64 {
	var sum float64
	for i, y := range labels {
		sum += t.objective.Loss(scores[i*nClasses:(i+1)*nClasses], y)
	}
	return sum / float64(len(labels))
}

// sampleRows draws the rows used by every tree of one round. It returns nil
// when all rows are used.
func sampleRows(n int, fraction float64, seed uint64, iter int) []bool {
	if fraction >= 1 {
		return nil
	}
	m := int(fraction*float64(n) + 0.5)
	if m < 1 {
		m = 1
	}
	rng := rand.New(rand.NewPCG(seed, ^uint64(iter)))
	mask := make([]bool, n)
	for _, r := range rng.Perm(n)[:m] {
		mask[r] = true
	}
	return mask
}
