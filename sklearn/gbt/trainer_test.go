package gbt

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/YuminosukeSato/scigo-gbt/dataset"
	"github.com/YuminosukeSato/scigo-gbt/metrics"
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

func syntheticSet(t *testing.T, rows, classes, noisy int, seed uint64) *dataset.DataSet {
	t.Helper()
	ds, err := dataset.Synthetic(dataset.SyntheticConfig{
		Rows:        rows,
		Features:    3,
		Classes:     classes,
		NoisyLabels: noisy,
		Seed:        seed,
	})
	if err != nil {
		t.Fatalf("Synthetic() error = %v", err)
	}
	return ds
}

func smallParams(classes int) TrainingParams {
	p := DefaultParams()
	p.NClasses = classes
	p.MaxIterations = 10
	p.MinObservationsInLeafNode = 5
	return p
}

func TestTrainer_Fit(t *testing.T) {
	ds := syntheticSet(t, 300, 3, 6, 1)
	p := smallParams(3)

	m, err := NewTrainer(p).Fit(ds)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if m.NumTrees() != p.MaxIterations*p.NClasses {
		t.Errorf("NumTrees() = %d, want %d", m.NumTrees(), p.MaxIterations*p.NClasses)
	}
	if m.NumClass != 3 || m.NumFeatures != 3 || m.NumIteration != 10 {
		t.Errorf("model shape = (%d classes, %d features, %d iterations)", m.NumClass, m.NumFeatures, m.NumIteration)
	}
	if m.Objective != "multiclass_softmax" {
		t.Errorf("Objective = %q", m.Objective)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("trained model fails validation: %v", err)
	}
	if len(m.TrainingLoss) != p.MaxIterations {
		t.Fatalf("len(TrainingLoss) = %d, want %d", len(m.TrainingLoss), p.MaxIterations)
	}
	if !(m.TrainingLoss[len(m.TrainingLoss)-1] < m.TrainingLoss[0]) {
		t.Errorf("training loss did not decrease: %v", m.TrainingLoss)
	}

	for i, tree := range m.Trees {
		if tree.Class != i%3 {
			t.Fatalf("tree %d has class %d, want %d", i, tree.Class, i%3)
		}
		if d := tree.Depth(); d > p.MaxTreeDepth {
			t.Errorf("tree %d depth %d exceeds %d", i, d, p.MaxTreeDepth)
		}
		for j, n := range tree.Nodes {
			if n.IsLeaf() && len(tree.Nodes) > 1 && n.Count < p.MinObservationsInLeafNode {
				t.Errorf("tree %d leaf %d has %d rows", i, j, n.Count)
			}
		}
	}
	if len(m.TreesForClass(1)) != p.MaxIterations {
		t.Errorf("TreesForClass(1) returned %d trees", len(m.TreesForClass(1)))
	}
}

func TestTrainer_Errors(t *testing.T) {
	ds := syntheticSet(t, 100, 3, 0, 1)

	t.Run("one class", func(t *testing.T) {
		p := smallParams(1)
		m, err := NewTrainer(p).Fit(ds)
		var cfgErr *errors.ConfigError
		if !errors.As(err, &cfgErr) || m != nil {
			t.Errorf("Fit() = %v, %v; want nil model and ConfigError", m, err)
		}
	})

	t.Run("label out of range", func(t *testing.T) {
		m, err := NewTrainer(smallParams(2)).Fit(ds)
		var fmtErr *errors.FormatError
		if !errors.As(err, &fmtErr) || m != nil {
			t.Errorf("Fit() = %v, %v; want nil model and FormatError", m, err)
		}
	})

	t.Run("features per node too large", func(t *testing.T) {
		p := smallParams(3)
		p.FeaturesPerNode = 4
		_, err := NewTrainer(p).Fit(ds)
		var cfgErr *errors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Fit() error = %v, want ConfigError", err)
		}
	})

	t.Run("nil data", func(t *testing.T) {
		_, err := NewTrainer(smallParams(3)).Fit(nil)
		if !errors.Is(err, errors.ErrEmptyData) {
			t.Errorf("Fit(nil) error = %v, want ErrEmptyData", err)
		}
	})

	t.Run("unlabelled data", func(t *testing.T) {
		_, err := NewTrainer(smallParams(3)).Fit(ds.FeaturesOnly())
		var valErr *errors.ValueError
		if !errors.As(err, &valErr) {
			t.Errorf("Fit(features only) error = %v, want ValueError", err)
		}
	})
}

func TestTrainer_Deterministic(t *testing.T) {
	ds := syntheticSet(t, 6000, 3, 30, 5)
	p := smallParams(3)
	p.MaxIterations = 3
	p.FeaturesPerNode = 2
	p.ObservationsPerTreeFraction = 0.7

	fit := func(threads int) *Model {
		p := p
		p.NumThreads = threads
		m, err := NewTrainer(p).Fit(ds)
		if err != nil {
			t.Fatalf("Fit(threads=%d) error = %v", threads, err)
		}
		return m
	}

	first, second, serial := fit(4), fit(4), fit(1)
	if !reflect.DeepEqual(first.Trees, second.Trees) || !reflect.DeepEqual(first.TrainingLoss, second.TrainingLoss) {
		t.Error("two runs with the same seed produced different models")
	}
	if !reflect.DeepEqual(first.Trees, serial.Trees) {
		t.Error("model depends on the number of threads")
	}

	p.Seed++
	other, err := NewTrainer(p).Fit(ds)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(first.Trees, other.Trees) {
		t.Error("a different seed should change the sampled model")
	}
}

func TestTrainer_Callbacks(t *testing.T) {
	ds := syntheticSet(t, 200, 3, 0, 2)
	p := smallParams(3)

	var history []float64
	var iterations []int
	m, err := NewTrainer(p).WithCallbacks(
		RecordEvaluation(&history),
		func(env *CallbackEnv) error {
			iterations = append(iterations, env.Iteration)
			if env.NumTrees != (env.Iteration+1)*3 {
				t.Errorf("NumTrees = %d at iteration %d", env.NumTrees, env.Iteration)
			}
			return nil
		},
		LogEvaluation(5),
	).Fit(ds)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !reflect.DeepEqual(history, m.TrainingLoss) {
		t.Errorf("recorded history %v differs from model %v", history, m.TrainingLoss)
	}
	if len(iterations) != p.MaxIterations || iterations[0] != 0 || iterations[len(iterations)-1] != p.MaxIterations-1 {
		t.Errorf("callback iterations = %v", iterations)
	}
}

func TestTrainer_Abort(t *testing.T) {
	ds := syntheticSet(t, 200, 3, 0, 2)
	p := smallParams(3)

	t.Run("callback error", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		m, err := NewTrainer(p).WithCallbacks(func(env *CallbackEnv) error {
			calls++
			if env.Iteration == 2 {
				return stop
			}
			return nil
		}).Fit(ds)
		if m != nil || !errors.Is(err, stop) {
			t.Errorf("Fit() = %v, %v; want nil model and the callback error", m, err)
		}
		if calls != 3 {
			t.Errorf("callback called %d times, want 3", calls)
		}
	})

	t.Run("time limit", func(t *testing.T) {
		m, err := NewTrainer(p).WithCallbacks(TimeLimit(time.Nanosecond)).Fit(ds)
		if m != nil || !errors.Is(err, errors.ErrTrainingAborted) {
			t.Errorf("Fit() = %v, %v; want ErrTrainingAborted", m, err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m, err := NewTrainer(p).FitContext(ctx, ds)
		if m != nil || !errors.Is(err, errors.ErrTrainingAborted) {
			t.Errorf("FitContext() = %v, %v; want ErrTrainingAborted", m, err)
		}
	})
}

func TestSampleRows(t *testing.T) {
	if sampleRows(10, 1, 1, 0) != nil {
		t.Error("fraction 1 should use every row")
	}
	mask := sampleRows(100, 0.3, 7, 4)
	n := 0
	for _, in := range mask {
		if in {
			n++
		}
	}
	if n != 30 {
		t.Errorf("sampled %d rows, want 30", n)
	}
	if !reflect.DeepEqual(mask, sampleRows(100, 0.3, 7, 4)) {
		t.Error("sampleRows is not deterministic")
	}
	if reflect.DeepEqual(mask, sampleRows(100, 0.3, 7, 5)) {
		t.Error("different rounds should draw different samples")
	}
}

// TestSyntheticClassification trains on 1000 rows whose label is the integer
// part of feature 0, with 199 expected mislabelled rows concentrated at the
// top of every class interval, and checks the error on a test set generated
// the same way from another seed.
func TestSyntheticClassification(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 200-round training in short mode")
	}
	concentrated := func(seed uint64) *dataset.DataSet {
		ds, err := dataset.Synthetic(dataset.SyntheticConfig{
			Rows:        1000,
			Features:    3,
			Classes:     5,
			NoisyLabels: 199,
			Noise:       dataset.NoiseConcentrated,
			Seed:        seed,
		})
		if err != nil {
			t.Fatalf("Synthetic() error = %v", err)
		}
		return ds
	}
	train := concentrated(1)
	test := concentrated(2)

	p := DefaultParams()
	p.NClasses = 5
	p.MaxIterations = 200
	p.MinObservationsInLeafNode = 8
	p.FeaturesPerNode = 3

	m, err := NewTrainer(p).Fit(train)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := NewPredictor(m).PredictDataSet(test)
	if err != nil {
		t.Fatalf("PredictDataSet() error = %v", err)
	}
	if len(pred) != test.Rows() {
		t.Fatalf("got %d predictions, want %d", len(pred), test.Rows())
	}
	for i, y := range pred {
		if y < 0 || y >= 5 {
			t.Fatalf("prediction %d = %d out of range", i, y)
		}
	}
	rate, err := metrics.ErrorRate(test.Labels(), pred)
	if err != nil {
		t.Fatal(err)
	}
	if rate >= 0.022 {
		t.Errorf("test error rate = %.4f, want < 0.022", rate)
	}
}

// panickingObjective fails on every gradient evaluation.
type panickingObjective struct{ *SoftmaxObjective }

func (panickingObjective) GradHess(prob []float64, label, k int) (float64, float64) {
	panic("gradient failure")
}

func TestTrainer_WorkerPanicReturnsError(t *testing.T) {
	ds := syntheticSet(t, 3*parallelRowThreshold, 3, 0, 5)
	p := smallParams(3)
	p.NumThreads = 4

	m, err := NewTrainer(p).WithObjective(panickingObjective{NewSoftmaxObjective()}).Fit(ds)
	if m != nil {
		t.Error("a failed Fit must not return a model")
	}
	var panicErr *errors.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Fit() error = %v, want PanicError", err)
	}
	if panicErr.Operation != "Trainer.computeGradients" {
		t.Errorf("Operation = %q, want Trainer.computeGradients", panicErr.Operation)
	}
	if panicErr.PanicValue != "gradient failure" {
		t.Errorf("PanicValue = %v", panicErr.PanicValue)
	}
}
