package gbt

import (
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

func trainedModel(t *testing.T) (*Model, *Predictor) {
	t.Helper()
	ds := syntheticSet(t, 300, 3, 0, 3)
	m, err := NewTrainer(smallParams(3)).Fit(ds)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return m, NewPredictor(m)
}

func TestPredictor_Outputs(t *testing.T) {
	_, pred := trainedModel(t)
	test := syntheticSet(t, 50, 3, 0, 4)
	X := test.Features()

	labels, err := pred.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	raw, err := pred.PredictRaw(X)
	if err != nil {
		t.Fatalf("PredictRaw() error = %v", err)
	}
	proba, err := pred.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	if len(labels) != 50 {
		t.Fatalf("got %d labels, want 50", len(labels))
	}
	if r, c := proba.Dims(); r != 50 || c != 3 {
		t.Fatalf("PredictProba dims = (%d, %d), want (50, 3)", r, c)
	}
	for i, y := range labels {
		if y < 0 || y >= 3 {
			t.Fatalf("label %d = %d out of range", i, y)
		}
		row := proba.RawRowView(i)
		if math.Abs(floats.Sum(row)-1) > 1e-12 {
			t.Errorf("row %d probabilities sum to %v", i, floats.Sum(row))
		}
		if floats.MaxIdx(raw.RawRowView(i)) != y || floats.MaxIdx(row) != y {
			t.Errorf("row %d: label %d does not match argmax of scores", i, y)
		}
	}
}

func TestPredictor_RawScoresSumTrees(t *testing.T) {
	m, pred := trainedModel(t)
	x := []float64{1.2, 0.4, 2.9}

	want := make([]float64, m.NumClass)
	for _, tree := range m.Trees {
		want[tree.Class] += tree.Predict(x)
	}
	raw, err := pred.PredictRaw(mat.NewDense(1, 3, x))
	if err != nil {
		t.Fatal(err)
	}
	for k, w := range want {
		if raw.At(0, k) != w {
			t.Errorf("raw[%d] = %v, want %v", k, raw.At(0, k), w)
		}
	}
}

func TestPredictor_NonDenseInput(t *testing.T) {
	_, pred := trainedModel(t)
	test := syntheticSet(t, 40, 3, 0, 6)
	dense := mat.DenseCopyOf(test.Features())
	transposed := mat.DenseCopyOf(dense.T()).T()

	a, err := pred.Predict(dense)
	if err != nil {
		t.Fatal(err)
	}
	b, err := pred.Predict(transposed)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d: dense %d, view %d", i, a[i], b[i])
		}
	}
}

func TestPredictor_DimensionMismatch(t *testing.T) {
	_, pred := trainedModel(t)
	X := mat.NewDense(2, 4, nil)

	for name, call := range map[string]func() error{
		"Predict":      func() error { _, err := pred.Predict(X); return err },
		"PredictRaw":   func() error { _, err := pred.PredictRaw(X); return err },
		"PredictProba": func() error { _, err := pred.PredictProba(X); return err },
	} {
		err := call()
		var dimErr *errors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("%s() error = %v, want DimensionError", name, err)
			continue
		}
		if dimErr.Expected != 3 || dimErr.Got != 4 || dimErr.Axis != 1 {
			t.Errorf("%s() DimensionError = %+v", name, dimErr)
		}
	}

	if _, err := pred.PredictDataSet(nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("PredictDataSet(nil) error = %v, want ErrEmptyData", err)
	}
}

func TestPredictor_UnknownObjective(t *testing.T) {
	m, _ := trainedModel(t)
	custom := *m
	custom.Objective = "custom"
	pred := NewPredictor(&custom)

	if _, err := pred.Predict(mat.NewDense(1, 3, nil)); err != nil {
		t.Errorf("Predict() should not need the objective: %v", err)
	}
	_, err := pred.PredictProba(mat.NewDense(1, 3, nil))
	var cfgErr *errors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("PredictProba() error = %v, want ConfigError", err)
	}
	if _, err := pred.WithObjective(NewSoftmaxObjective()).PredictProba(mat.NewDense(1, 3, nil)); err != nil {
		t.Errorf("PredictProba() with objective error = %v", err)
	}
}

func TestPredictor_ConcurrentUse(t *testing.T) {
	m, pred := trainedModel(t)
	test := syntheticSet(t, 3000, 3, 0, 8)
	want, err := pred.Predict(test.Features())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([][]int, 4)
	for w := range results {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := NewPredictor(m)
			p.SetNumThreads(w + 1)
			results[w], _ = p.Predict(test.Features())
		}(w)
	}
	wg.Wait()

	for w, got := range results {
		if len(got) != len(want) {
			t.Fatalf("worker %d returned %d labels", w, len(got))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("worker %d row %d: %d, want %d", w, i, got[i], want[i])
			}
		}
	}
}

func TestPredictor_PredictContrib(t *testing.T) {
	m, pred := trainedModel(t)
	test := syntheticSet(t, 20, 3, 0, 12)

	contrib, err := pred.PredictContrib(test.Features())
	if err != nil {
		t.Fatalf("PredictContrib() error = %v", err)
	}
	raw, err := pred.PredictRaw(test.Features())
	if err != nil {
		t.Fatal(err)
	}
	if len(contrib) != m.NumClass {
		t.Fatalf("got %d matrices, want %d", len(contrib), m.NumClass)
	}
	for k, c := range contrib {
		if r, cols := c.Dims(); r != 20 || cols != m.NumFeatures+1 {
			t.Fatalf("class %d dims = (%d, %d)", k, r, cols)
		}
		for i := 0; i < 20; i++ {
			sum := floats.Sum(c.RawRowView(i))
			if math.Abs(sum-raw.At(i, k)) > 1e-9 {
				t.Errorf("class %d row %d: contributions sum to %v, raw score %v", k, i, sum, raw.At(i, k))
			}
		}
	}

	if _, err := pred.PredictContrib(mat.NewDense(1, 5, nil)); err == nil {
		t.Error("PredictContrib() should reject a width mismatch")
	}
}

// corruptModel splits on a feature the input does not have, so every worker
// indexes past the end of its row.
func corruptModel() *Model {
	tree := Tree{
		Class:     0,
		Shrinkage: 1,
		Nodes: []Node{
			{Feature: 5, Threshold: 0.5, Left: 1, Right: 2},
			{Feature: -1, Left: -1, Right: -1, Value: -1},
			{Feature: -1, Left: -1, Right: -1, Value: 1},
		},
	}
	return &Model{
		NumClass:    2,
		NumFeatures: 1,
		Objective:   "multiclass_softmax",
		Trees:       []Tree{tree, {Class: 1, Shrinkage: 1, Nodes: []Node{{Feature: -1, Left: -1, Right: -1}}}},
	}
}

func TestPredictor_WorkerPanicReturnsError(t *testing.T) {
	p := NewPredictor(corruptModel())
	p.SetNumThreads(4)
	X := mat.NewDense(2000, 1, nil)

	calls := map[string]func() error{
		"PredictRaw":     func() error { _, err := p.PredictRaw(X); return err },
		"PredictProba":   func() error { _, err := p.PredictProba(X); return err },
		"Predict":        func() error { _, err := p.Predict(X); return err },
		"PredictContrib": func() error { _, err := p.PredictContrib(X); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var panicErr *errors.PanicError
			if err := call(); !errors.As(err, &panicErr) {
				t.Fatalf("%s() error = %v, want PanicError", name, err)
			}
			if panicErr.Operation != "Predictor."+name {
				t.Errorf("Operation = %q, want Predictor.%s", panicErr.Operation, name)
			}
		})
	}
}
