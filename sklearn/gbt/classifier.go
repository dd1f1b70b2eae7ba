package gbt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/core/model"
	"github.com/YuminosukeSato/scigo-gbt/dataset"
	"github.com/YuminosukeSato/scigo-gbt/metrics"
	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

var _ model.Classifier = (*GBTClassifier)(nil)

// GBTClassifier is a scikit-learn style estimator over Trainer and Predictor.
//
//	clf := gbt.NewGBTClassifier().
//		WithMaxIterations(200).
//		WithMinObservationsInLeafNode(8)
//	if err := clf.Fit(X, y); err != nil {
//		return err
//	}
//	acc, _ := clf.Score(Xtest, ytest)
type GBTClassifier struct {
	model.BaseEstimator

	params     TrainingParams
	classesSet bool
	callbacks  []Callback
	trained    *Model
	predictor  *Predictor
	logger     log.Logger
}

// NewGBTClassifier creates a classifier with DefaultParams. Unless
// WithNClasses is called, the class count is taken from the training labels.
func NewGBTClassifier() *GBTClassifier {
	return &GBTClassifier{
		params: DefaultParams(),
		logger: log.GetLoggerWithName("gbt.classifier").With(log.ModelNameKey, "GBTClassifier"),
	}
}

// WithParams replaces every hyperparameter.
func (c *GBTClassifier) WithParams(p TrainingParams) *GBTClassifier {
	c.params = p
	c.classesSet = true
	return c
}

// WithNClasses fixes the number of classes.
func (c *GBTClassifier) WithNClasses(n int) *GBTClassifier {
	c.params.NClasses = n
	c.classesSet = true
	return c
}

// WithMaxIterations sets the number of boosting rounds.
func (c *GBTClassifier) WithMaxIterations(n int) *GBTClassifier {
	c.params.MaxIterations = n
	return c
}

// WithMinObservationsInLeafNode sets the minimum leaf size.
func (c *GBTClassifier) WithMinObservationsInLeafNode(n int) *GBTClassifier {
	c.params.MinObservationsInLeafNode = n
	return c
}

// WithFeaturesPerNode sets the random feature subset size per node.
func (c *GBTClassifier) WithFeaturesPerNode(n int) *GBTClassifier {
	c.params.FeaturesPerNode = n
	return c
}

// WithShrinkage sets the learning rate.
func (c *GBTClassifier) WithShrinkage(lr float64) *GBTClassifier {
	c.params.Shrinkage = lr
	return c
}

// WithMaxTreeDepth sets the maximum tree depth (0 = unlimited).
func (c *GBTClassifier) WithMaxTreeDepth(d int) *GBTClassifier {
	c.params.MaxTreeDepth = d
	return c
}

// WithLambda sets the L2 regularization on leaf values.
func (c *GBTClassifier) WithLambda(l float64) *GBTClassifier {
	c.params.Lambda = l
	return c
}

// WithMinSplitLoss sets the minimum gain a split must exceed.
func (c *GBTClassifier) WithMinSplitLoss(g float64) *GBTClassifier {
	c.params.MinSplitLoss = g
	return c
}

// WithSubsample sets the fraction of rows drawn for each round.
func (c *GBTClassifier) WithSubsample(f float64) *GBTClassifier {
	c.params.ObservationsPerTreeFraction = f
	return c
}

// WithSeed sets the random seed.
func (c *GBTClassifier) WithSeed(seed uint64) *GBTClassifier {
	c.params.Seed = seed
	return c
}

// WithNumThreads caps worker goroutines (0 = all CPUs).
func (c *GBTClassifier) WithNumThreads(n int) *GBTClassifier {
	c.params.NumThreads = n
	return c
}

// WithCallbacks sets per-round training callbacks.
func (c *GBTClassifier) WithCallbacks(callbacks ...Callback) *GBTClassifier {
	c.callbacks = callbacks
	return c
}

// Params returns the configured hyperparameters. The values a fit actually
// used, including an inferred class count, are in Model().Params.
func (c *GBTClassifier) Params() TrainingParams {
	return c.params
}

// Fit trains the classifier. y is an n×1 matrix of integral class labels.
func (c *GBTClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GBTClassifier.Fit")

	if X == nil || y == nil {
		return errors.Wrap(errors.ErrEmptyData, "GBTClassifier.Fit")
	}
	labels, err := labelsFromMatrix("GBTClassifier.Fit", y)
	if err != nil {
		return err
	}
	ds, err := dataset.New(X, labels)
	if err != nil {
		return err
	}
	return c.FitDataSet(context.Background(), ds)
}

// FitDataSet trains the classifier on a labelled DataSet.
func (c *GBTClassifier) FitDataSet(ctx context.Context, ds *dataset.DataSet) error {
	c.Reset()
	c.trained, c.predictor = nil, nil

	params := c.params
	if !c.classesSet && ds != nil {
		params.NClasses = max(2, ds.NumClasses())
	}

	trained, err := NewTrainer(params).WithCallbacks(c.callbacks...).FitContext(ctx, ds)
	if err != nil {
		c.logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
		return err
	}
	c.setModel(trained)
	return nil
}

// setModel installs a trained ensemble. The configured params and classesSet
// stay untouched so a later Fit infers the class count again.
func (c *GBTClassifier) setModel(m *Model) {
	c.trained = m
	c.predictor = NewPredictor(m)
	c.SetFitted()
}

// Predict returns the predicted labels as an n×1 vector.
func (c *GBTClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	labels, err := c.PredictLabels(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(labels), nil)
	for i, y := range labels {
		out.SetVec(i, float64(y))
	}
	return out, nil
}

// PredictLabels returns the predicted labels.
func (c *GBTClassifier) PredictLabels(X mat.Matrix) ([]int, error) {
	if err := c.CheckFitted("GBTClassifier", "Predict"); err != nil {
		return nil, err
	}
	return c.predictor.Predict(X)
}

// PredictProba returns the n×NumClass class probabilities.
func (c *GBTClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := c.CheckFitted("GBTClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	return c.predictor.PredictProba(X)
}

// Score returns the accuracy on (X, y).
func (c *GBTClassifier) Score(X, y mat.Matrix) (float64, error) {
	if err := c.CheckFitted("GBTClassifier", "Score"); err != nil {
		return 0, err
	}
	pred, err := c.PredictLabels(X)
	if err != nil {
		return 0, err
	}
	truth, err := labelsFromMatrix("GBTClassifier.Score", y)
	if err != nil {
		return 0, err
	}
	rate, err := metrics.ErrorRate(truth, pred)
	if err != nil {
		return 0, err
	}
	c.logger.Info("Scored",
		log.OperationKey, log.OperationScore,
		log.SamplesKey, len(truth),
		log.AccuracyKey, 1-rate,
	)
	return 1 - rate, nil
}

// Model returns the trained ensemble, or nil before Fit.
func (c *GBTClassifier) Model() *Model {
	return c.trained
}

// FeatureImportance returns per-feature importance ("split" or "gain").
func (c *GBTClassifier) FeatureImportance(importanceType string) ([]float64, error) {
	if err := c.CheckFitted("GBTClassifier", "FeatureImportance"); err != nil {
		return nil, err
	}
	return c.trained.FeatureImportance(importanceType)
}

// Save writes the trained model to path.
func (c *GBTClassifier) Save(path string) error {
	if err := c.CheckFitted("GBTClassifier", "Save"); err != nil {
		return err
	}
	return c.trained.SaveToFile(path)
}

// LoadGBTClassifier restores a fitted classifier from a file written by Save.
func LoadGBTClassifier(path string) (*GBTClassifier, error) {
	m, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	c := NewGBTClassifier()
	c.params = m.Params
	c.setModel(m)
	return c, nil
}

// labelsFromMatrix converts an n×1 (or 1×n vector) label matrix to ints.
func labelsFromMatrix(op string, y mat.Matrix) ([]int, error) {
	r, cols := y.Dims()
	n := r
	at := func(i int) float64 { return y.At(i, 0) }
	if cols != 1 {
		if r != 1 {
			return nil, errors.NewDimensionError(op, 1, cols, 1)
		}
		n = cols
		at = func(i int) float64 { return y.At(0, i) }
	}
	labels := make([]int, n)
	for i := range labels {
		v := at(i)
		if v != math.Trunc(v) || v < 0 || math.IsInf(v, 0) {
			return nil, errors.NewFormatErrorf("labels", i+1, 0, "class label %v is not a non-negative integer", v)
		}
		labels[i] = int(v)
	}
	return labels, nil
}
