// Package scigogbt is a gradient boosted decision tree library for
// multiclass classification, written for backend services that train and
// serve models in Go.
//
// The library follows a scikit-learn-like API on top of gonum matrices and
// keeps training fully deterministic for a given seed, independent of the
// number of worker goroutines.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigo-gbt/dataset"
//	    "github.com/YuminosukeSato/scigo-gbt/metrics"
//	    "github.com/YuminosukeSato/scigo-gbt/sklearn/gbt"
//	)
//
//	func main() {
//	    train, err := dataset.NewCSVSource("train.csv").Read()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    test, err := dataset.NewCSVSource("test.csv").Read()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    params := gbt.DefaultParams()
//	    params.NClasses = 5
//	    params.MaxIterations = 200
//	    params.MinObservationsInLeafNode = 8
//	    params.FeaturesPerNode = 3
//
//	    model, err := gbt.NewTrainer(params).Fit(train)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    pred, err := gbt.NewPredictor(model).PredictDataSet(test)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rate, _ := metrics.ErrorRate(test.Labels(), pred)
//	    fmt.Println("error rate:", rate)
//	}
//
// # Packages
//
//   - dataset: DataSet plus CSV, npy and synthetic data sources
//   - sklearn/gbt: Trainer, Predictor, Model persistence and GBTClassifier
//   - metrics: Error rate, accuracy, confusion matrix and log loss
//   - core/model: Estimator interfaces, fitted state and gob persistence
//   - core/parallel: Worker helpers shared by training and prediction
//   - pkg/errors: Error taxonomy with stack traces
//   - pkg/log: Structured logging on zerolog
//
// # Performance
//
// Split search is parallel over features, the trees of one round are built
// in parallel over classes, and prediction is parallel over rows. Set
// TrainingParams.NumThreads to cap the worker count.
package scigogbt
