// Package gbt implements gradient boosted decision trees for multiclass
// classification.
//
// Training minimises softmax cross-entropy with second-order (Newton) tree
// boosting: every round grows one regression tree per class on the
// per-sample gradient and hessian of the loss. Trees are stored as arenas of
// value nodes so a trained Model can be serialized and read concurrently.
//
// Basic usage:
//
//	params := gbt.DefaultParams()
//	params.NClasses = 5
//	params.MaxIterations = 200
//	params.MinObservationsInLeafNode = 8
//	params.FeaturesPerNode = 3
//
//	model, err := gbt.NewTrainer(params).Fit(train)
//	if err != nil {
//		return err
//	}
//	labels, err := gbt.NewPredictor(model).PredictDataSet(test)
//
// The sklearn-style GBTClassifier wraps the same Trainer and Predictor behind
// Fit/Predict/PredictProba/Score on gonum matrices.
package gbt
