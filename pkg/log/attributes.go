// Standard attribute keys for training and prediction logs.
//
// Keys follow a hierarchical naming convention ("model.name",
// "data.samples") so that log pipelines can filter on prefixes.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GBTClassifier", "Model"
	ModelNameKey = "model.name"

	// ComponentKey identifies which component is logging.
	// Examples: "gbt.trainer", "gbt.predictor", "dataset"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of target classes.
	ClassesKey = "data.classes"

	// DataTypeKey specifies the declared numeric precision of the data.
	// Examples: "float32", "float64"
	DataTypeKey = "data.type"

	// SourceKey names the file or stream the data was read from.
	SourceKey = "data.source"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// WorkersKey records the number of goroutines used for a parallel step.
	WorkersKey = "perf.workers"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// ErrorRateKey records the misclassification rate in [0, 1].
	ErrorRateKey = "metrics.error_rate"

	// LossKey records the training loss (mean multiclass cross-entropy).
	LossKey = "metrics.loss"

	// IterationKey records the current boosting round.
	IterationKey = "training.iteration"

	// TreesKey records the number of trees in the ensemble.
	TreesKey = "training.trees"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information recorded by cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// LearningRateKey records the shrinkage applied to every tree.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationLoad    = "load"
	OperationSave    = "save"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
