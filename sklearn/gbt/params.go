package gbt

import (
	"encoding/json"
	"io"
	"math"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// TrainingParams contains all training hyperparameters. JSON names follow
// the daal4py gbt_classification_training parameter names.
type TrainingParams struct {
	// Basic parameters
	NClasses                  int `json:"nClasses"`
	MaxIterations             int `json:"maxIterations"`
	MinObservationsInLeafNode int `json:"minObservationsInLeafNode"`
	// FeaturesPerNode is the size of the random feature subset evaluated at
	// each node; 0 means all features.
	FeaturesPerNode int `json:"featuresPerNode"`

	// Tree shape and regularization
	Shrinkage    float64 `json:"shrinkage"`
	MaxTreeDepth int     `json:"maxTreeDepth"` // 0 = unlimited
	Lambda       float64 `json:"lambda"`
	MinSplitLoss float64 `json:"minSplitLoss"`

	// Sampling
	ObservationsPerTreeFraction float64 `json:"observationsPerTreeFraction"`
	Seed                        uint64  `json:"seed"`

	// NumThreads caps worker goroutines; 0 uses every CPU.
	NumThreads int `json:"numThreads"`
}

// DefaultParams returns the daal defaults for a binary problem.
func DefaultParams() TrainingParams {
	return TrainingParams{
		NClasses:                    2,
		MaxIterations:               50,
		MinObservationsInLeafNode:   5,
		FeaturesPerNode:             0,
		Shrinkage:                   0.3,
		MaxTreeDepth:                6,
		Lambda:                      1,
		MinSplitLoss:                0,
		ObservationsPerTreeFraction: 1,
		Seed:                        777,
		NumThreads:                  0,
	}
}

// Validate checks the parameters. nFeatures <= 0 skips the checks that
// depend on the training data width.
func (p TrainingParams) Validate(nFeatures int) error {
	switch {
	case p.NClasses < 2:
		return errors.NewConfigError("nClasses", "must be at least 2", p.NClasses)
	case p.MaxIterations <= 0:
		return errors.NewConfigError("maxIterations", "must be positive", p.MaxIterations)
	case p.MinObservationsInLeafNode <= 0:
		return errors.NewConfigError("minObservationsInLeafNode", "must be positive", p.MinObservationsInLeafNode)
	case p.FeaturesPerNode < 0:
		return errors.NewConfigError("featuresPerNode", "must be non-negative", p.FeaturesPerNode)
	case nFeatures > 0 && p.FeaturesPerNode > nFeatures:
		return errors.NewConfigError("featuresPerNode", "must not exceed the number of features", p.FeaturesPerNode)
	case !(p.Shrinkage > 0) || math.IsInf(p.Shrinkage, 0):
		return errors.NewConfigError("shrinkage", "must be a positive finite number", p.Shrinkage)
	case p.MaxTreeDepth < 0:
		return errors.NewConfigError("maxTreeDepth", "must be non-negative", p.MaxTreeDepth)
	case !(p.Lambda >= 0) || math.IsInf(p.Lambda, 0):
		return errors.NewConfigError("lambda", "must be a non-negative finite number", p.Lambda)
	case !(p.MinSplitLoss >= 0) || math.IsInf(p.MinSplitLoss, 0):
		return errors.NewConfigError("minSplitLoss", "must be a non-negative finite number", p.MinSplitLoss)
	case !(p.ObservationsPerTreeFraction > 0 && p.ObservationsPerTreeFraction <= 1):
		return errors.NewConfigError("observationsPerTreeFraction", "must be in (0, 1]", p.ObservationsPerTreeFraction)
	case p.NumThreads < 0:
		return errors.NewConfigError("numThreads", "must be non-negative", p.NumThreads)
	}
	return nil
}

// ParamsFromMap builds parameters from DefaultParams overridden by m. Keys
// may use the daal names or any alias known to the parameter mapper, for
// example "num_class", "n_estimators" or "learning_rate".
func ParamsFromMap(m map[string]interface{}) (TrainingParams, error) {
	p := DefaultParams()
	mapper := NewParameterMapper()
	for key, value := range m {
		name, ok := mapper.Canonical(key)
		if !ok {
			return p, errors.NewConfigError(key, "unknown parameter", value)
		}
		if err := p.set(name, value); err != nil {
			return p, err
		}
	}
	return p, nil
}

// LoadParamsJSON reads a JSON object of parameters (see ParamsFromMap).
func LoadParamsJSON(r io.Reader) (TrainingParams, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return DefaultParams(), errors.NewFormatErrorf("params", 0, 0, "invalid JSON: %v", err)
	}
	return ParamsFromMap(m)
}

func (p *TrainingParams) set(name string, value interface{}) error {
	switch name {
	case "nClasses":
		return setInt(&p.NClasses, name, value)
	case "maxIterations":
		return setInt(&p.MaxIterations, name, value)
	case "minObservationsInLeafNode":
		return setInt(&p.MinObservationsInLeafNode, name, value)
	case "featuresPerNode":
		return setInt(&p.FeaturesPerNode, name, value)
	case "maxTreeDepth":
		return setInt(&p.MaxTreeDepth, name, value)
	case "numThreads":
		return setInt(&p.NumThreads, name, value)
	case "seed":
		var s int
		if err := setInt(&s, name, value); err != nil {
			return err
		}
		if s < 0 {
			return errors.NewConfigError(name, "must be non-negative", value)
		}
		p.Seed = uint64(s)
		return nil
	case "shrinkage":
		return setFloat(&p.Shrinkage, name, value)
	case "lambda":
		return setFloat(&p.Lambda, name, value)
	case "minSplitLoss":
		return setFloat(&p.MinSplitLoss, name, value)
	case "observationsPerTreeFraction":
		return setFloat(&p.ObservationsPerTreeFraction, name, value)
	}
	return errors.NewConfigError(name, "unknown parameter", value)
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func setFloat(dst *float64, name string, value interface{}) error {
	f, ok := toFloat(value)
	if !ok {
		return errors.NewConfigError(name, "must be a number", value)
	}
	*dst = f
	return nil
}

func setInt(dst *int, name string, value interface{}) error {
	f, ok := toFloat(value)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return errors.NewConfigError(name, "must be an integer", value)
	}
	*dst = int(f)
	return nil
}
