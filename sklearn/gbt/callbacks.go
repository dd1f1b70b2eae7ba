package gbt

import (
	"time"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

// CallbackEnv contains the environment for callbacks
type CallbackEnv struct {
	Iteration     int           // Zero-based boosting round that just finished
	NumIterations int           // Total rounds requested
	Loss          float64       // Mean training cross-entropy after this round
	NumTrees      int           // Trees in the ensemble so far
	Elapsed       time.Duration // Time since training started
}

// Callback is invoked after every boosting round. Returning an error aborts
// training; the Trainer then returns the error and no model.
type Callback func(env *CallbackEnv) error

// RecordEvaluation appends the training loss of every round to history.
func RecordEvaluation(history *[]float64) Callback {
	return func(env *CallbackEnv) error {
		*history = append(*history, env.Loss)
		return nil
	}
}

// LogEvaluation logs the training loss every period rounds and after the
// final round.
func LogEvaluation(period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		last := env.Iteration == env.NumIterations-1
		if env.Iteration%period != 0 && !last {
			return nil
		}
		log.GetLoggerWithName("gbt.callbacks").Info("Evaluation",
			log.IterationKey, env.Iteration,
			log.LossKey, env.Loss,
			log.TreesKey, env.NumTrees,
			log.DurationMsKey, env.Elapsed.Milliseconds(),
		)
		return nil
	}
}

// TimeLimit aborts training once it has run longer than maxDuration.
func TimeLimit(maxDuration time.Duration) Callback {
	return func(env *CallbackEnv) error {
		if env.Elapsed > maxDuration {
			return errors.Wrapf(errors.ErrTrainingAborted,
				"time limit %s exceeded at iteration %d", maxDuration, env.Iteration)
		}
		return nil
	}
}
