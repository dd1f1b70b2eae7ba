package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// NoiseMode selects where mislabelled rows are placed. A mislabelled row of
// class c gets the label (c+1) mod Classes.
type NoiseMode int

const (
	// NoiseSpread flips exactly NoisyLabels rows, spread evenly over the
	// classes and, within a class, evenly over its rows. The flipped rows
	// are scattered in feature space.
	NoiseSpread NoiseMode = iota

	// NoiseConcentrated flips every row in the top NoisyLabels/Rows fraction
	// of its class's feature-0 interval. The noisy region is fixed in
	// feature space, so sets generated with different seeds share it and a
	// model can learn it. NoisyLabels is the expected count, not an exact one.
	NoiseConcentrated
)

func (m NoiseMode) String() string {
	switch m {
	case NoiseSpread:
		return "spread"
	case NoiseConcentrated:
		return "concentrated"
	default:
		return fmt.Sprintf("NoiseMode(%d)", int(m))
	}
}

// SyntheticConfig describes a generated classification problem with a single
// informative feature. Feature 0 is uniform on [0, Classes) and the label is
// its integer part; the remaining features are uniform noise on the same range.
type SyntheticConfig struct {
	Rows        int
	Features    int
	Classes     int
	NoisyLabels int
	Noise       NoiseMode
	Seed        uint64
}

// Synthetic generates a reproducible DataSet from cfg.
func Synthetic(cfg SyntheticConfig) (*DataSet, error) {
	switch {
	case cfg.Rows <= 0:
		return nil, errors.NewConfigError("Rows", "must be positive", cfg.Rows)
	case cfg.Features <= 0:
		return nil, errors.NewConfigError("Features", "must be positive", cfg.Features)
	case cfg.Classes < 2:
		return nil, errors.NewConfigError("Classes", "must be at least 2", cfg.Classes)
	case cfg.NoisyLabels < 0 || cfg.NoisyLabels > cfg.Rows:
		return nil, errors.NewConfigError("NoisyLabels", "must be in [0, Rows]", cfg.NoisyLabels)
	case cfg.Noise != NoiseSpread && cfg.Noise != NoiseConcentrated:
		return nil, errors.NewConfigError("Noise", "unknown noise mode", cfg.Noise)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x9e3779b97f4a7c15))
	k := float64(cfg.Classes)
	features := mat.NewDense(cfg.Rows, cfg.Features, nil)
	labels := make([]int, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j < cfg.Features; j++ {
			features.Set(i, j, rng.Float64()*k)
		}
		y := int(features.At(i, 0))
		if y >= cfg.Classes {
			y = cfg.Classes - 1
		}
		labels[i] = y
	}

	if cfg.Noise == NoiseConcentrated {
		concentrateNoise(labels, features, cfg.Classes, float64(cfg.NoisyLabels)/float64(cfg.Rows))
	} else if err := spreadNoise(labels, cfg.Classes, cfg.NoisyLabels); err != nil {
		return nil, err
	}
	return New(features, labels)
}

// concentrateNoise flips the rows whose feature 0 lies in the top fraction of
// their class interval [c, c+1).
func concentrateNoise(labels []int, features *mat.Dense, classes int, fraction float64) {
	if fraction <= 0 {
		return
	}
	cut := 1 - fraction
	for i, y := range labels {
		if features.At(i, 0)-float64(y) >= cut {
			labels[i] = (y + 1) % classes
		}
	}
}

// spreadNoise flips exactly noisy rows. Class c takes every noisy slot n with
// n mod classes == c; a slot that lands on an already flipped row moves to the
// next unused row of the class.
func spreadNoise(labels []int, classes, noisy int) error {
	byClass := lo.GroupBy(lo.Range(len(labels)), func(i int) int { return labels[i] })
	for c := 0; c < classes; c++ {
		share := (noisy - c + classes - 1) / classes
		if share > len(byClass[c]) {
			return errors.NewConfigError("NoisyLabels",
				fmt.Sprintf("class %d has %d rows, fewer than its %d noisy labels", c, len(byClass[c]), share), noisy)
		}
	}

	perClass := (noisy + classes - 1) / classes
	flipped := make([]bool, len(labels))
	for n := 0; n < noisy; n++ {
		c := n % classes
		rows := byClass[c]
		pos := (n/classes + 1) * len(rows) / (perClass + 1)
		for flipped[rows[pos]] {
			pos = (pos + 1) % len(rows)
		}
		flipped[rows[pos]] = true
		labels[rows[pos]] = (c + 1) % classes
	}
	return nil
}
