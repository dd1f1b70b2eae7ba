package gbt

import (
	"sort"
	"strings"
)

// ParameterMapper resolves the many spellings of each hyperparameter used by
// daal4py, LightGBM, XGBoost and scikit-learn to the canonical daal name.
type ParameterMapper struct {
	aliases map[string]string
}

// NewParameterMapper creates a mapper with every known alias registered.
func NewParameterMapper() *ParameterMapper {
	pm := &ParameterMapper{aliases: make(map[string]string)}
	pm.initializeMappings()
	return pm
}

func (pm *ParameterMapper) initializeMappings() {
	pm.addMapping("nClasses", []string{"n_classes", "num_class", "num_classes"})
	pm.addMapping("maxIterations", []string{"max_iterations", "n_estimators", "num_iterations", "num_iteration", "num_trees", "num_round", "num_boost_round"})
	pm.addMapping("minObservationsInLeafNode", []string{"min_observations_in_leaf_node", "min_data_in_leaf", "min_child_samples", "min_samples_leaf"})
	pm.addMapping("featuresPerNode", []string{"features_per_node", "max_features"})
	pm.addMapping("shrinkage", []string{"learning_rate", "eta", "shrinkage_rate"})
	pm.addMapping("maxTreeDepth", []string{"max_tree_depth", "max_depth"})
	pm.addMapping("lambda", []string{"lambda_l2", "reg_lambda", "l2_regularization"})
	pm.addMapping("minSplitLoss", []string{"min_split_loss", "min_split_gain", "min_gain_to_split", "gamma"})
	pm.addMapping("observationsPerTreeFraction", []string{"observations_per_tree_fraction", "subsample", "bagging_fraction"})
	pm.addMapping("seed", []string{"random_state", "random_seed"})
	pm.addMapping("numThreads", []string{"num_threads", "n_jobs", "nthread"})
}

func (pm *ParameterMapper) addMapping(canonical string, aliases []string) {
	pm.aliases[strings.ToLower(canonical)] = canonical
	for _, alias := range aliases {
		pm.aliases[alias] = canonical
	}
}

// Canonical returns the daal name for key. Matching is case-insensitive.
func (pm *ParameterMapper) Canonical(key string) (string, bool) {
	name, ok := pm.aliases[strings.ToLower(key)]
	return name, ok
}

// Aliases returns every spelling that maps to canonical, sorted.
func (pm *ParameterMapper) Aliases(canonical string) []string {
	var out []string
	for alias, name := range pm.aliases {
		if name == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
