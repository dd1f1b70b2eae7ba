// Package metrics は分類モデルの評価指標を提供します。
package metrics

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// ErrorRate は予測ラベルと正解ラベルが異なる位置の割合を計算する
//
// パラメータ:
//   - yTrue: 正解ラベル
//   - yPred: 予測ラベル（yTrue と同じ長さ）
//
// 戻り値:
//   - float64: 誤分類率（0〜1）
//   - error: 長さが異なる場合は DimensionError、空の場合は ValueError
func ErrorRate(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("ErrorRate", "empty label sequence")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("ErrorRate", n, len(yPred), 0)
	}

	wrong := lo.CountBy(lo.Range(n), func(i int) bool {
		return yTrue[i] != yPred[i]
	})
	return float64(wrong) / float64(n), nil
}

// ClassificationError はベクトル形式の入力に対して誤分類率を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := vecLabels("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ErrorRate(t, p)
}

// Accuracy は正解率（1 - 誤分類率）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	e, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - e, nil
}

// ConfusionMatrix は nClasses×nClasses の混同行列を返す。
// 要素 (i, j) は正解クラス i を j と予測したサンプル数。
func ConfusionMatrix(yTrue, yPred []int, nClasses int) (*mat.Dense, error) {
	if nClasses < 1 {
		return nil, errors.NewValueError("ConfusionMatrix", "nClasses must be positive")
	}
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label sequence")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.NewValueError("ConfusionMatrix", "label outside [0, nClasses)")
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// PerClassErrorRate はクラスごとの誤分類率を返す。
// 正解データに一度も現れないクラスは 0 とし、UndefinedMetricWarning を発生させる。
func PerClassErrorRate(yTrue, yPred []int, nClasses int) ([]float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, nClasses)
	if err != nil {
		return nil, err
	}

	rates := make([]float64, nClasses)
	for k := 0; k < nClasses; k++ {
		total := mat.Sum(cm.RowView(k))
		if total == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("per_class_error_rate",
				"a class with no true samples", 0))
			continue
		}
		rates[k] = 1 - cm.At(k, k)/total
	}
	return rates, nil
}

// MulticlassLogLoss はクラス確率行列（n×nClasses）に対する平均交差エントロピーを計算する。
// log(0) を避けるため確率は [eps, 1-eps] にクリップする。
func MulticlassLogLoss(yTrue []int, proba mat.Matrix) (float64, error) {
	n, k := proba.Dims()
	if len(yTrue) == 0 || n == 0 {
		return 0, errors.NewValueError("MulticlassLogLoss", "empty input")
	}
	if n != len(yTrue) {
		return 0, errors.NewDimensionError("MulticlassLogLoss", len(yTrue), n, 0)
	}

	const eps = 1e-15
	var sum float64
	for i, y := range yTrue {
		if y < 0 || y >= k {
			return 0, errors.NewValueError("MulticlassLogLoss", "label outside [0, nClasses)")
		}
		p := math.Min(math.Max(proba.At(i, y), eps), 1-eps)
		sum -= math.Log(p)
	}
	return sum / float64(n), nil
}

// vecLabels は VecDense を整数ラベル列に変換する。nil は空として扱う。
func vecLabels(op string, yTrue, yPred *mat.VecDense) ([]int, []int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 || yPred.Len() == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yTrue.Len() != yPred.Len() {
		return nil, nil, errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	toInts := func(v *mat.VecDense) []int {
		return lo.Map(lo.Range(v.Len()), func(i int, _ int) int {
			return int(math.Round(v.AtVec(i)))
		})
	}
	return toInts(yTrue), toInts(yPred), nil
}
