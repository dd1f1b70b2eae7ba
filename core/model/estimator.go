package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。
	// y は n×1 のクラスラベル（0..nClasses-1 の整数値）
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は分類モデルのインターフェース
type Classifier interface {
	Fitter
	Predictor
	// PredictProba は各クラスの確率（n×nClasses）を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
	// Score は正解率を計算する
	Score(X, y mat.Matrix) (float64, error)
}
