package errors

import (
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
)

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 3, 4, 1)

	// 基本的なエラーメッセージの確認
	want := "gbt: Predict: dimension mismatch on axis 1 (features). Expected 3, got 4"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected stack trace to contain test file name")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("nClasses", "must be at least 2", 1)

	want := "gbt: invalid parameter 'nClasses': must be at least 2 (got: 1)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var cfgErr *ConfigError
	if !As(err, &cfgErr) {
		t.Fatal("Error should be castable to *ConfigError")
	}
	if cfgErr.ParamName != "nClasses" {
		t.Errorf("ParamName = %q, want nClasses", cfgErr.ParamName)
	}
}

func TestNewFormatError(t *testing.T) {
	tests := []struct {
		name   string
		line   int
		column int
		want   string
	}{
		{name: "line and column", line: 3, column: 2, want: "gbt: train.csv: line 3, column 2: bad token"},
		{name: "line only", line: 3, want: "gbt: train.csv: line 3: bad token"},
		{name: "no position", want: "gbt: train.csv: bad token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFormatError("train.csv", tt.line, tt.column, "bad token")
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			var fmtErr *FormatError
			if !As(err, &fmtErr) {
				t.Error("Error should be castable to *FormatError")
			}
		})
	}
}

func TestNewIOError_Unwrap(t *testing.T) {
	err := NewIOError("CSVSource.Read", "missing.csv", os.ErrNotExist)

	if !Is(err, os.ErrNotExist) {
		t.Error("IOError should unwrap to os.ErrNotExist")
	}
	var ioErr *IOError
	if !As(err, &ioErr) {
		t.Fatal("Error should be castable to *IOError")
	}
	if ioErr.Path != "missing.csv" {
		t.Errorf("Path = %q, want missing.csv", ioErr.Path)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GBTClassifier", "Predict")
	want := "gbt: GBTClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "loading training set")
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Wrapped error should match ErrEmptyData")
	}
	if !strings.Contains(wrapped.Error(), "loading training set") {
		t.Errorf("Wrapped message missing context: %s", wrapped.Error())
	}

	wrappedf := Wrapf(ErrTrainingAborted, "round %d", 7)
	if !Is(wrappedf, ErrTrainingAborted) {
		t.Error("Wrapf error should match ErrTrainingAborted")
	}
}

func TestStackTrace(t *testing.T) {
	err := NewValueError("ErrorRate", "empty input")
	if StackTrace(err) == "" {
		t.Error("StackTrace() should not be empty for errors built with WithStack")
	}
	if StackTrace(fmt.Errorf("plain")) != "" {
		t.Error("StackTrace() should be empty for plain errors")
	}
}

func TestWarn_RoutesToHandlers(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("class_error_rate", "no true samples", 0))
	if len(got) != 1 {
		t.Fatalf("handler received %d warnings, want 1", len(got))
	}

	var viaZerolog []error
	SetZerologWarnFunc(func(w error) { viaZerolog = append(viaZerolog, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("class_error_rate", "no true samples", 0))
	if len(viaZerolog) != 1 || len(got) != 1 {
		t.Errorf("zerolog hook should take precedence: hook=%d handler=%d", len(viaZerolog), len(got))
	}
}

func TestCheckScalar(t *testing.T) {
	if err := CheckScalar("training_loss", 0.5, 1); err != nil {
		t.Errorf("CheckScalar(0.5) = %v, want nil", err)
	}
	err := CheckScalar("training_loss", math.NaN(), 3)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("CheckScalar(NaN) = %v, want NumericalInstabilityError", err)
	}
	if numErr.Iteration != 3 {
		t.Errorf("Iteration = %d, want 3", numErr.Iteration)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("scores", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values reported unstable: %v", err)
	}
	if err := CheckNumericalStability("scores", []float64{1, math.Inf(1)}, 0); err == nil {
		t.Error("Inf should be reported as unstable")
	}
}

func TestLogSumExp(t *testing.T) {
	got := LogSumExp([]float64{1000, 1000})
	want := 1000 + math.Log(2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("LogSumExp() = %v, want %v", got, want)
	}
	if !math.IsInf(LogSumExp(nil), -1) {
		t.Error("LogSumExp(nil) should be -Inf")
	}
}
