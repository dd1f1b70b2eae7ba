package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

type stub struct {
	Name    string
	Weights []float64
}

func TestBaseEstimator_State(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() {
		t.Fatal("zero value should not be fitted")
	}
	err := e.CheckFitted("GBTClassifier", "Predict")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("CheckFitted() = %v, want NotFittedError", err)
	}

	e.SetFitted()
	if !e.IsFitted() || e.State().String() != "fitted" {
		t.Errorf("state = %v, want fitted", e.State())
	}
	if err := e.CheckFitted("GBTClassifier", "Predict"); err != nil {
		t.Errorf("CheckFitted() on fitted model = %v", err)
	}

	e.Reset()
	if e.IsFitted() {
		t.Error("Reset should return to not fitted")
	}
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stub.gob")
	in := stub{Name: "ensemble", Weights: []float64{0.5, -1.25}}

	if err := SaveModel(&in, path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}
	var out stub
	if err := LoadModel(&out, path); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if out.Name != in.Name || len(out.Weights) != 2 || out.Weights[1] != -1.25 {
		t.Errorf("LoadModel() = %+v, want %+v", out, in)
	}
}

func TestLoadModel_Errors(t *testing.T) {
	var out stub
	err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob"))
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("missing file: got %v, want IOError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("missing file error should unwrap to os.ErrNotExist")
	}

	var buf bytes.Buffer
	if err := SaveModelToWriter(stub{Name: "x", Weights: []float64{1, 2, 3}}, &buf); err != nil {
		t.Fatal(err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()/2])
	err = LoadModelFromReader(&out, truncated)
	var fmtErr *errors.FormatError
	if !errors.As(err, &fmtErr) {
		t.Errorf("truncated data: got %v, want FormatError", err)
	}
}
