package gbt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

func TestModel_PlotLearningCurve(t *testing.T) {
	m, _ := trainedModel(t)

	var buf bytes.Buffer
	if err := m.PlotLearningCurve(&buf, "png"); err != nil {
		t.Fatalf("PlotLearningCurve() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}

	path := filepath.Join(t.TempDir(), "loss.svg")
	if err := m.SaveLearningCurve(path); err != nil {
		t.Fatalf("SaveLearningCurve() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("learning curve file not written: %v", err)
	}
}

func TestModel_PlotLearningCurveErrors(t *testing.T) {
	var valErr *errors.ValueError
	if err := (&Model{}).PlotLearningCurve(&bytes.Buffer{}, "png"); !errors.As(err, &valErr) {
		t.Errorf("PlotLearningCurve(no history) error = %v, want ValueError", err)
	}

	m, _ := trainedModel(t)
	var cfgErr *errors.ConfigError
	if err := m.PlotLearningCurve(&bytes.Buffer{}, "bmp"); !errors.As(err, &cfgErr) {
		t.Errorf("PlotLearningCurve(bmp) error = %v, want ConfigError", err)
	}
	if err := m.SaveLearningCurve(filepath.Join(t.TempDir(), "loss")); !errors.As(err, &cfgErr) {
		t.Errorf("SaveLearningCurve(no extension) error = %v, want ConfigError", err)
	}
}
