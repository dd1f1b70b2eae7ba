package gbt

import (
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

const curveSize = 4 * vg.Inch

func (m *Model) learningCurve() (*plot.Plot, error) {
	if len(m.TrainingLoss) == 0 {
		return nil, errors.NewValueError("Model.PlotLearningCurve", "model has no recorded training loss")
	}
	pts := make(plotter.XYs, len(m.TrainingLoss))
	for i, loss := range m.TrainingLoss {
		pts[i].X = float64(i + 1)
		pts[i].Y = loss
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Cross-entropy"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "building loss line")
	}
	line.LineStyle.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())
	return p, nil
}

// PlotLearningCurve draws the per-round training loss to w. format is any
// image format gonum/plot supports, such as "png" or "svg".
func (m *Model) PlotLearningCurve(w io.Writer, format string) error {
	p, err := m.learningCurve()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(curveSize, curveSize, format)
	if err != nil {
		return errors.NewConfigError("format", err.Error(), format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.NewIOError("Model.PlotLearningCurve", "", err)
	}
	return nil
}

// SaveLearningCurve writes the learning curve to path. The image format is
// taken from the file extension.
func (m *Model) SaveLearningCurve(path string) error {
	p, err := m.learningCurve()
	if err != nil {
		return err
	}
	if strings.TrimPrefix(filepath.Ext(path), ".") == "" {
		return errors.NewConfigError("path", "missing image extension", path)
	}
	if err := p.Save(curveSize, curveSize, path); err != nil {
		return errors.NewIOError("Model.SaveLearningCurve", path, err)
	}
	return nil
}
