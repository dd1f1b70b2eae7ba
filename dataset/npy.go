package dataset

import (
	"io"
	"math"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

// NpySource reads a 2-D NumPy feature array and an optional 1-D label array.
type NpySource struct {
	featuresPath string
	labelsPath   string
	precision    Precision
}

// NewNpySource creates a source for featuresPath. labelsPath may be empty
// for a feature-only set.
func NewNpySource(featuresPath, labelsPath string) *NpySource {
	return &NpySource{featuresPath: featuresPath, labelsPath: labelsPath}
}

// WithPrecision sets the precision feature values are rounded to.
func (s *NpySource) WithPrecision(p Precision) *NpySource {
	s.precision = p
	return s
}

// Read implements DataSource.
func (s *NpySource) Read() (*DataSet, error) {
	features, err := readNpyMatrix(s.featuresPath)
	if err != nil {
		return nil, err
	}
	if s.precision == Float32 {
		features.Apply(func(_, _ int, v float64) float64 {
			return float64(float32(v))
		}, features)
	}

	var labels []int
	if s.labelsPath != "" {
		labels, err = readNpyLabels(s.labelsPath)
		if err != nil {
			return nil, err
		}
	}

	ds, err := New(features, labels)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.featuresPath)
	}
	log.GetLoggerWithName("dataset.npy").Debug("npy source loaded",
		log.SourceKey, s.featuresPath,
		log.SamplesKey, ds.Rows(),
		log.FeaturesKey, ds.NumFeatures(),
	)
	return ds, nil
}

func openNpy(op, path string) (*os.File, *npyio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewIOError(op, path, err)
	}
	r, err := npyio.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.NewFormatErrorf(path, 0, 0, "invalid npy header: %v", err)
	}
	return f, r, nil
}

func readNpyMatrix(path string) (*mat.Dense, error) {
	f, r, err := openNpy("NpySource.Read", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if len(r.Header.Descr.Shape) != 2 {
		return nil, errors.NewFormatErrorf(path, 0, 0, "expected a 2-D array, got shape %v", r.Header.Descr.Shape)
	}
	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, errors.NewFormatErrorf(path, 0, 0, "cannot read matrix: %v", err)
	}
	return m, nil
}

func readNpyLabels(path string) ([]int, error) {
	f, r, err := openNpy("NpySource.Read", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := readNpyVector(r)
	if err != nil {
		return nil, errors.NewFormatErrorf(path, 0, 0, "cannot read labels: %v", err)
	}
	labels := make([]int, len(raw))
	for i, v := range raw {
		if v != math.Trunc(v) || v < 0 || math.IsInf(v, 0) {
			return nil, errors.NewFormatErrorf(path, i+1, 0, "class label %v is not a non-negative integer", v)
		}
		labels[i] = int(v)
	}
	return labels, nil
}

// readNpyVector reads a 1-D array of any common numeric dtype as float64.
func readNpyVector(r *npyio.Reader) ([]float64, error) {
	if len(r.Header.Descr.Shape) != 1 {
		return nil, errors.Newf("expected a 1-D array, got shape %v", r.Header.Descr.Shape)
	}
	dtype := r.Header.Descr.Type
	if len(dtype) < 2 {
		return nil, errors.Newf("unsupported dtype %q", dtype)
	}
	switch dtype[len(dtype)-2:] {
	case "f8":
		var v []float64
		err := r.Read(&v)
		return v, err
	case "f4":
		var v []float32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i8":
		var v []int64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i4":
		var v []int32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	default:
		return nil, errors.Newf("unsupported dtype %q", dtype)
	}
}

func widen[T float32 | int64 | int32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// WriteLabelsNpy writes predicted labels as a 1-D int64 array.
func WriteLabelsNpy(w io.Writer, labels []int) error {
	out := make([]int64, len(labels))
	for i, y := range labels {
		out[i] = int64(y)
	}
	if err := npyio.Write(w, out); err != nil {
		return errors.NewIOError("WriteLabelsNpy", "", err)
	}
	return nil
}

// WriteFeaturesNpy writes the feature matrix of ds as a 2-D float64 array.
func WriteFeaturesNpy(w io.Writer, ds *DataSet) error {
	if err := npyio.Write(w, ds.features); err != nil {
		return errors.NewIOError("WriteFeaturesNpy", "", err)
	}
	return nil
}

// ReadLabelsNpy reads a 1-D label array written by WriteLabelsNpy.
func ReadLabelsNpy(path string) ([]int, error) {
	return readNpyLabels(path)
}
