// Package dataset holds the in-memory training and prediction tables and the
// sources that load them.
//
// A DataSet is a dense feature matrix plus one integer class label per row.
// Feature-only sets (for prediction) carry no labels. A DataSet is never
// mutated after construction, so it may be shared between goroutines.
package dataset

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// Precision is the numeric type values are parsed as. Storage is always
// float64; Float32 rounds every value to the nearest float32 first.
type Precision int

const (
	// Float64 keeps full double precision.
	Float64 Precision = iota
	// Float32 rounds parsed values to single precision.
	Float32
)

func (p Precision) bitSize() int {
	if p == Float32 {
		return 32
	}
	return 64
}

func (p Precision) String() string {
	if p == Float32 {
		return "float32"
	}
	return "float64"
}

// DataSource produces a DataSet.
type DataSource interface {
	Read() (*DataSet, error)
}

// DataSet is an immutable table of feature rows and optional class labels.
type DataSet struct {
	features *mat.Dense
	labels   []int
}

// New builds a DataSet from a feature matrix and labels. Both are copied.
// labels may be nil for a feature-only set; otherwise it must have one
// non-negative entry per row.
func New(features mat.Matrix, labels []int) (*DataSet, error) {
	if features == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.New")
	}
	r, c := features.Dims()
	if r == 0 || c == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.New")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := features.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewFormatErrorf("features", i+1, j+1, "non-finite value %v", v)
			}
		}
	}
	if labels != nil {
		if len(labels) != r {
			return nil, errors.NewDimensionError("dataset.New", r, len(labels), 0)
		}
		for i, y := range labels {
			if y < 0 {
				return nil, errors.NewFormatErrorf("labels", i+1, 0, "negative class label %d", y)
			}
		}
	}

	ds := &DataSet{features: mat.DenseCopyOf(features)}
	if labels != nil {
		ds.labels = append([]int(nil), labels...)
	}
	return ds, nil
}

// FromRows builds a DataSet from row slices. Every row must have the same length.
func FromRows(rows [][]float64, labels []int) (*DataSet, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.FromRows")
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.NewFormatErrorf("rows", i+1, 0, "expected %d values, got %d", width, len(row))
		}
		data = append(data, row...)
	}
	return New(mat.NewDense(len(rows), width, data), labels)
}

// Rows returns the number of samples.
func (d *DataSet) Rows() int {
	r, _ := d.features.Dims()
	return r
}

// NumFeatures returns the feature dimensionality.
func (d *DataSet) NumFeatures() int {
	_, c := d.features.Dims()
	return c
}

// At returns feature j of row i.
func (d *DataSet) At(i, j int) float64 {
	return d.features.At(i, j)
}

// Row returns a view of row i. Callers must not modify it.
func (d *DataSet) Row(i int) []float64 {
	return d.features.RawRowView(i)
}

// Column copies feature j into dst (allocated when nil or too short).
func (d *DataSet) Column(j int, dst []float64) []float64 {
	n := d.Rows()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	return mat.Col(dst, j, d.features)
}

// Features returns the feature matrix. It must be treated as read-only.
func (d *DataSet) Features() mat.Matrix {
	return d.features
}

// HasLabels reports whether the set carries class labels.
func (d *DataSet) HasLabels() bool {
	return d.labels != nil
}

// Label returns the class label of row i.
func (d *DataSet) Label(i int) int {
	return d.labels[i]
}

// Labels returns a copy of the labels, or nil for a feature-only set.
func (d *DataSet) Labels() []int {
	if d.labels == nil {
		return nil
	}
	return append([]int(nil), d.labels...)
}

// NumClasses returns max(label)+1, or 0 for a feature-only set.
func (d *DataSet) NumClasses() int {
	if len(d.labels) == 0 {
		return 0
	}
	return lo.Max(d.labels) + 1
}

// ClassCounts returns the number of rows per class in [0, nClasses).
// Labels outside that range are not counted.
func (d *DataSet) ClassCounts(nClasses int) []int {
	return lo.Map(lo.Range(nClasses), func(k int, _ int) int {
		return lo.Count(d.labels, k)
	})
}

// FeaturesOnly returns a DataSet sharing the same features without labels.
func (d *DataSet) FeaturesOnly() *DataSet {
	return &DataSet{features: d.features}
}

// Subset returns a new DataSet holding the given rows in the given order.
func (d *DataSet) Subset(rows []int) (*DataSet, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "DataSet.Subset")
	}
	n, c := d.features.Dims()
	out := mat.NewDense(len(rows), c, nil)
	var labels []int
	if d.labels != nil {
		labels = make([]int, len(rows))
	}
	for i, r := range rows {
		if r < 0 || r >= n {
			return nil, errors.NewValueError("DataSet.Subset", "row index out of range")
		}
		out.SetRow(i, d.features.RawRowView(r))
		if labels != nil {
			labels[i] = d.labels[r]
		}
	}
	return &DataSet{features: out, labels: labels}, nil
}

// ValidateLabels checks that every label lies in [0, nClasses).
func (d *DataSet) ValidateLabels(nClasses int) error {
	if d.labels == nil {
		return errors.NewValueError("DataSet.ValidateLabels", "dataset has no labels")
	}
	for i, y := range d.labels {
		if y < 0 || y >= nClasses {
			return errors.NewFormatErrorf("labels", i+1, 0, "class label %d outside [0, %d)", y, nClasses)
		}
	}
	return nil
}
