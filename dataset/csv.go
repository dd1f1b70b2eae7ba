package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
	"github.com/YuminosukeSato/scigo-gbt/pkg/log"
)

const (
	// NoLabel marks a feature-only source.
	NoLabel = -1
	// LastColumn selects the last column of each row as the label.
	LastColumn = -2
)

// CSVSource reads comma-separated numeric text without a header row.
//
//	src := dataset.NewCSVSource("train.csv").
//		WithFeatureColumns(0, 1, 2).
//		WithLabelColumn(3).
//		WithPrecision(dataset.Float32)
//	ds, err := src.Read()
type CSVSource struct {
	path      string
	reader    io.Reader
	name      string
	features  []int
	label     int
	precision Precision
	comma     rune
}

// NewCSVSource reads from a file. By default the last column is the label
// and every other column is a feature.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path, name: path, label: LastColumn, comma: ','}
}

// NewCSVReaderSource reads from r; name is used in error messages.
func NewCSVReaderSource(r io.Reader, name string) *CSVSource {
	return &CSVSource{reader: r, name: name, label: LastColumn, comma: ','}
}

// WithFeatureColumns selects the feature columns (0-based) in output order.
func (s *CSVSource) WithFeatureColumns(cols ...int) *CSVSource {
	s.features = append([]int(nil), cols...)
	return s
}

// WithLabelColumn selects the label column, NoLabel or LastColumn.
func (s *CSVSource) WithLabelColumn(col int) *CSVSource {
	s.label = col
	return s
}

// WithPrecision sets the numeric type values are parsed as.
func (s *CSVSource) WithPrecision(p Precision) *CSVSource {
	s.precision = p
	return s
}

// WithComma changes the field delimiter.
func (s *CSVSource) WithComma(r rune) *CSVSource {
	s.comma = r
	return s
}

// Read implements DataSource.
func (s *CSVSource) Read() (*DataSet, error) {
	logger := log.GetLoggerWithName("dataset.csv")

	r := s.reader
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, errors.NewIOError("CSVSource.Read", s.path, err)
		}
		defer f.Close()
		r = f
	}

	cr := csv.NewReader(r)
	cr.Comma = s.comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data     []float64
		labels   []int
		width    = -1
		featCols []int
		labelCol = NoLabel
		rows     int
	)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, errors.NewFormatError(s.name, pe.Line, pe.Column, pe.Err.Error())
			}
			return nil, errors.NewIOError("CSVSource.Read", s.name, err)
		}
		line, _ := cr.FieldPos(0)

		if width < 0 {
			width = len(record)
			featCols, labelCol, err = s.resolveColumns(width, line)
			if err != nil {
				return nil, err
			}
		} else if len(record) != width {
			return nil, errors.NewFormatErrorf(s.name, line, 0, "expected %d columns, got %d", width, len(record))
		}

		for _, c := range featCols {
			v, err := s.parseValue(record[c])
			if err != nil {
				_, col := cr.FieldPos(c)
				return nil, errors.NewFormatErrorf(s.name, line, col, "column %d: %v", c, err)
			}
			data = append(data, v)
		}
		if labelCol != NoLabel {
			y, err := parseLabel(record[labelCol])
			if err != nil {
				_, col := cr.FieldPos(labelCol)
				return nil, errors.NewFormatErrorf(s.name, line, col, "label column %d: %v", labelCol, err)
			}
			labels = append(labels, y)
		}
		rows++
	}

	if rows == 0 {
		return nil, errors.NewFormatError(s.name, 0, 0, "no data rows")
	}

	ds, err := New(mat.NewDense(rows, len(featCols), data), labels)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.name)
	}
	logger.Debug("CSV source loaded",
		log.SourceKey, s.name,
		log.SamplesKey, rows,
		log.FeaturesKey, len(featCols),
		log.DataTypeKey, s.precision.String(),
	)
	return ds, nil
}

func (s *CSVSource) resolveColumns(width, line int) ([]int, int, error) {
	label := s.label
	if label == LastColumn {
		label = width - 1
	}
	if label != NoLabel && (label < 0 || label >= width) {
		return nil, 0, errors.NewFormatErrorf(s.name, line, 0, "label column %d out of range for %d columns", label, width)
	}

	cols := s.features
	if cols == nil {
		for c := 0; c < width; c++ {
			if c != label {
				cols = append(cols, c)
			}
		}
	}
	if len(cols) == 0 {
		return nil, 0, errors.NewFormatError(s.name, line, 0, "no feature columns selected")
	}
	for _, c := range cols {
		if c < 0 || c >= width {
			return nil, 0, errors.NewFormatErrorf(s.name, line, 0, "feature column %d out of range for %d columns", c, width)
		}
	}
	return cols, label, nil
}

func (s *CSVSource) parseValue(tok string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(tok), s.precision.bitSize())
	if err != nil {
		return 0, errors.Newf("non-numeric token %q", tok)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("non-finite value %q", tok)
	}
	return v, nil
}

// parseLabel accepts integral values written either as integers or floats
// ("3" or "3.0").
func parseLabel(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	if y, err := strconv.Atoi(tok); err == nil {
		if y < 0 {
			return 0, errors.Newf("negative class label %d", y)
		}
		return y, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, errors.Newf("non-numeric token %q", tok)
	}
	if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, errors.Newf("class label %q is not a non-negative integer", tok)
	}
	return int(v), nil
}

// WriteCSV writes ds as headerless CSV, features first and the label last.
func WriteCSV(w io.Writer, ds *DataSet) error {
	cw := csv.NewWriter(w)
	n, c := ds.Rows(), ds.NumFeatures()
	record := make([]string, 0, c+1)
	for i := 0; i < n; i++ {
		record = record[:0]
		for _, v := range ds.Row(i) {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if ds.HasLabels() {
			record = append(record, strconv.Itoa(ds.Label(i)))
		}
		if err := cw.Write(record); err != nil {
			return errors.NewIOError("WriteCSV", "", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewIOError("WriteCSV", "", err)
	}
	return nil
}

// WriteCSVFile writes ds to path, creating or truncating it.
func WriteCSVFile(path string, ds *DataSet) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("WriteCSVFile", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("WriteCSVFile", path, cerr)
		}
	}()
	return WriteCSV(f, ds)
}
