package cli

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// readCSVFile loads a numeric CSV file into a matrix.
func readCSVFile(path string, header bool) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	m, err := readCSV(f, header)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return m, nil
}

// readCSV parses r into a rows×cols matrix. When header is set the first
// record is skipped. Every record must have the same number of fields.
func readCSV(r io.Reader, header bool) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		data []float64
		cols int
		rows int
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "csv")
		}
		if header && line == 1 {
			continue
		}
		if cols == 0 {
			cols = len(rec)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NewValidationError("csv", "line "+strconv.Itoa(line)+", column "+strconv.Itoa(j)+": not a number", field)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, errors.Mark(errors.NewValidationError("csv", "no data rows", 0), errors.ErrEmptyData)
	}
	return mat.NewDense(rows, cols, data), nil
}
