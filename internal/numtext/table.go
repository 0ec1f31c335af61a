// Package numtext reads and writes the whitespace-delimited numeric tables
// exchanged with the solver: fgmax results, point lists and raster bodies.
package numtext

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrRagged is returned when rows of a table disagree on their column count.
var ErrRagged = errors.New("numtext: inconsistent column count")

// Table is a dense row-major numeric table.
type Table struct {
	Rows int
	Cols int
	Data []float64
}

// At returns the value at row i, column j.
func (t *Table) At(i, j int) float64 {
	return t.Data[i*t.Cols+j]
}

// Column returns a copy of column j.
func (t *Table) Column(j int) []float64 {
	col := make([]float64, t.Rows)
	for i := range col {
		col[i] = t.Data[i*t.Cols+j]
	}
	return col
}

// LoadTable parses r after discarding skipRows leading lines. Blank lines and
// lines starting with '#' are ignored. Every remaining line must hold the same
// number of numeric fields.
func LoadTable(r io.Reader, skipRows int) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	t := &Table{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo <= skipRows {
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if t.Rows == 0 {
			t.Cols = len(fields)
		} else if len(fields) != t.Cols {
			return nil, fmt.Errorf("%w: line %d has %d columns, expected %d", ErrRagged, lineNo, len(fields), t.Cols)
		}
		for _, f := range fields {
			v, err := ParseFloat(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			t.Data = append(t.Data, v)
		}
		t.Rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return t, nil
}

// ParseFloat accepts Fortran-style exponents ("1.0D+03") as well as Go syntax.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	if strings.ContainsAny(s, "dD") {
		if v, err2 := strconv.ParseFloat(strings.NewReplacer("d", "e", "D", "e").Replace(s), 64); err2 == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("invalid number %q", s)
}

// WriteTable writes header (when non-empty) followed by one row per index,
// each column formatted with verb, e.g. "%24.14e". All columns must have the
// same length.
func WriteTable(w io.Writer, header, verb string, cols ...[]float64) error {
	if len(cols) == 0 {
		return errors.New("numtext: no columns to write")
	}
	n := len(cols[0])
	for j, c := range cols {
		if len(c) != n {
			return fmt.Errorf("%w: column %d has %d values, expected %d", ErrRagged, j, len(c), n)
		}
	}

	bw := bufio.NewWriter(w)
	if header != "" {
		if _, err := fmt.Fprintln(bw, header); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		for _, c := range cols {
			if _, err := fmt.Fprintf(bw, verb, c[i]); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
