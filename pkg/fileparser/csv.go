package fileparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/doytime"
)

var (
	ErrMissingHeader     = errors.New("missing header row")
	ErrMissingTimeColumn = errors.New("missing time column")
	ErrNoRows            = errors.New("no data rows")
)

// ColumnMatch selects how the time column is recognised in the header.
type ColumnMatch string

const (
	MatchExact    ColumnMatch = "exact"
	MatchContains ColumnMatch = "contains"
)

type CSVOptions struct {
	Delimiter  rune
	TimeColumn string
	Match      ColumnMatch
	Precision  int
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.TimeColumn == "" {
		o.TimeColumn = "time_utc"
	}
	if o.Match == "" {
		o.Match = MatchExact
	}
	if o.Precision < 1 {
		o.Precision = doytime.DefaultPrecision
	}
	return o
}

// Sample is one row's contribution to a column: the time until the next row,
// and the raw cell value. A nil Value marks an empty cell.
type Sample struct {
	DurationMicros int64
	Value          *string
}

type Column struct {
	Name    string
	Samples []Sample
}

// Series is a delimited file turned into per-column samples. Start is the
// first row's time in ordinal-day form.
type Series struct {
	Start   string
	Columns []Column
}

type csvRow struct {
	line  int
	cells []string
}

// ParseCSV reads a header row naming one time column plus value columns,
// followed by data rows. Each row is paired with the next one to compute its
// duration, so the last row only closes the final sample and produces none.
func ParseCSV(r io.Reader, opts CSVOptions) (*Series, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(stripUTF8BOM(bufio.NewReader(r)))
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	timeIdx := timeColumnIndex(header, opts)
	if timeIdx < 0 {
		return nil, errors.Wrapf(ErrMissingTimeColumn, "expected a %q column", opts.TimeColumn)
	}

	var rows []csvRow
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}
		line, _ := cr.FieldPos(0)
		if len(cells) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d cells, got %d", line, len(header), len(cells))
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if _, ok := doytime.Parse(cells[timeIdx], opts.Precision); !ok {
			return nil, fmt.Errorf("line %d: invalid time %q", line, cells[timeIdx])
		}
		rows = append(rows, csvRow{line: line, cells: cells})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	start, _ := doytime.ToDOY(rows[0].cells[timeIdx], opts.Precision)
	series := &Series{Start: start}
	for i, name := range header {
		if i == timeIdx {
			continue
		}
		series.Columns = append(series.Columns, Column{
			Name:    name,
			Samples: make([]Sample, 0, len(rows)-1),
		})
	}

	for i := 0; i < len(rows)-1; i++ {
		cur, next := rows[i], rows[i+1]
		duration, ok := doytime.DurationMicros(cur.cells[timeIdx], next.cells[timeIdx], opts.Precision)
		if !ok {
			return nil, fmt.Errorf("line %d: cannot compute duration", cur.line)
		}
		col := 0
		for j, cell := range cur.cells {
			if j == timeIdx {
				continue
			}
			sample := Sample{DurationMicros: duration}
			if cell != "" {
				v := cell
				sample.Value = &v
			}
			series.Columns[col].Samples = append(series.Columns[col].Samples, sample)
			col++
		}
	}
	return series, nil
}

func timeColumnIndex(header []string, opts CSVOptions) int {
	want := strings.ToLower(opts.TimeColumn)
	for i, h := range header {
		name := strings.ToLower(h)
		switch opts.Match {
		case MatchContains:
			if strings.Contains(name, want) {
				return i
			}
		default:
			if name == want {
				return i
			}
		}
	}
	return -1
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrMissingHeader
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(h[i]) {
			return nil, fmt.Errorf("invalid header encoding")
		}
	}
	return h, nil
}
