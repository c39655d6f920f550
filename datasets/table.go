package datasets

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

// Kind is the on-disk layout of a table.
type Kind int

const (
	// Whitespace separates fields by runs of spaces or tabs.
	Whitespace Kind = iota
	// Delimited is CSV with a single-character delimiter.
	Delimited
	// XLSX is an Office Open XML workbook; the first sheet is read.
	XLSX
	// XLS is a BIFF8 workbook; the first sheet is read.
	XLS
)

func (k Kind) String() string {
	switch k {
	case Whitespace:
		return "whitespace"
	case Delimited:
		return "delimited"
	case XLSX:
		return "xlsx"
	case XLS:
		return "xls"
	default:
		return "unknown"
	}
}

// Format describes how to parse a table.
type Format struct {
	Kind      Kind
	Delimiter rune // Delimited only; 0 means ','
	Header    bool // first non-empty row holds column names
}

// Table is a numeric table with optional column names.
type Table struct {
	Columns []string // nil when the source has no header
	Rows    [][]float64
}

// NCols returns the number of columns.
func (t *Table) NCols() int {
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return len(t.Columns)
}

// Dense returns the rows as an n×p matrix.
func (t *Table) Dense() *mat.Dense {
	n, p := len(t.Rows), t.NCols()
	data := make([]float64, 0, n*p)
	for _, r := range t.Rows {
		data = append(data, r...)
	}
	return mat.NewDense(n, p, data)
}

// ParseTable reads a numeric table from r.
func ParseTable(r io.Reader, f Format) (*Table, error) {
	var records [][]string
	var err error
	switch f.Kind {
	case Whitespace:
		records, err = readWhitespace(r)
	case Delimited:
		records, err = readDelimited(r, f.Delimiter)
	case XLSX:
		records, err = readXLSX(r)
	case XLS:
		records, err = readXLS(r)
	default:
		return nil, errors.NewValidationError("format", "unknown table kind", f.Kind)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s table", f.Kind)
	}
	return toTable(records, f.Header)
}

func readWhitespace(r io.Reader) ([][]string, error) {
	var records [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			records = append(records, fields)
		}
	}
	return records, sc.Err()
}

func readDelimited(r io.Reader, delim rune) ([][]string, error) {
	cr := csv.NewReader(r)
	if delim != 0 {
		cr.Comma = delim
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readXLS(r io.Reader) ([][]string, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(buf)
	}
	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}
	if sheet.MaxRow == 0 {
		// MaxRow is the last row index; ReadAllCells would skip this sheet.
		return nil, errors.NewModelError("readXLS", "sheet has at most one row", errors.ErrEmptyData)
	}

	// ReadAllCells places each cell at its column index, so a blank leading cell stays
	// in column 0 instead of shifting the row left. Rows with no cells come back nil.
	return wb.ReadAllCells(int(sheet.MaxRow) + 1), nil
}

// toTable converts string records to floats. Blank rows and trailing blank cells are
// ignored; every remaining row must have the width of the first.
func toTable(records [][]string, header bool) (*Table, error) {
	t := &Table{}
	width := -1
	line := 0
	for _, rec := range records {
		line++
		rec = trimTrailingBlank(rec)
		if len(rec) == 0 {
			continue
		}
		if header && t.Columns == nil {
			t.Columns = make([]string, len(rec))
			for i, c := range rec {
				t.Columns[i] = strings.TrimSpace(c)
			}
			width = len(rec)
			continue
		}
		if width < 0 {
			width = len(rec)
		}
		if len(rec) != width {
			return nil, errors.NewValueError("ParseTable",
				"row "+strconv.Itoa(line)+" has "+strconv.Itoa(len(rec))+" fields, want "+strconv.Itoa(width))
		}
		row := make([]float64, width)
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", line, j+1)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, errors.NewModelError("ParseTable", "empty data", errors.ErrEmptyData)
	}
	return t, nil
}

func trimTrailingBlank(rec []string) []string {
	n := len(rec)
	for n > 0 && strings.TrimSpace(rec[n-1]) == "" {
		n--
	}
	return rec[:n]
}

// DropLast removes the last column.
func DropLast(t *Table) (*Table, error) {
	p := t.NCols()
	if p < 2 {
		return nil, errors.NewValueError("DropLast", "table needs at least two columns")
	}
	out := &Table{Rows: make([][]float64, len(t.Rows))}
	if t.Columns != nil {
		out.Columns = t.Columns[:p-1]
	}
	for i, r := range t.Rows {
		out.Rows[i] = r[:p-1]
	}
	return out, nil
}

// Reverse reverses the column order.
func Reverse(t *Table) (*Table, error) {
	p := t.NCols()
	out := &Table{Rows: make([][]float64, len(t.Rows))}
	if t.Columns != nil {
		out.Columns = make([]string, p)
		for j, c := range t.Columns {
			out.Columns[p-1-j] = c
		}
	}
	for i, r := range t.Rows {
		rr := make([]float64, p)
		for j, v := range r {
			rr[p-1-j] = v
		}
		out.Rows[i] = rr
	}
	return out, nil
}

// Select returns a transform keeping the named columns in the given order.
func Select(names ...string) func(*Table) (*Table, error) {
	return func(t *Table) (*Table, error) {
		if t.Columns == nil {
			return nil, errors.NewValueError("Select", "table has no header")
		}
		pos := make(map[string]int, len(t.Columns))
		for j, c := range t.Columns {
			pos[c] = j
		}
		cols := make([]int, len(names))
		for k, name := range names {
			j, ok := pos[name]
			if !ok {
				return nil, errors.NewValueError("Select", "missing column "+strconv.Quote(name))
			}
			cols[k] = j
		}
		out := &Table{Columns: append([]string(nil), names...), Rows: make([][]float64, len(t.Rows))}
		for i, r := range t.Rows {
			rr := make([]float64, len(cols))
			for k, j := range cols {
				rr[k] = r[j]
			}
			out.Rows[i] = rr
		}
		return out, nil
	}
}
