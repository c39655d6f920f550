package datasets

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
)

func TestParseTable_Whitespace(t *testing.T) {
	in := " 1.0  2.0\t3\n\n4 5 6  \n"
	tb, err := ParseTable(strings.NewReader(in), Format{Kind: Whitespace})
	if err != nil {
		t.Fatal(err)
	}
	if len(tb.Rows) != 2 || tb.NCols() != 3 || tb.Columns != nil {
		t.Fatalf("got %d rows %d cols, columns %v", len(tb.Rows), tb.NCols(), tb.Columns)
	}
	if tb.Rows[1][2] != 6 {
		t.Errorf("Rows[1][2] = %v, want 6", tb.Rows[1][2])
	}
}

func TestParseTable_DelimitedHeader(t *testing.T) {
	in := `"fixed acidity";"pH";"quality"
7.4;3.51;5
7.8;3.2;6
`
	tb, err := ParseTable(strings.NewReader(in), Format{Kind: Delimited, Delimiter: ';', Header: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"fixed acidity", "pH", "quality"}
	for i, c := range want {
		if tb.Columns[i] != c {
			t.Errorf("Columns[%d] = %q, want %q", i, tb.Columns[i], c)
		}
	}
	if len(tb.Rows) != 2 || tb.Rows[1][1] != 3.2 {
		t.Errorf("unexpected rows %v", tb.Rows)
	}
}

func xlsxBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseTable_XLSX(t *testing.T) {
	raw := xlsxBytes(t, [][]interface{}{
		{"X1", "X2", "Y1", "Y2"},
		{0.98, 514.5, 15.55, 21.33},
		{0.9, 563.5, 20.84, 28.28},
	})

	tb, err := ParseTable(bytes.NewReader(raw), Format{Kind: XLSX, Header: true})
	if err != nil {
		t.Fatal(err)
	}
	tb, err = DropLast(tb)
	if err != nil {
		t.Fatal(err)
	}
	if tb.NCols() != 3 || tb.Columns[2] != "Y1" {
		t.Fatalf("after DropLast: cols %v", tb.Columns)
	}
	if tb.Rows[1][2] != 20.84 {
		t.Errorf("Rows[1][2] = %v, want 20.84", tb.Rows[1][2])
	}
}

// testdata/*.xls are written by testdata/gen_xls.py.
func TestParseTable_XLS(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "concrete.xls"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tb, err := ParseTable(f, Format{Kind: XLS, Header: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(tb.Rows) != 10 || tb.NCols() != 9 {
		t.Fatalf("got %d rows %d cols, want 10x9", len(tb.Rows), tb.NCols())
	}
	if tb.Columns[0] != "Cement" || tb.Columns[8] != "Concrete compressive strength" {
		t.Errorf("Columns = %v", tb.Columns)
	}
	tests := []struct {
		row, col int
		want     float64
	}{
		{0, 0, 540},
		{0, 8, 79.99},
		{4, 5, 978.4},
		{9, 7, 28},
	}
	for _, tt := range tests {
		if got := tb.Rows[tt.row][tt.col]; got != tt.want {
			t.Errorf("Rows[%d][%d] = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestReadXLS_KeepsColumnPositions(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "gaps.xls"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := readXLS(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"a", "b", "c"},
		{"1", "2", "3"},
		{"", "5", "6"},
		nil,
		{"7", "", "9"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %q", len(records), len(want), records)
	}
	for i := range want {
		if len(records[i]) != len(want[i]) {
			t.Errorf("record %d = %q, want %q", i, records[i], want[i])
			continue
		}
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("record %d col %d = %q, want %q", i, j, records[i][j], want[i][j])
			}
		}
	}

	// a blank cell is an error at its own column, never a shifted row
	_, err = ParseTable(bytes.NewReader(raw), Format{Kind: XLS, Header: true})
	if err == nil || !strings.Contains(err.Error(), "column 1") {
		t.Errorf("ParseTable error = %v, want one naming column 1", err)
	}
}

func TestParseTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		f    Format
	}{
		{"ragged", "1 2 3\n4 5\n", Format{Kind: Whitespace}},
		{"non-numeric", "1,2\n3,x\n", Format{Kind: Delimited}},
		{"header only", "a,b\n", Format{Kind: Delimited, Header: true}},
		{"empty", "", Format{Kind: Whitespace}},
		{"not a workbook", "1,2\n", Format{Kind: XLSX}},
		{"not a BIFF file", "1,2\n", Format{Kind: XLS}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTable(strings.NewReader(tt.in), tt.f); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTransforms(t *testing.T) {
	tb := &Table{
		Columns: []string{"RMSD", "F1", "F2"},
		Rows:    [][]float64{{9, 1, 2}, {8, 3, 4}},
	}

	sel, err := Select("F1", "F2", "RMSD")(tb)
	if err != nil {
		t.Fatal(err)
	}
	if sel.Rows[0][2] != 9 || sel.Rows[1][0] != 3 || sel.Columns[2] != "RMSD" {
		t.Errorf("Select reordered wrongly: %v %v", sel.Columns, sel.Rows)
	}
	if _, err := Select("F9")(tb); err == nil {
		t.Error("missing column should fail")
	}

	rev, _ := Reverse(tb)
	if rev.Rows[0][0] != 2 || rev.Rows[0][2] != 9 || rev.Columns[0] != "F2" {
		t.Errorf("Reverse: %v %v", rev.Columns, rev.Rows)
	}
	if tb.Rows[0][0] != 9 {
		t.Error("Reverse must not modify its input")
	}
}

func TestNamesAndLookup(t *testing.T) {
	want := []string{"concrete", "energy", "housing", "kin8nm", "msd", "naval", "power", "protein", "wine", "yacht"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	_, err := Lookup("boston")
	var unknown *UnknownDatasetError
	if !errors.As(err, &unknown) || unknown.Name != "boston" {
		t.Fatalf("Lookup(boston) error = %v", err)
	}
	if !strings.Contains(err.Error(), "yacht") {
		t.Errorf("error should list available datasets: %v", err)
	}
}

func TestLoader_RemoteYacht(t *testing.T) {
	body := "-2.3 0.568 4.78 3.99 3.17 0.125 0.11\n-2.3 0.568 4.78 3.99 3.17 0.150 0.27\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()), WithSource("yacht", srv.URL+"/yacht.data"))
	ds, err := l.Load(context.Background(), "yacht")
	if err != nil {
		t.Fatal(err)
	}
	n, p := ds.Dims()
	if n != 2 || p != 6 || ds.Y.Len() != n {
		t.Fatalf("shape (%d, %d), len(y)=%d", n, p, ds.Y.Len())
	}
	if ds.Y.AtVec(1) != 0.27 || ds.X.At(1, 5) != 0.150 {
		t.Errorf("label should be the last column")
	}
}

func TestLoader_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()), WithSource("housing", srv.URL))
	_, err := l.Load(context.Background(), "housing")
	var le *LoadError
	if !errors.As(err, &le) || le.Dataset != "housing" {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestLoader_LocalMSD(t *testing.T) {
	dir := t.TempDir()
	// year first, then features; no header row
	content := "2001,0.5,1.5\n1999,2.5,3.5\n2010,4.5,5.5\n"
	if err := os.WriteFile(filepath.Join(dir, "YearPredictionMSD.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewLoader(WithDataDir(dir)).Load(context.Background(), "msd")
	if err != nil {
		t.Fatal(err)
	}
	n, p := ds.Dims()
	if n != 3 || p != 2 {
		t.Fatalf("shape (%d, %d), want (3, 2)", n, p)
	}
	// the first line is a sample, not a header
	if ds.Y.AtVec(0) != 2001 || ds.Y.AtVec(2) != 2010 {
		t.Errorf("year should be the label, got %v", ds.Y.RawVector().Data)
	}
	// reversed: features are (f2, f1)
	if ds.X.At(1, 0) != 3.5 || ds.X.At(1, 1) != 2.5 {
		t.Errorf("features should be reversed, row 1 = %v", ds.X.RawRowView(1))
	}
}

func TestLoader_LocalProteinAndNaval(t *testing.T) {
	dir := t.TempDir()
	protein := "RMSD,F1,F2,F3,F4,F5,F6,F7,F8,F9\n17.284,13558.3,4305.35,0.31754,162.173,1872791,215.359,4287.87,102,27.0302\n"
	naval := "1.138 3 289.964 1.0 0.95 0.975\n2.088 6 6960.18 1.0 0.96 0.974\n"
	_ = os.WriteFile(filepath.Join(dir, "protein.csv"), []byte(protein), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "naval-propulsion.txt"), []byte(naval), 0o644)

	l := NewLoader(WithDataDir(dir))
	ds, err := l.Load(context.Background(), "protein")
	if err != nil {
		t.Fatal(err)
	}
	if _, p := ds.Dims(); p != 9 || ds.Y.AtVec(0) != 17.284 {
		t.Errorf("protein: p=%d y=%v", p, ds.Y.AtVec(0))
	}

	ds, err = l.Load(context.Background(), "naval")
	if err != nil {
		t.Fatal(err)
	}
	// last column dropped, label is the compressor decay coefficient
	if _, p := ds.Dims(); p != 4 || ds.Y.AtVec(1) != 0.96 {
		t.Errorf("naval: p=%d y=%v", p, ds.Y.AtVec(1))
	}
}

func TestLoader_MissingFileAndUnknown(t *testing.T) {
	l := NewLoader(WithDataDir(t.TempDir()))
	if _, err := l.Load(context.Background(), "kin8nm"); err == nil {
		t.Error("missing local file should fail")
	}
	var unknown *UnknownDatasetError
	if _, err := l.Load(context.Background(), "iris"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownDatasetError, got %v", err)
	}

	loc, _ := l.Location("concrete")
	if !strings.HasSuffix(loc, "Concrete_Data.xls") {
		t.Errorf("Location(concrete) = %q", loc)
	}
}

func TestLoader_AllDatasets(t *testing.T) {
	concrete, err := os.ReadFile(filepath.Join("testdata", "concrete.xls"))
	if err != nil {
		t.Fatal(err)
	}
	fixtures := map[string]struct {
		body    []byte
		n, p    int
		firstY  float64
		columns bool
	}{
		"housing": {
			body: []byte("0.00632 18.00 2.310 0 0.5380 6.5750 65.20 4.0900 1 296.0 15.30 396.90 4.98 24.00\n0.02731 0.00 7.070 0 0.4690 6.4210 78.90 4.9671 2 242.0 17.80 396.90 9.14 21.60\n"),
			n:    2, p: 13, firstY: 24,
		},
		"concrete": {body: concrete, n: 10, p: 8, firstY: 79.99, columns: true},
		"wine": {
			body: []byte(`"fixed acidity";"volatile acidity";"quality"` + "\n7.4;0.7;5\n7.8;0.88;5\n11.2;0.28;6\n"),
			n:    3, p: 2, firstY: 5, columns: true,
		},
		"kin8nm": {
			body: []byte("theta1,theta2,theta3,y\n-0.015119,0.36017,0.46959,0.52397\n0.36002,-0.30106,0.63582,0.86547\n"),
			n:    2, p: 3, firstY: 0.52397, columns: true,
		},
		"naval": {
			body: []byte("1.138 3 289.964 1288.393 0.950 0.975\n2.088 6 6960.180 1383.302 0.951 0.975\n"),
			n:    2, p: 4, firstY: 0.950,
		},
		"power": {
			body: xlsxBytes(t, [][]interface{}{
				{"AT", "V", "AP", "RH", "PE"},
				{14.96, 41.76, 1024.07, 73.17, 463.26},
				{25.18, 62.96, 1020.04, 59.08, 444.37},
			}),
			n: 2, p: 4, firstY: 463.26, columns: true,
		},
		"energy": {
			body: xlsxBytes(t, [][]interface{}{
				{"X1", "X2", "X3", "Y1", "Y2"},
				{0.98, 514.5, 294, 15.55, 21.33},
				{0.98, 514.5, 294, 15.55, 21.33},
				{0.9, 563.5, 318.5, 20.84, 28.28},
			}),
			n: 3, p: 3, firstY: 15.55, columns: true,
		},
		"protein": {
			body: []byte("RMSD,F1,F2,F3,F4,F5,F6,F7,F8,F9\n" +
				"17.284,13558.3,4305.35,0.31754,162.173,1872791,215.359,4287.87,102,27.0302\n" +
				"6.021,6191.96,1623.16,0.26213,53.3894,803446.9,87.2024,3328.91,39,38.5468\n"),
			n: 2, p: 9, firstY: 17.284, columns: true,
		},
		"yacht": {
			body: []byte("-2.3 0.568 4.78 3.99 3.17 0.125 0.11\n-2.3 0.568 4.78 3.99 3.17 0.150 0.27\n"),
			n:    2, p: 6, firstY: 0.11,
		},
		"msd": {
			body: []byte("2001,49.94357,21.47114,73.0775\n2001,48.73215,18.4293,70.32679\n"),
			n:    2, p: 3, firstY: 2001,
		},
	}

	mux := http.NewServeMux()
	for name, fx := range fixtures {
		body := fx.body
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	opts := []LoaderOption{WithHTTPClient(srv.Client())}
	for _, name := range Names() {
		fx, ok := fixtures[name]
		if !ok {
			t.Fatalf("no fixture for dataset %q", name)
		}
		spec, _ := Lookup(name)
		if spec.Remote() {
			opts = append(opts, WithSource(name, srv.URL+"/"+name))
			continue
		}
		path := filepath.Join(dir, spec.File)
		if err := os.WriteFile(path, fx.body, 0o644); err != nil {
			t.Fatal(err)
		}
		opts = append(opts, WithSource(name, path))
	}
	l := NewLoader(opts...)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			fx := fixtures[name]
			ds, err := l.Load(context.Background(), name)
			if err != nil {
				t.Fatal(err)
			}
			n, p := ds.Dims()
			if n != ds.Y.Len() || p < 1 {
				t.Fatalf("shape (%d, %d), len(y)=%d", n, p, ds.Y.Len())
			}
			if n != fx.n || p != fx.p {
				t.Errorf("shape (%d, %d), want (%d, %d)", n, p, fx.n, fx.p)
			}
			if got := ds.Y.AtVec(0); got != fx.firstY {
				t.Errorf("y[0] = %v, want %v", got, fx.firstY)
			}
			if (ds.Columns != nil) != fx.columns {
				t.Errorf("Columns = %v, header expected: %v", ds.Columns, fx.columns)
			} else if fx.columns && len(ds.Columns) != p+1 {
				t.Errorf("len(Columns) = %d, want %d", len(ds.Columns), p+1)
			}
		})
	}
}
