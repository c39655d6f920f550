// Package datasets loads the UCI regression benchmarks by name.
//
// Every dataset resolves to a table whose last column is the label and whose other
// columns are features. Remote datasets are fetched over HTTP on every call; local
// ones are read from a data directory (data/uci by default).
package datasets

import (
	"sort"
)

// Spec describes where a dataset lives and how to turn its table into (X, y).
type Spec struct {
	Name      string
	URL       string // remote location; empty for local files
	File      string // path relative to the data directory
	Format    Format
	Transform func(*Table) (*Table, error)
}

// Remote reports whether the dataset is fetched over HTTP.
func (s Spec) Remote() bool {
	return s.URL != ""
}

const uciBase = "https://archive.ics.uci.edu/ml/machine-learning-databases/"

var registry = map[string]Spec{
	"housing": {
		Name:   "housing",
		URL:    uciBase + "housing/housing.data",
		Format: Format{Kind: Whitespace},
	},
	"concrete": {
		Name:   "concrete",
		URL:    uciBase + "concrete/compressive/Concrete_Data.xls",
		Format: Format{Kind: XLS, Header: true},
	},
	"wine": {
		Name:   "wine",
		URL:    uciBase + "wine-quality/winequality-red.csv",
		Format: Format{Kind: Delimited, Delimiter: ';', Header: true},
	},
	"kin8nm": {
		Name:   "kin8nm",
		File:   "kin8nm.csv",
		Format: Format{Kind: Delimited, Header: true},
	},
	"naval": {
		Name:      "naval",
		File:      "naval-propulsion.txt",
		Format:    Format{Kind: Whitespace},
		Transform: DropLast,
	},
	"power": {
		Name:   "power",
		File:   "power-plant.xlsx",
		Format: Format{Kind: XLSX, Header: true},
	},
	"energy": {
		Name:      "energy",
		URL:       uciBase + "00242/ENB2012_data.xlsx",
		Format:    Format{Kind: XLSX, Header: true},
		Transform: DropLast,
	},
	"protein": {
		Name:      "protein",
		File:      "protein.csv",
		Format:    Format{Kind: Delimited, Header: true},
		Transform: Select("F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "RMSD"),
	},
	"yacht": {
		Name:   "yacht",
		URL:    "http://archive.ics.uci.edu/ml/machine-learning-databases/00243/yacht_hydrodynamics.data",
		Format: Format{Kind: Whitespace},
	},
	// The year is the first column of the raw file; reversing makes it the label.
	// The file has no header, so its first line is a sample. pandas' read_csv with the
	// default header=0 would consume that line as column names and keep 515344 rows,
	// not 515345. With MSDTrainSize fixed, the held-out tail here is one row longer.
	"msd": {
		Name:      "msd",
		File:      "YearPredictionMSD.txt",
		Format:    Format{Kind: Delimited},
		Transform: Reverse,
	},
}

// Names returns the registered dataset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registry entry for name.
func Lookup(name string) (Spec, error) {
	s, ok := registry[name]
	if !ok {
		return Spec{}, NewUnknownDatasetError(name)
	}
	return s, nil
}
