package datasets

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
)

// DefaultDataDir is where local datasets are looked up.
const DefaultDataDir = "data/uci"

// Dataset is a loaded regression problem. Row i of X belongs to Y[i].
type Dataset struct {
	Name    string
	Source  string
	Columns []string // feature names followed by the label name; nil without a header
	X       *mat.Dense
	Y       *mat.VecDense
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (n, p int) {
	return d.X.Dims()
}

// Loader resolves dataset names to tables.
type Loader struct {
	dataDir string
	client  *http.Client
	sources map[string]string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDataDir sets the directory of local datasets.
func WithDataDir(dir string) LoaderOption {
	return func(l *Loader) { l.dataDir = dir }
}

// WithHTTPClient sets the client used for remote datasets.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithSource overrides the location of one dataset. An http(s) URL is fetched; anything
// else is a file path. The registry's format and transform still apply.
func WithSource(name, location string) LoaderOption {
	return func(l *Loader) { l.sources[name] = location }
}

// NewLoader creates a Loader reading local files from DefaultDataDir.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		dataDir: DefaultDataDir,
		client:  &http.Client{Timeout: 5 * time.Minute},
		sources: make(map[string]string),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Location returns the URL or file path name is read from.
func (l *Loader) Location(name string) (string, error) {
	spec, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if src, ok := l.sources[name]; ok {
		return src, nil
	}
	if spec.Remote() {
		return spec.URL, nil
	}
	return filepath.Join(l.dataDir, spec.File), nil
}

// Load fetches or opens the named dataset and splits its table into features and the
// last-column label.
func (l *Loader) Load(ctx context.Context, name string) (*Dataset, error) {
	spec, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	src, err := l.Location(name)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("datasets").With(log.DatasetKey, name, log.SourceKey, src)
	start := time.Now()

	raw, err := l.open(ctx, src)
	if err != nil {
		return nil, newLoadError(name, src, err)
	}

	table, err := ParseTable(bytes.NewReader(raw), spec.Format)
	if err != nil {
		return nil, newLoadError(name, src, err)
	}
	if spec.Transform != nil {
		if table, err = spec.Transform(table); err != nil {
			return nil, newLoadError(name, src, err)
		}
	}
	if table.NCols() < 2 {
		return nil, newLoadError(name, src, errors.NewValueError("Load", "need at least one feature and a label"))
	}

	ds := split(table)
	ds.Name = name
	ds.Source = src

	n, p := ds.Dims()
	logger.Debug("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func (l *Loader) open(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected HTTP status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// split uses the last column as the label.
func split(t *Table) *Dataset {
	n, p := len(t.Rows), t.NCols()
	X := mat.NewDense(n, p-1, nil)
	y := mat.NewVecDense(n, nil)
	for i, r := range t.Rows {
		X.SetRow(i, r[:p-1])
		y.SetVec(i, r[p-1])
	}
	return &Dataset{Columns: t.Columns, X: X, Y: y}
}

// Load reads a dataset with a default Loader.
func Load(ctx context.Context, name string) (*Dataset, error) {
	return NewLoader().Load(ctx, name)
}
