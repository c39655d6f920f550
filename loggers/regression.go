// Package loggers accumulates per-fold evaluation records of probabilistic
// regression forecasts and appends them to a JSON lines results file.
package loggers

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/ngbench/metrics"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
)

// CalibrationLevels are the nominal quantile levels used for calibration.
var CalibrationLevels = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Forecast is a batch of predictive distributions, one per test sample.
type Forecast interface {
	Loc() []float64
	LogPDF(y []float64) []float64
	CRPS(y []float64) []float64
	PPF(q float64) []float64
}

// RunConfig identifies the configuration a record was produced under.
type RunConfig struct {
	RunID         string  `json:"run_id"`
	Dataset       string  `json:"dataset"`
	Distn         string  `json:"distn"`
	Score         string  `json:"score"`
	Base          string  `json:"base"`
	Natural       bool    `json:"natural"`
	NEstimators   int     `json:"n_est"`
	NSplits       int     `json:"n_splits"`
	Reps          int     `json:"reps"`
	LearningRate  float64 `json:"lr"`
	MinibatchFrac float64 `json:"minibatch_frac"`
	Seed          uint64  `json:"seed"`
}

// Metrics are the evaluation results of one fold.
type Metrics struct {
	N              int     `json:"n"`
	RMSE           float64 `json:"rmse"`
	MSE            float64 `json:"mse"`
	R2             float64 `json:"r2"`
	NLL            float64 `json:"nll"`
	CRPS           float64 `json:"crps"`
	CalibError     float64 `json:"calib_error"`
	CalibSlope     float64 `json:"calib_slope"`
	CalibIntercept float64 `json:"calib_intercept"`
	BestIteration  int     `json:"best_iteration,omitempty"`
}

// Record is one line of the results file.
type Record struct {
	RunConfig
	Kind string    `json:"kind"` // "fold" or "summary"
	Fold int       `json:"fold,omitempty"`
	Time time.Time `json:"time"`

	*Metrics `json:",omitempty"`
	Summary  map[string]Stat `json:"summary,omitempty"`
}

// Stat is the mean and standard error of a metric over folds.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdErr float64 `json:"stderr"`
}

// RegressionLogger collects fold metrics for one model family.
type RegressionLogger struct {
	Config RunConfig
	Dir    string

	folds []Metrics
	now   func() time.Time
}

// NewRegressionLogger writes to dir/<dataset>-<score>-<distn>.jsonl on Save.
func NewRegressionLogger(cfg RunConfig, dir string) *RegressionLogger {
	return &RegressionLogger{Config: cfg, Dir: dir, now: time.Now}
}

// Folds returns the metrics recorded so far.
func (l *RegressionLogger) Folds() []Metrics {
	return l.folds
}

// Tick evaluates forecast against yTrue and records the result as the next fold.
func (l *RegressionLogger) Tick(forecast Forecast, yTrue []float64) (Metrics, error) {
	m, err := Evaluate(forecast, yTrue)
	if err != nil {
		return Metrics{}, err
	}
	l.folds = append(l.folds, m)
	return m, nil
}

// SetBestIteration annotates the last recorded fold.
func (l *RegressionLogger) SetBestIteration(itr int) {
	if len(l.folds) > 0 {
		l.folds[len(l.folds)-1].BestIteration = itr
	}
}

// Evaluate computes point and probabilistic metrics of forecast against y.
// JSON cannot encode NaN or Inf, so non-finite results are an error.
func Evaluate(forecast Forecast, y []float64) (Metrics, error) {
	loc := forecast.Loc()
	if len(loc) != len(y) {
		return Metrics{}, errors.NewDimensionError("Evaluate", len(y), len(loc), 0)
	}
	if len(y) == 0 {
		return Metrics{}, errors.NewModelError("Evaluate", "empty data", errors.ErrEmptyData)
	}

	mse, err := metrics.MSESlice(y, loc)
	if err != nil {
		return Metrics{}, err
	}
	r2, err := metrics.R2Score(mat.NewVecDense(len(y), append([]float64(nil), y...)),
		mat.NewVecDense(len(loc), append([]float64(nil), loc...)))
	if err != nil {
		// constant targets: 1 for a perfect fit, else 0
		r2 = 0
		if mse == 0 {
			r2 = 1
		}
	}

	m := Metrics{
		N:    len(y),
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		R2:   r2,
		NLL:  -stat.Mean(forecast.LogPDF(y), nil),
		CRPS: stat.Mean(forecast.CRPS(y), nil),
	}
	observed := Calibration(forecast, y, CalibrationLevels)
	m.CalibIntercept, m.CalibSlope = stat.LinearRegression(CalibrationLevels, observed, nil, false)
	for i, p := range CalibrationLevels {
		m.CalibError += (p - observed[i]) * (p - observed[i])
	}

	vals := []float64{m.RMSE, m.NLL, m.CRPS, m.CalibSlope, m.CalibIntercept}
	if err := errors.CheckNumericalStability("Evaluate", vals, 0); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// Calibration returns, for every level p, the fraction of y below the p-quantile of
// its forecast.
func Calibration(forecast Forecast, y []float64, levels []float64) []float64 {
	observed := make([]float64, len(levels))
	for i, p := range levels {
		q := forecast.PPF(p)
		var below int
		for j := range y {
			if y[j] < q[j] {
				below++
			}
		}
		observed[i] = float64(below) / float64(len(y))
	}
	return observed
}

// Summarize returns the mean and standard error of every metric over folds.
func Summarize(folds []Metrics) map[string]Stat {
	cols := map[string][]float64{}
	for _, f := range folds {
		cols["rmse"] = append(cols["rmse"], f.RMSE)
		cols["mse"] = append(cols["mse"], f.MSE)
		cols["r2"] = append(cols["r2"], f.R2)
		cols["nll"] = append(cols["nll"], f.NLL)
		cols["crps"] = append(cols["crps"], f.CRPS)
		cols["calib_error"] = append(cols["calib_error"], f.CalibError)
		cols["calib_slope"] = append(cols["calib_slope"], f.CalibSlope)
	}
	out := make(map[string]Stat, len(cols))
	for k, v := range cols {
		mean, std := stat.PopMeanStdDev(v, nil)
		out[k] = Stat{Mean: mean, StdErr: std / math.Sqrt(float64(len(v)))}
	}
	return out
}

// Path returns the results file of this logger.
func (l *RegressionLogger) Path() string {
	return filepath.Join(l.Dir, l.Config.Dataset+"-"+l.Config.Score+"-"+l.Config.Distn+".jsonl")
}

// Records returns the fold records followed by the summary record.
func (l *RegressionLogger) Records() []Record {
	ts := l.now().UTC()
	out := make([]Record, 0, len(l.folds)+1)
	for i := range l.folds {
		m := l.folds[i]
		out = append(out, Record{RunConfig: l.Config, Kind: "fold", Fold: i + 1, Time: ts, Metrics: &m})
	}
	if len(l.folds) > 0 {
		out = append(out, Record{RunConfig: l.Config, Kind: "summary", Time: ts, Summary: Summarize(l.folds)})
	}
	return out
}

// WriteTo writes the records as JSON lines.
func (l *RegressionLogger) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	enc := json.NewEncoder(bw)
	for _, r := range l.Records() {
		if err := enc.Encode(r); err != nil {
			return cw.n, errors.Wrap(err, "encode record")
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Save appends the records to Path(), creating the directory if needed.
func (l *RegressionLogger) Save() (err error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create results directory %s", l.Dir)
	}
	path := l.Path()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := l.WriteTo(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log.GetLoggerWithName("loggers").Info("Results saved",
		log.OperationKey, log.OperationSave,
		log.DatasetKey, l.Config.Dataset,
		log.DistributionKey, l.Config.Distn,
		log.NFoldsKey, len(l.folds),
		"path", path,
	)
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
