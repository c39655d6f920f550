// Package errors はベンチマーク全体で使う構造化エラーと警告を提供します。
//
// エラーはすべて cockroachdb/errors でスタックトレースを付与して返し、
// zerolog に渡したときは MarshalZerologObject でフィールドに展開されます。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// 警告の出力先。pkg/log が init で zerolog 側の関数を登録する（循環 import 回避）。
var warnings struct {
	sync.Mutex
	handler func(error)
	zerolog func(error)
}

func init() {
	warnings.handler = func(w error) { log.Printf("ngbench-warning: %v", w) }
}

// SetWarningHandler は zerolog 未設定時に使う警告ハンドラを差し替えます。
func SetWarningHandler(handler func(w error)) {
	warnings.Lock()
	defer warnings.Unlock()
	warnings.handler = handler
}

// SetZerologWarnFunc は構造化ログへ警告を流す関数を登録します。nil で解除。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warnings.Lock()
	defer warnings.Unlock()
	warnings.zerolog = warnFunc
}

// Warn は学習を止めない問題を報告します。
func Warn(w error) {
	warnings.Lock()
	sink := warnings.zerolog
	if sink == nil {
		sink = warnings.handler
	}
	warnings.Unlock()

	if sink != nil {
		sink(w)
	}
}

// ConvergenceWarning はラインサーチなどの反復が改善を見つけられずに打ち切られたことを表します。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	msg := fmt.Sprintf("%s did not converge in %d steps", w.Algorithm, w.Iterations)
	if w.Message != "" {
		msg += ": " + w.Message
	}
	return msg
}

func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message)
}

func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// NotFittedError は Fit 前に予測系メソッドが呼ばれたことを表します。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("ngbench: %s.%s called before Fit", e.ModelName, e.Method)
}

func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NotFittedError").
		Str("model_name", e.ModelName).
		Str("method", e.Method)
}

func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は行数または特徴量数の不一致です。Axis は 0 が行、1 が特徴量。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) unit() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("ngbench: %s: expected %d %s, got %d", e.Op, e.Expected, e.unit(), e.Got)
}

func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("axis", e.unit())
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError はハイパーパラメータ・CLI 設定・名前解決（分布族、スコア、ベース学習器）の失敗です。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ngbench: invalid %s=%v: %s", e.ParamName, e.Value, e.Reason)
}

func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValidationError").
		Str("param_name", e.ParamName).
		Interface("value", e.Value).
		Str("reason", e.Reason)
}

func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は空の入力など、引数そのものが使えない場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string { return "ngbench: " + e.Op + ": " + e.Message }

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は学習・推論中の失敗を Kind で分類して包みます。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ngbench: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("ngbench: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は損失・勾配・評価値に NaN / Inf が現れたことを表します。
// Iteration はブースティングのラウンド（評価時はフォールド番号）。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	more := ""
	if len(shown) > 5 {
		shown, more = shown[:5], ", ..."
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("ngbench: %s produced non-finite values at iteration %d: [%s%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "), more)
}

func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NumericalInstabilityError").
		Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values)
}

func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Iteration: iteration})
}

// cockroachdb/errors の薄いラッパー。呼び出し側は pkg/errors だけを import すればよい。

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func Wrap(err error, message string) error { return errors.Wrap(err, message) }

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

func New(message string) error { return errors.New(message) }

func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

func WithStack(err error) error { return errors.WithStack(err) }

var (
	ErrEmptyData      = New("empty data")
	ErrSingularMatrix = New("singular matrix")
)
