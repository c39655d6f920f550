package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError は Fit などの内部で起きた panic（木の分割での範囲外アクセス、
// gonum の次元不一致 panic など）を error として返すための型です。
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレース付きの詳細を返す。
func (e *PanicError) String() string {
	return e.Error() + "\nStack trace:\n" + e.StackTrace
}

func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{Operation: operation, PanicValue: panicValue, StackTrace: string(debug.Stack())}
}

// Recover は名前付き戻り値 err へのポインタと共に defer で使う。
//
//	func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "GradientBoostingRegressor.Fit")
//	    ...
//	}
//
// 既に err が設定されていればそれを %w で包む。
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute は fn を実行し、panic を *PanicError に変換して返す。
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
