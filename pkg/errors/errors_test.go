package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "NGBRegressor.Fit",
			kind:    "base learner failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "ngbench: NGBRegressor.Fit: base learner failed: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "ngbench: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("LinearLearner.Fit", "singular matrix", ErrSingularMatrix)
	if !Is(err, ErrSingularMatrix) {
		t.Error("ModelError should unwrap to ErrSingularMatrix")
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "ngbench: Predict: expected 10 features, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Got != 3 {
		t.Errorf("Got = %d, want 3", dimErr.Got)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("NGBRegressor", "PredDist")

	want := "ngbench: NGBRegressor.PredDist called before Fit"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("minibatch_frac", "must be in (0, 1]", 1.5)

	want := "ngbench: invalid minibatch_frac=1.5: must be in (0, 1]"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("LineSearch", 12, "no improving step")

	want := "LineSearch did not converge in 12 steps: no improving step"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}
}

func TestWarnUsesZerologFunc(t *testing.T) {
	var got error
	SetZerologWarnFunc(func(w error) { got = w })
	defer SetZerologWarnFunc(nil)

	w := NewConvergenceWarning("LineSearch", 1, "")
	Warn(w)
	if got != w {
		t.Errorf("Warn did not reach zerolog func, got %v", got)
	}
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("LineSearch", 1, "")
	Warn(w)
	if got != w {
		t.Errorf("Warn did not reach handler, got %v", got)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logger.Error().Object("err", &DimensionError{Op: "Fit", Expected: 4, Got: 2, Axis: 0}).Msg("bad input")

	out := buf.String()
	for _, want := range []string{`"axis":"rows"`, `"type":"DimensionError"`, `"expected":4`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s does not contain %s", out, want)
		}
	}
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{1, 2, 3}, false},
		{"nan", []float64{1, math.NaN()}, true},
		{"inf", []float64{math.Inf(-1)}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("gradient", tt.values, 3)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckNumericalStability() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := CheckScalar("loss", math.NaN(), 0); err == nil {
		t.Error("CheckScalar(NaN) should fail")
	}
}

func TestStabilizeExp(t *testing.T) {
	if got := StabilizeExp(1e6); math.IsInf(got, 0) {
		t.Error("StabilizeExp should not overflow")
	}
	if got := StabilizeExp(-1e6); got != 0 {
		t.Errorf("StabilizeExp(-1e6) = %v, want 0", got)
	}
	if got := StabilizeExp(math.Log(2.5)); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("StabilizeExp(log 2.5) = %v, want 2.5", got)
	}
}

func TestNumericalInstabilityErrorTruncatesValues(t *testing.T) {
	err := NewNumericalInstabilityError("loss", []float64{1, 2, 3, 4, 5, 6}, 7)
	want := "ngbench: loss produced non-finite values at iteration 7: [1, 2, 3, 4, 5, ...]"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}
