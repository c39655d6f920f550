package errors

import "math"

// CheckNumericalStability は values 中の NaN / Inf を最大 10 個まで集めてエラーにします。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if !isFinite(v) {
			if bad = append(bad, v); len(bad) == 10 {
				break
			}
		}
	}
	if bad == nil {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, iteration)
}

// CheckScalar はスカラー版。ラウンドごとの損失チェックに使う。
func CheckScalar(operation string, value float64, iteration int) error {
	if isFinite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}

// StabilizeExp は log スケールのパラメータを exp で戻す。指数は 700 で頭打ちにして +Inf を避ける。
func StabilizeExp(value float64) float64 {
	return math.Exp(math.Min(value, 700))
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
