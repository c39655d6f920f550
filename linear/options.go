package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.FitIntercept = fit
	}
}

// WithAlpha sets the L2 penalty. 0 gives ordinary least squares.
func WithAlpha(alpha float64) Option {
	return func(lr *LinearRegression) {
		lr.Alpha = alpha
	}
}
