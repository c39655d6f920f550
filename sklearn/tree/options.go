package tree

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithCriterion sets the split criterion: "friedman_mse" (default) or "squared_error".
func WithCriterion(c string) Option {
	return func(t *DecisionTreeRegressor) { t.Criterion = c }
}

// WithMaxDepth limits the depth of the tree (root depth = 0). 0 means unlimited.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = d }
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples required in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
