package ngboost

import (
	"github.com/YuminosukeSato/ngbench/core/model"
	"github.com/YuminosukeSato/ngbench/linear"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/sklearn/tree"
)

// DefaultTreeLearner は friedman_mse・深さ 3 の回帰木
func DefaultTreeLearner() model.Regressor {
	return tree.NewDecisionTreeRegressor(
		tree.WithCriterion(tree.CriterionFriedmanMSE),
		tree.WithMaxDepth(3),
		tree.WithMinSamplesSplit(2),
		tree.WithMinSamplesLeaf(1),
	)
}

// DefaultLinearLearner は正則化なし（alpha=0）の切片付き最小二乗
func DefaultLinearLearner() model.Regressor {
	return linear.NewLinearRegression(linear.WithAlpha(0), linear.WithFitIntercept(true))
}

// LearnerByName looks up "tree" or "linear".
func LearnerByName(name string) (model.RegressorFactory, error) {
	switch name {
	case "tree":
		return DefaultTreeLearner, nil
	case "linear":
		return DefaultLinearLearner, nil
	default:
		return nil, errors.NewValidationError("base", "must be tree or linear", name)
	}
}
