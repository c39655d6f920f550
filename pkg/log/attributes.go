// Package log defines standard attribute keys for benchmark logging.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples") so that
// the zerolog JSON output of a run can be filtered per fold, per model or per dataset.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "NGBRegressor", "GradientBoostingRegressor".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed ("fit", "predict", ...).
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "component"

	// PhaseKey indicates the phase (training, validation, testing).
	PhaseKey = "ml.phase"

	// DistributionKey names the predictive distribution family.
	DistributionKey = "ngboost.distribution"

	// ScoreKey names the scoring rule used to fit (MLE, CRPS).
	ScoreKey = "ngboost.score"

	// BaseLearnerKey names the base learner (tree, linear).
	BaseLearnerKey = "ngboost.base"
)

// Data shape.
const (
	// DatasetKey is the registry name of the dataset.
	DatasetKey = "data.name"

	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// SourceKey is the URL or path a dataset was read from.
	SourceKey = "data.source"
)

// Training progress and metrics.
const (
	// FoldKey is the 1-based fold number.
	FoldKey = "cv.fold"

	// NFoldsKey is the number of folds in the run.
	NFoldsKey = "cv.n_folds"

	// RunIDKey identifies one invocation of the benchmark.
	RunIDKey = "run.id"

	// IterationKey records the boosting round.
	IterationKey = "training.iteration"

	// BestIterationKey records the early-stopping selection.
	BestIterationKey = "training.best_iteration"

	// LossKey records a training loss value.
	LossKey = "metrics.loss"

	// ValLossKey records a validation loss value.
	ValLossKey = "metrics.val_loss"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// NLLKey records mean negative log likelihood.
	NLLKey = "metrics.nll"

	// ScaleKey records the line-search step scale.
	ScaleKey = "training.scale"

	// LearningRateKey records the learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records the seed of the run RNG.
	RandomSeedKey = "config.random_seed"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrAttrKey holds the error value.
	ErrAttrKey = "error"

	// StacktraceKey holds the stack trace extracted from cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Standard operation and phase values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationLoad    = "load"
	OperationSave    = "save"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
)
