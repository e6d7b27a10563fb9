package operations

import (
	"time"
)

// Step identifiers
const (
	StepIDLoadOrders      = "load_orders"
	StepIDBuildHistory    = "build_history"
	StepIDBuildSalesClass = "build_sales_class"
	StepIDPersistLookups  = "persist_lookups"
	StepIDLoadLookups     = "load_lookups"
	StepIDTransformOrders = "transform_orders"
	StepIDWriteFeatures   = "write_features"
	StepIDPrepareFeatures = "prepare_features"
	StepIDFitModel        = "fit_model"
	StepIDPredict         = "predict"
	StepIDWriteSubmission = "write_submission"
)

// Step names
const (
	StepNameLoadOrders      = "Load Orders"
	StepNameBuildHistory    = "Build Return History"
	StepNameBuildSalesClass = "Build Sales Classes"
	StepNamePersistLookups  = "Persist Lookup Tables"
	StepNameLoadLookups     = "Load Lookup Tables"
	StepNameTransformOrders = "Transform Orders"
	StepNameWriteFeatures   = "Write Feature Table"
	StepNamePrepareFeatures = "Prepare Training Features"
	StepNameFitModel        = "Fit Classifier"
	StepNamePredict         = "Predict Returns"
	StepNameWriteSubmission = "Write Submission"
)

// Keys read from the request parameters
const (
	ContextKeyTrainPath    = "train_path"
	ContextKeyInputPath    = "input_path"
	ContextKeyTestPath     = "test_path"
	ContextKeyOutputPath   = "output_path"
	ContextKeyWorkbookPath = "workbook_path"
	ContextKeyDropID       = "drop_id"
)

// Keys for values passed between steps
const (
	ContextKeyOrders       = "orders"
	ContextKeyHistories    = "histories"
	ContextKeySalesClasses = "sales_classes"
	ContextKeyLookups      = "lookups"
	ContextKeyFeatures     = "features"
	ContextKeyTrainingSet  = "training_set"
	ContextKeyPredictions  = "predictions"
)

// Operation types
const (
	OperationTypeAggregate = "aggregate"
	OperationTypePrepare   = "prepare"
	OperationTypePredict   = "predict"
)

// Default timeouts
const (
	DefaultStepTimeout = 30 * time.Minute
	DefaultFitTimeout  = 2 * time.Hour
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute an operation
type OperationRequest struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Type     string                `json:"type"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Order    []string              `json:"order"`
	Error    string                `json:"error,omitempty"`
}
