package operations

import (
	"fmt"
)

type requirement struct {
	name string
	ok   bool
}

func (d *Dependencies) require(flow string, checks ...requirement) error {
	if d == nil {
		return NewValidationError("", fmt.Sprintf("%s flow requires dependencies", flow))
	}
	for _, c := range checks {
		if !c.ok {
			return NewValidationError("", fmt.Sprintf("%s flow requires %s", flow, c.name))
		}
	}
	return nil
}

func register(steps ...Step) (*Registry, error) {
	registry := NewRegistry()
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	if _, err := registry.GetDependencyOrder(); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewAggregateFlow builds load_orders -> build_history, build_sales_class -> persist_lookups.
func NewAggregateFlow(d *Dependencies) (*Registry, error) {
	if err := d.require(OperationTypeAggregate,
		requirement{"a loader", d.Loader != nil},
		requirement{"a history aggregator", d.History != nil},
		requirement{"a sales-class aggregator", d.SalesClass != nil},
		requirement{"a lookup store", d.Store != nil},
	); err != nil {
		return nil, err
	}
	return register(
		NewLoadOrdersStep(ContextKeyTrainPath, d),
		NewBuildHistoryStep(d),
		NewBuildSalesClassStep(d),
		NewPersistLookupsStep(d),
	)
}

// NewPrepareFlow builds load_orders, load_lookups -> transform_orders -> write_features.
func NewPrepareFlow(d *Dependencies) (*Registry, error) {
	if err := d.require(OperationTypePrepare,
		requirement{"a loader", d.Loader != nil},
		requirement{"a lookup store", d.Store != nil},
		requirement{"a CSV writer", d.Writer != nil},
	); err != nil {
		return nil, err
	}
	return register(
		NewLoadOrdersStep(ContextKeyInputPath, d),
		NewLoadLookupsStep(d),
		NewTransformOrdersStep(d),
		NewWriteFeaturesStep(d),
	)
}

// NewPredictFlow builds load_orders, load_lookups -> prepare_features ->
// fit_model -> predict -> write_submission.
func NewPredictFlow(d *Dependencies) (*Registry, error) {
	if err := d.require(OperationTypePredict,
		requirement{"a loader", d.Loader != nil},
		requirement{"a lookup store", d.Store != nil},
		requirement{"a CSV writer", d.Writer != nil},
		requirement{"a classifier", d.Classifier != nil},
	); err != nil {
		return nil, err
	}
	return register(
		NewLoadOrdersStep(ContextKeyTrainPath, d),
		NewLoadLookupsStep(d),
		NewPrepareFeaturesStep(d),
		NewFitModelStep(d),
		NewPredictStep(d),
		NewWriteSubmissionStep(d),
	)
}
