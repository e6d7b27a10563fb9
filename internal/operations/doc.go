// Package operations runs the batch flows of the return pipeline as ordered
// steps over a shared OperationState.
//
// A Registry holds the steps of one flow and orders them by their declared
// dependencies. The Manager executes them sequentially, tracks each
// StepState, retries retryable failures and stops at the first error,
// skipping every step that depends on the failed one.
//
// Three flows are provided:
//
//	aggregate: load_orders -> build_history, build_sales_class -> persist_lookups
//	prepare:   load_orders, load_lookups -> transform_orders -> write_features
//	predict:   load_orders, load_lookups -> prepare_features -> fit_model -> predict -> write_submission
//
// Example usage:
//
//	registry, err := operations.NewAggregateFlow(deps)
//	if err != nil {
//	    return err
//	}
//	manager := operations.NewManager(registry, nil, logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{
//	    Type:       operations.OperationTypeAggregate,
//	    Parameters: map[string]interface{}{operations.ContextKeyTrainPath: "data/train.csv"},
//	})
package operations
