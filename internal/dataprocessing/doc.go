// Package dataprocessing turns raw order logs into model-ready feature tables.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads CSV or XLSX order logs into a columnar Table
// 2. Aggregators: HistoryAggregator and SalesClassAggregator build lookup records from labelled orders
// 3. Stages: pure Table-to-Table transformations composed by a Pipeline
// 4. RecordTransformer: the canonical stage sequence, run whole or in concurrent batches
//
// # Usage
//
// Building lookups from a training set:
//
//	orders, err := dataprocessing.ParseFile("train.csv", dataprocessing.DefaultParseOptions())
//	if err != nil {
//	    return err
//	}
//	histories, err := dataprocessing.NewHistoryAggregator(logger, "return").BuildAll(ctx, orders)
//
// Transforming new orders:
//
//	rt, err := dataprocessing.NewRecordTransformer(lookups, dataprocessing.DefaultTransformerOptions(), logger)
//	features, err := rt.Transform(ctx, orders)
//
// # Data Flow
//
//	CSV/XLSX → Parser → Table → Stages → Feature Table
//	                     └→ Aggregators → Lookup Records
//
// # Stage Ordering
//
// Each Stage declares the columns it reads, their kinds and the stage that
// must have written them. Running a stage early fails with a STAGE_ORDER
// error wrapping a *StageOrderError that names the offending column.
// Stages never modify their input table.
package dataprocessing
