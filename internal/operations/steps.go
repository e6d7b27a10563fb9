package operations

import (
	"context"
	"fmt"
	"log/slog"

	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/exporter"
	"orderreturns/internal/infrastructure"
	"orderreturns/internal/lookup"
	"orderreturns/internal/model"
	"orderreturns/internal/validation"
	"orderreturns/pkg/contracts/domain"
)

// ContextKeyTransformer holds the RecordTransformer shared by training and prediction.
const ContextKeyTransformer = "transformer"

// Dependencies are the collaborators the built-in steps work with.
type Dependencies struct {
	Logger      *slog.Logger
	Loader      *dataprocessing.TrainingSetLoader
	History     *dataprocessing.HistoryAggregator
	SalesClass  *dataprocessing.SalesClassAggregator
	Store       lookup.Store
	Writer      *exporter.CSVWriter
	Workbook    *exporter.WorkbookExporter
	Transformer dataprocessing.TransformerOptions
	Classifier  model.Classifier
	Files       *validation.FileValidator
	MaxPrice    float64
	Metrics     *infrastructure.PipelineMetrics
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Dependencies) files() *validation.FileValidator {
	if d.Files == nil {
		d.Files = validation.NewFileValidator(d.logger())
	}
	return d.Files
}

func validateOrderParam(state *OperationState, d *Dependencies, key string) error {
	path, err := state.ConfigString(key)
	if err != nil {
		return err
	}
	return d.files().ValidateOrderFile(path)
}

func validateOutputParam(state *OperationState, d *Dependencies, key string) error {
	path, err := state.ConfigString(key)
	if err != nil {
		return err
	}
	return d.files().ValidateOutputFile(path)
}

func recordRows(ctx context.Context, d *Dependencies, state *OperationState, stepID string, rows int) {
	infrastructure.RecordRows(ctx, d.Metrics, stepID, rows)
	if ss := state.GetStep(stepID); ss != nil {
		ss.SetMetadata("rows", rows)
	}
}

func transformerFor(state *OperationState, d *Dependencies) (*dataprocessing.RecordTransformer, error) {
	if rt, err := ContextValue[*dataprocessing.RecordTransformer](state, ContextKeyTransformer); err == nil {
		return rt, nil
	}
	lookups, err := ContextValue[dataprocessing.Lookups](state, ContextKeyLookups)
	if err != nil {
		return nil, err
	}
	rt, err := dataprocessing.NewRecordTransformer(lookups, d.Transformer, d.logger())
	if err != nil {
		return nil, err
	}
	state.SetContext(ContextKeyTransformer, rt)
	return rt, nil
}

// LoadOrdersStep reads an order file named by a request parameter.
type LoadOrdersStep struct {
	BaseStep
	pathKey string
	deps    *Dependencies
}

// NewLoadOrdersStep creates a step reading the file at parameter pathKey.
func NewLoadOrdersStep(pathKey string, deps *Dependencies) *LoadOrdersStep {
	return &LoadOrdersStep{
		BaseStep: NewBaseStep(StepIDLoadOrders, StepNameLoadOrders),
		pathKey:  pathKey,
		deps:     deps,
	}
}

// Validate requires the path parameter to name a readable order file.
func (s *LoadOrdersStep) Validate(state *OperationState) error {
	return validateOrderParam(state, s.deps, s.pathKey)
}

// Execute parses the order file into ContextKeyOrders.
func (s *LoadOrdersStep) Execute(ctx context.Context, state *OperationState) error {
	path, err := state.ConfigString(s.pathKey)
	if err != nil {
		return err
	}
	orders, err := s.deps.Loader.ReadOrders(ctx, path)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyOrders, orders)
	recordRows(ctx, s.deps, state, s.ID(), orders.Len())
	return nil
}

// BuildHistoryStep computes the customer, item and manufacturer return histories.
type BuildHistoryStep struct {
	BaseStep
	deps *Dependencies
}

// NewBuildHistoryStep creates the history aggregation step.
func NewBuildHistoryStep(deps *Dependencies) *BuildHistoryStep {
	return &BuildHistoryStep{
		BaseStep: NewBaseStep(StepIDBuildHistory, StepNameBuildHistory, StepIDLoadOrders),
		deps:     deps,
	}
}

// Execute stores the histories under ContextKeyHistories.
func (s *BuildHistoryStep) Execute(ctx context.Context, state *OperationState) error {
	orders, err := ContextValue[*dataprocessing.Table](state, ContextKeyOrders)
	if err != nil {
		return err
	}
	histories, err := s.deps.History.BuildAll(ctx, orders)
	if err != nil {
		return err
	}
	for entity, records := range histories {
		infrastructure.RecordLookupRecords(ctx, s.deps.Metrics, lookup.HistoryName(entity), len(records))
	}
	state.SetContext(ContextKeyHistories, histories)
	return nil
}

// BuildSalesClassStep ranks customers into sales classes.
type BuildSalesClassStep struct {
	BaseStep
	deps *Dependencies
}

// NewBuildSalesClassStep creates the sales-class aggregation step.
func NewBuildSalesClassStep(deps *Dependencies) *BuildSalesClassStep {
	return &BuildSalesClassStep{
		BaseStep: NewBaseStep(StepIDBuildSalesClass, StepNameBuildSalesClass, StepIDLoadOrders),
		deps:     deps,
	}
}

// Execute stores the classes under ContextKeySalesClasses.
func (s *BuildSalesClassStep) Execute(ctx context.Context, state *OperationState) error {
	orders, err := ContextValue[*dataprocessing.Table](state, ContextKeyOrders)
	if err != nil {
		return err
	}
	classes, err := s.deps.SalesClass.Build(ctx, orders)
	if err != nil {
		return err
	}
	infrastructure.RecordLookupRecords(ctx, s.deps.Metrics, lookup.SalesClassName, len(classes))
	state.SetContext(ContextKeySalesClasses, classes)
	return nil
}

// PersistLookupsStep writes every lookup table to the store and, when a
// workbook path is given, to an XLSX workbook as well.
type PersistLookupsStep struct {
	BaseStep
	deps *Dependencies
}

// NewPersistLookupsStep creates the persistence step.
func NewPersistLookupsStep(deps *Dependencies) *PersistLookupsStep {
	return &PersistLookupsStep{
		BaseStep: NewBaseStep(StepIDPersistLookups, StepNamePersistLookups, StepIDBuildHistory, StepIDBuildSalesClass),
		deps:     deps,
	}
}

// Validate checks the optional workbook path.
func (s *PersistLookupsStep) Validate(state *OperationState) error {
	if _, ok := state.GetConfig(ContextKeyWorkbookPath); !ok {
		return nil
	}
	return validateOutputParam(state, s.deps, ContextKeyWorkbookPath)
}

// Execute saves the tables built by the aggregation steps.
func (s *PersistLookupsStep) Execute(ctx context.Context, state *OperationState) error {
	histories, err := ContextValue[map[domain.Entity][]domain.HistoryRecord](state, ContextKeyHistories)
	if err != nil {
		return err
	}
	classes, err := ContextValue[[]domain.SalesClassRecord](state, ContextKeySalesClasses)
	if err != nil {
		return err
	}
	if err := lookup.SaveAll(ctx, s.deps.Store, histories, classes); err != nil {
		return err
	}

	if path, err := state.ConfigString(ContextKeyWorkbookPath); err == nil && s.deps.Workbook != nil {
		if err := s.deps.Workbook.Export(path, histories, classes); err != nil {
			return err
		}
		if ss := state.GetStep(s.ID()); ss != nil {
			ss.SetMetadata("workbook", path)
		}
	}
	return nil
}

// LoadLookupsStep reads the persisted lookup tables into join indexes.
type LoadLookupsStep struct {
	BaseStep
	deps *Dependencies
}

// NewLoadLookupsStep creates the lookup loading step.
func NewLoadLookupsStep(deps *Dependencies) *LoadLookupsStep {
	return &LoadLookupsStep{
		BaseStep: NewBaseStep(StepIDLoadLookups, StepNameLoadLookups),
		deps:     deps,
	}
}

// Execute stores the indexes under ContextKeyLookups.
func (s *LoadLookupsStep) Execute(ctx context.Context, state *OperationState) error {
	lookups, err := lookup.LoadLookups(ctx, s.deps.Store, s.deps.Transformer.IncludeSalesClass)
	if err != nil {
		return err
	}
	for _, entity := range domain.Entities() {
		infrastructure.RecordLookupRecords(ctx, s.deps.Metrics, lookup.HistoryName(entity), len(lookups.History(entity)))
	}
	state.SetContext(ContextKeyLookups, lookups)
	return nil
}

// TransformOrdersStep turns the loaded orders into a feature table.
type TransformOrdersStep struct {
	BaseStep
	deps *Dependencies
}

// NewTransformOrdersStep creates the transformation step of the prepare flow.
func NewTransformOrdersStep(deps *Dependencies) *TransformOrdersStep {
	return &TransformOrdersStep{
		BaseStep: NewBaseStep(StepIDTransformOrders, StepNameTransformOrders, StepIDLoadOrders, StepIDLoadLookups),
		deps:     deps,
	}
}

// Execute stores the features under ContextKeyFeatures. The id column is
// dropped when the drop_id parameter is true.
func (s *TransformOrdersStep) Execute(ctx context.Context, state *OperationState) error {
	orders, err := ContextValue[*dataprocessing.Table](state, ContextKeyOrders)
	if err != nil {
		return err
	}
	rt, err := transformerFor(state, s.deps)
	if err != nil {
		return err
	}
	features, err := rt.TransformBatches(ctx, orders)
	if err != nil {
		return err
	}
	if state.ConfigBool(ContextKeyDropID) {
		features.Drop(s.deps.Loader.IDColumn())
	}
	state.SetContext(ContextKeyFeatures, features)
	recordRows(ctx, s.deps, state, s.ID(), features.Len())
	return nil
}

// WriteFeaturesStep writes the feature table to the output path.
type WriteFeaturesStep struct {
	BaseStep
	deps *Dependencies
}

// NewWriteFeaturesStep creates the feature writing step.
func NewWriteFeaturesStep(deps *Dependencies) *WriteFeaturesStep {
	return &WriteFeaturesStep{
		BaseStep: NewBaseStep(StepIDWriteFeatures, StepNameWriteFeatures, StepIDTransformOrders),
		deps:     deps,
	}
}

// Validate requires a writable output path.
func (s *WriteFeaturesStep) Validate(state *OperationState) error {
	return validateOutputParam(state, s.deps, ContextKeyOutputPath)
}

// Execute writes ContextKeyFeatures as CSV.
func (s *WriteFeaturesStep) Execute(ctx context.Context, state *OperationState) error {
	path, err := state.ConfigString(ContextKeyOutputPath)
	if err != nil {
		return err
	}
	features, err := ContextValue[*dataprocessing.Table](state, ContextKeyFeatures)
	if err != nil {
		return err
	}
	return s.deps.Writer.WriteTable(path, features)
}

// PrepareFeaturesStep splits the labelled orders, drops price outliers and
// transforms the remaining rows into the training set.
type PrepareFeaturesStep struct {
	BaseStep
	deps *Dependencies
}

// NewPrepareFeaturesStep creates the training preparation step.
func NewPrepareFeaturesStep(deps *Dependencies) *PrepareFeaturesStep {
	return &PrepareFeaturesStep{
		BaseStep: NewBaseStep(StepIDPrepareFeatures, StepNamePrepareFeatures, StepIDLoadOrders, StepIDLoadLookups),
		deps:     deps,
	}
}

// Execute stores the prepared *dataprocessing.TrainingSet under ContextKeyTrainingSet.
func (s *PrepareFeaturesStep) Execute(ctx context.Context, state *OperationState) error {
	orders, err := ContextValue[*dataprocessing.Table](state, ContextKeyOrders)
	if err != nil {
		return err
	}
	ts, err := s.deps.Loader.Split(orders)
	if err != nil {
		return err
	}
	if s.deps.MaxPrice > 0 {
		before := ts.Features.Len()
		if ts, err = dataprocessing.FilterMaxPrice(ts, s.deps.MaxPrice); err != nil {
			return err
		}
		s.deps.logger().InfoContext(ctx, "Price outliers removed",
			slog.Float64("max_price", s.deps.MaxPrice),
			slog.Int("dropped", before-ts.Features.Len()))
	}

	rt, err := transformerFor(state, s.deps)
	if err != nil {
		return err
	}
	features, err := rt.TransformBatches(ctx, ts.Features)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyTrainingSet, &dataprocessing.TrainingSet{Features: features, Labels: ts.Labels})
	recordRows(ctx, s.deps, state, s.ID(), features.Len())
	return nil
}

// FitModelStep fits the classifier on the prepared training set.
type FitModelStep struct {
	BaseStep
	deps *Dependencies
}

// NewFitModelStep creates the model fitting step.
func NewFitModelStep(deps *Dependencies) *FitModelStep {
	return &FitModelStep{
		BaseStep: NewBaseStep(StepIDFitModel, StepNameFitModel, StepIDPrepareFeatures),
		deps:     deps,
	}
}

// Execute fits deps.Classifier.
func (s *FitModelStep) Execute(ctx context.Context, state *OperationState) error {
	ts, err := ContextValue[*dataprocessing.TrainingSet](state, ContextKeyTrainingSet)
	if err != nil {
		return err
	}
	return s.deps.Classifier.Fit(ctx, ts.Features, ts.Labels)
}

// PredictStep transforms the test orders and predicts one label per row.
type PredictStep struct {
	BaseStep
	deps *Dependencies
}

// NewPredictStep creates the prediction step.
func NewPredictStep(deps *Dependencies) *PredictStep {
	return &PredictStep{
		BaseStep: NewBaseStep(StepIDPredict, StepNamePredict, StepIDFitModel),
		deps:     deps,
	}
}

// Validate requires the test path parameter to name a readable order file.
func (s *PredictStep) Validate(state *OperationState) error {
	return validateOrderParam(state, s.deps, ContextKeyTestPath)
}

// Execute stores []domain.Prediction under ContextKeyPredictions, in test-file row order.
func (s *PredictStep) Execute(ctx context.Context, state *OperationState) error {
	path, err := state.ConfigString(ContextKeyTestPath)
	if err != nil {
		return err
	}
	orders, err := s.deps.Loader.ReadOrders(ctx, path)
	if err != nil {
		return err
	}
	rt, err := transformerFor(state, s.deps)
	if err != nil {
		return err
	}
	features, err := rt.TransformBatches(ctx, orders)
	if err != nil {
		return err
	}

	idColumn := s.deps.Loader.IDColumn()
	ids, ok := features.Column(idColumn)
	if !ok {
		return fmt.Errorf("test file %s has no %s column", path, idColumn)
	}
	features.Drop(idColumn, s.deps.Loader.LabelColumn())

	labels, err := s.deps.Classifier.Predict(ctx, features)
	if err != nil {
		return err
	}
	predictions := make([]domain.Prediction, len(labels))
	for i, label := range labels {
		predictions[i] = domain.Prediction{ID: ids.Format(i), Return: label}
	}
	state.SetContext(ContextKeyPredictions, predictions)
	recordRows(ctx, s.deps, state, s.ID(), len(predictions))
	return nil
}

// WriteSubmissionStep writes the predictions as an id,return CSV.
type WriteSubmissionStep struct {
	BaseStep
	deps *Dependencies
}

// NewWriteSubmissionStep creates the submission writing step.
func NewWriteSubmissionStep(deps *Dependencies) *WriteSubmissionStep {
	return &WriteSubmissionStep{
		BaseStep: NewBaseStep(StepIDWriteSubmission, StepNameWriteSubmission, StepIDPredict),
		deps:     deps,
	}
}

// Validate requires a writable output path.
func (s *WriteSubmissionStep) Validate(state *OperationState) error {
	return validateOutputParam(state, s.deps, ContextKeyOutputPath)
}

// Execute writes ContextKeyPredictions.
func (s *WriteSubmissionStep) Execute(ctx context.Context, state *OperationState) error {
	path, err := state.ConfigString(ContextKeyOutputPath)
	if err != nil {
		return err
	}
	predictions, err := ContextValue[[]domain.Prediction](state, ContextKeyPredictions)
	if err != nil {
		return err
	}
	return s.deps.Writer.WriteSubmission(path, predictions)
}
