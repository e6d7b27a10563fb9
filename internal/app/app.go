package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderreturns/internal/config"
	"orderreturns/internal/dataprocessing"
	"orderreturns/internal/exporter"
	"orderreturns/internal/infrastructure"
	"orderreturns/internal/lookup"
	"orderreturns/internal/model"
	"orderreturns/internal/operations"
	"orderreturns/internal/validation"
)

const (
	AppName         = "Order Returns"
	ShutdownTimeout = 10 * time.Second
)

// Options select the configuration of an Application.
type Options struct {
	ConfigPath string
	// BaseDir anchors relative paths. Empty means the working directory.
	BaseDir string
}

// Application holds the components shared by every command.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         lookup.Store
	Tracer        *operations.OperationTracer
}

// NewApplication loads configuration and wires logging, telemetry and the lookup store.
func NewApplication(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := cfg.ResolvePaths(opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.String("lookup_backend", cfg.Lookup.Backend))
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	tracer, err := operations.NewOperationTracer(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation tracer: %w", err)
	}

	lookupCfg := cfg.Lookup
	lookupCfg.Dir = paths.LookupDir
	store, err := lookup.Open(ctx, lookupCfg, logger)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open lookup store: %w", err)
	}

	return &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Store:         store,
		Tracer:        tracer,
	}, nil
}

// Dependencies builds the step collaborators from the configuration.
func (a *Application) Dependencies() *operations.Dependencies {
	prep := a.Config.Prep
	training := a.Config.Training
	return &operations.Dependencies{
		Logger:     a.Logger,
		Loader:     dataprocessing.NewTrainingSetLoader(a.Logger, training.IDColumn, training.LabelColumn),
		History:    dataprocessing.NewHistoryAggregator(a.Logger, training.LabelColumn),
		SalesClass: dataprocessing.NewSalesClassAggregator(a.Logger),
		Store:      a.Store,
		Writer:     exporter.NewCSVWriter("", a.Logger),
		Workbook:   exporter.NewWorkbookExporter(a.Logger),
		Transformer: dataprocessing.TransformerOptions{
			SentinelDate:         prep.SentinelDate,
			MissingColor:         prep.MissingColor,
			IncludeDaysToDeliver: prep.IncludeDaysToDeliver,
			IncludeSalesClass:    prep.IncludeSalesClass,
			BatchSize:            prep.BatchSize,
			Workers:              prep.Workers,
		},
		Classifier: model.NewBaselineClassifier(model.Options{
			LearningRate: training.LearningRate,
			Iterations:   training.Iterations,
			L2:           training.L2,
			Threshold:    training.Threshold,
		}, a.Logger),
		Files:    validation.NewFileValidator(a.Logger),
		MaxPrice: training.MaxPrice,
		Metrics:  a.Tracer.Metrics(),
	}
}

// BuildFlow returns the step registry for an operation type.
func (a *Application) BuildFlow(operationType string) (*operations.Registry, error) {
	deps := a.Dependencies()
	switch operationType {
	case operations.OperationTypeAggregate:
		return operations.NewAggregateFlow(deps)
	case operations.OperationTypePrepare:
		return operations.NewPrepareFlow(deps)
	case operations.OperationTypePredict:
		return operations.NewPredictFlow(deps)
	default:
		return nil, fmt.Errorf("unknown operation type %q", operationType)
	}
}

// Execute runs one operation to completion.
func (a *Application) Execute(ctx context.Context, operationType string, params map[string]interface{}) (*operations.OperationResponse, error) {
	registry, err := a.BuildFlow(operationType)
	if err != nil {
		return nil, err
	}
	manager := operations.NewManager(registry, operations.NewConfig(), a.Logger)
	manager.SetTracer(a.Tracer)

	resp, err := manager.Execute(ctx, operations.OperationRequest{
		Type:       operationType,
		Parameters: params,
	})
	if err != nil {
		return resp, err
	}
	a.Logger.InfoContext(ctx, "Operation finished",
		slog.String("operation_id", resp.ID),
		slog.String("type", operationType),
		slog.Duration("duration", resp.Duration))
	return resp, nil
}

// Run executes an operation until it finishes or SIGINT/SIGTERM arrives, then stops the application.
func (a *Application) Run(operationType string, params map[string]interface{}) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := a.Execute(ctx, operationType, params)
	if stopErr := a.Stop(context.Background()); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

// Stop closes the lookup store, flushes telemetry and closes the log file.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to close lookup store", slog.String("error", err.Error()))
			firstErr = err
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to shutdown OpenTelemetry", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.Logger.InfoContext(ctx, "Application stopped")
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
