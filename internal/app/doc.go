// Package app wires configuration, logging, telemetry and the lookup store
// into the operation flows run by the command-line tools.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and RETURNS_* variables
//	2. Resolve and create the data, output and log directories
//	3. Initialize the JSON logger and OpenTelemetry providers
//	4. Open the configured lookup store
//
// # Usage
//
//	application, err := app.NewApplication(ctx, app.Options{ConfigPath: path})
//	if err != nil {
//	    slog.Error("Failed to initialize application", slog.String("error", err.Error()))
//	    os.Exit(1)
//	}
//	err = application.Run(operations.OperationTypePredict, params)
//
// # Shutdown
//
// Run stops on SIGINT and SIGTERM. Stop closes the store, flushes the
// metrics textfile and closes the log file. Errors are returned to the
// caller; the package never calls os.Exit.
package app
