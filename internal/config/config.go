package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RETURNS"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Lookup    LookupConfig    `yaml:"lookup" envconfig:"LOOKUP"`
	Prep      PrepConfig      `yaml:"prep" envconfig:"PREP"`
	Training  TrainingConfig  `yaml:"training" envconfig:"TRAINING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LookupConfig names where the aggregate lookup tables live.
type LookupConfig struct {
	Backend     string `yaml:"backend" envconfig:"BACKEND" validate:"oneof=csv sqlite postgres memory"`
	Dir         string `yaml:"dir" envconfig:"DIR" validate:"required_if=Backend csv"`
	SQLitePath  string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required_if=Backend sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN" validate:"required_if=Backend postgres"`
	ExportXLSX  string `yaml:"export_xlsx" envconfig:"EXPORT_XLSX"`
}

// PrepConfig configures the feature transformation stages.
type PrepConfig struct {
	SentinelDate         string `yaml:"sentinel_date" envconfig:"SENTINEL_DATE" validate:"required"`
	MissingColor         string `yaml:"missing_color" envconfig:"MISSING_COLOR" validate:"required"`
	IncludeDaysToDeliver bool   `yaml:"include_days_to_deliver" envconfig:"INCLUDE_DAYS_TO_DELIVER"`
	IncludeSalesClass    bool   `yaml:"include_sales_class" envconfig:"INCLUDE_SALES_CLASS"`
	BatchSize            int    `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"gte=0"`
	Workers              int    `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
}

// TrainingConfig configures the training split and the baseline classifier.
type TrainingConfig struct {
	IDColumn     string  `yaml:"id_column" envconfig:"ID_COLUMN" validate:"required"`
	LabelColumn  string  `yaml:"label_column" envconfig:"LABEL_COLUMN" validate:"required"`
	MaxPrice     float64 `yaml:"max_price" envconfig:"MAX_PRICE" validate:"gt=0"`
	LearningRate float64 `yaml:"learning_rate" envconfig:"LEARNING_RATE" validate:"gt=0"`
	Iterations   int     `yaml:"iterations" envconfig:"ITERATIONS" validate:"gte=1"`
	L2           float64 `yaml:"l2" envconfig:"L2" validate:"gte=0"`
	Threshold    float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lt=1"`
}

// TelemetryConfig controls tracing and the metrics textfile.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first well-known location when path is empty), then RETURNS_*
// environment variables. A .env file in the working directory is read first.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/returns.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "output",
			LogsDir:   "logs",
		},
		Lookup: LookupConfig{
			Backend:    "csv",
			Dir:        "data/lookups",
			SQLitePath: "data/lookups.db",
		},
		Prep: PrepConfig{
			SentinelDate: "1990-12-31",
			MissingColor: "No Color",
			BatchSize:    50000,
			Workers:      4,
		},
		Training: TrainingConfig{
			IDColumn:     "id",
			LabelColumn:  "return",
			MaxPrice:     600,
			LearningRate: 0.1,
			Iterations:   300,
			L2:           0.0001,
			Threshold:    0.5,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "orderreturns",
			TraceExporter: "none",
		},
	}
}
