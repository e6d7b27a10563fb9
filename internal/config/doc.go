// Package config loads the pipeline configuration.
//
// Values are layered: built-in defaults, then a YAML file (config.yaml,
// configs/config.yaml or the file named by RETURNS_CONFIG), then RETURNS_*
// environment variables, optionally seeded from a .env file. The result is
// checked with struct-tag validation before use.
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	paths, err := cfg.ResolvePaths("")
package config
