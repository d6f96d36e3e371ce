// Package config provides configuration loading, validation, and hot-reload
// support for Saturn.
//
// # Overview
//
// Configuration is loaded from a YAML file, defaults are applied for any
// omitted fields, and the result is validated before use. Environment
// variables with the SATURN_ prefix override file values
// (e.g., SATURN_BUDGET_DAILY_LIMIT_USD=25.00).
//
// The loading sequence is:
//
//  1. Parse YAML from file
//  2. Apply default values (ApplyDefaults)
//  3. Apply environment variable overrides (LoadConfigWithEnvOverrides only)
//  4. Validate final configuration (Validate)
//
// Validation collects all problems into a single ValidationError rather
// than failing on the first one, so operators see every misconfigured
// field at once.
//
// # Hot Reload
//
// PricingWatcher watches the configuration file with fsnotify and pushes
// changed pricing rates into a live pricing.Table without a restart. Only
// the pricing section participates in hot reload; budget limits and
// storage settings require a restart.
package config
