// Package config defines the runtime configuration for meridian.
//
// Configuration loads from a YAML file, gets defaults applied, then
// environment variable overrides (MERIDIAN_SECTION_FIELD), and is
// validated before use. Environment variables always take precedence
// over file values.
package config
