// Package config loads the fuel extraction configuration.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//	1. Environment variables, FUEL_* (highest priority)
//	2. YAML file named by FUEL_CONFIG_FILE, or fuel-config.yaml when present
//	3. Default values (lowest priority)
//
// Nested sections map to nested prefixes:
//
//	FUEL_SOURCE_KIND=http
//	FUEL_SOURCE_URL=https://docs.google.com/...&output=csv
//	FUEL_EXTRACTION_PRODUCTS=87,91,dsl
//	FUEL_OUTPUT_DIR=out
//	FUEL_LOGGING_LEVEL=debug
//
// # Validation
//
// Load validates the merged result with validator struct tags plus a few
// cross-field checks, and returns a CONFIG AppError on failure.
package config
