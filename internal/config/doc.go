// Package config loads the YAML configuration shared by the ingest and
// server binaries.
//
// Values of the form ${VAR} are expanded from the environment before
// parsing. Missing optional fields are filled by ApplyDefaults and the
// result is checked by Validate.
package config
