// Package config loads and validates runtime configuration for hsa-patcher.
//
// Values come from defaults, an optional `config/config.yaml`, HSA_*
// environment variables (dots become underscores, so `merge.strict` is
// HSA_MERGE_STRICT) and finally command-line flags.
package config
