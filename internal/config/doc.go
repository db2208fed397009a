// Package config provides centralized configuration for the SDK: built-in
// network constants, the per-network contract registry, protocol toggles,
// and layering of YAML files with MANTRA_* environment variables. The
// Manager tracks the active network and supports runtime switching.
package config
