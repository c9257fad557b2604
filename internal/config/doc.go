// Package config defines the stmctl configuration.
//
//   - spec.go: the configuration tree and its koanf tags
//   - default.go: built-in defaults
//   - verify.go: validation
//   - engine.go: mapping onto stm options and workload settings
package config
