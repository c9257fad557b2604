// Package output renders command results for stmctl.
//
//   - formatter.go: Formatter interface and format selection
//   - table.go: aligned text tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable encodings
//   - progress.go: a single-line progress indicator for long runs
package output
