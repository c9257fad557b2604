// Package command defines the stmctl commands using urfave/cli/v2.
//
//   - root.go: application, global flags, configuration and logger setup
//   - bank.go: concurrent transfer workload with a conservation check
//   - array.go: ordered or concurrent array mutation scenario
//   - soak.go: long-running workload behind the admin HTTP server
//   - inspect.go: read engine state from a running soak over HTTP
//   - config.go: show and validate configuration
//   - version.go: build information
package command
