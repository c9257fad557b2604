// Package buildinfo reports version information for stmctl.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/stm-go/internal/infra/buildinfo.Version=v0.3.0"
//
// Missing values fall back to what the Go toolchain embedded in the binary.
package buildinfo
