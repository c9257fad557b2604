// Package logger provides structured logging for stm-go tooling.
//
//   - logger.go: slog-backed Logger, level control and package defaults
//   - context.go: context propagation of the logger, run IDs and request IDs
//
// The engine in pkg/stm takes a plain *slog.Logger; Logger.Slog bridges the
// two so engine events share the handler, format and dynamic level.
package logger
