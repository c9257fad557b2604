// Package shutdown coordinates graceful process termination.
//
// Hooks registered with OnShutdown run in reverse registration order once
// SIGINT or SIGTERM arrives or the wait context ends, all bounded by one
// timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("stm", s.Close)
//	err := h.Wait(ctx)
package shutdown
