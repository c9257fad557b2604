// Package values provides ready-made stm.Value implementations for common
// scalar and slice types.
package values
