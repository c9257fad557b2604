// Package connection is the stmctl client for the admin HTTP API.
package connection
