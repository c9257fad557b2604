// Package handler implements the admin HTTP endpoints.
//
// Every JSON response uses the Response envelope. Cell values are rendered
// with fmt, so a value type controls its own representation through String.
package handler
