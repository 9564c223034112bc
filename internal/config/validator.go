// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` once secrets are
// resolved.  Any tag mismatch or validation error aborts startup, so the
// binary never runs with partial, malformed, or missing configuration.
//
// Rules in use: `required`, `hostname_port` for the listen address, `url`
// plus `startswith=https://` for the endpoint (submissions only travel over
// TLS), `min=32` for signing keys, and `oneof` for the log level.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
