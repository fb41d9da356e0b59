// Package config loads, validates, and normalizes autopress configuration.
//
// Configuration lives in a TOML file resolved from an explicit path, the
// user config directory, or an autopress.toml in the working directory.
// Defaults are applied before decoding so a missing file still yields a
// usable draft-only configuration.
package config
