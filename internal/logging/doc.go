// Package logging configures slog output for autopress and standardizes the
// structured field names used across the pipeline.
package logging
