// Package store persists fusion outputs to the prediction_history table.
// Rows are append-only; one row per fusion invocation. The store is a
// boundary: a write failure is reported but never blocks returning the
// computed prediction.
package store
