// Package fusion combines a stop's crowd observation with live traffic and
// the prediction model into one delay estimate per invocation.
//
// An invocation walks a fixed pipeline: resolve the stop, fetch traffic,
// build features, predict, persist. Only the first step can fail the
// invocation (unknown stop). Every later step degrades to a documented
// default: neutral traffic on provider failure, the deterministic dwell
// formula when the model is unavailable, and an in-memory result when the
// store write fails.
package fusion
