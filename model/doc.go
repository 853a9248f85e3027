// Package model is the boundary to the trained arrival-delay regressor. The
// model runs out of process; this package only ships the fixed feature
// vector to it and reads back a scalar delay. When the model is absent or
// failing, fusion substitutes its deterministic fallback formula.
package model
