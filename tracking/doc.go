// Package tracking keeps a short, bounded position history (trail) per
// vehicle. Trails live only in memory for the process lifetime.
package tracking
