// Package traffic queries a flow-segment traffic provider for a point and
// classifies the result into an ordinal congestion status. Provider failure
// always degrades to a neutral signal (0 delay, Unknown) so that fusion can
// proceed.
package traffic
