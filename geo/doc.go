// Package geo provides great-circle distance and bounding-box helpers used
// across the tracking and association layers. All coordinates are WGS84
// degrees; distances are kilometers.
package geo
