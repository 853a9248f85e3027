// Package association matches live vehicles to stops and routes.
//
// A vehicle is relevant to a stop when it explicitly reports the stop as its
// next call, or as a fallback when it is simply close enough. Explicit
// next-stop data is sparse in the feed, so proximity fills the gaps. One
// vehicle can therefore appear against two adjacent stops at once; both
// stops legitimately see it approaching.
//
// Route progress snaps a vehicle to the nearest registered waypoint. There
// is no polyline interpolation; a vehicle between waypoints reports the
// closest one and its raw offset from it.
package association
