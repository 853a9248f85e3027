// Package feed fetches and decodes live vehicle-monitoring payloads into
// normalized VehicleRecord values. Two payload kinds are supported: SIRI-VM
// XML datafeeds (bounding-box query, the primary source) and GTFS-Realtime
// VehiclePositions protobuf for agencies that publish GTFS-RT instead.
//
// Malformed individual entries are dropped at the parser boundary; invalid
// records never reach downstream components. Only an unparseable document as
// a whole is reported as a FormatError, which callers handle by falling back
// to their last good data.
package feed
