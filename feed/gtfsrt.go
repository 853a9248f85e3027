package feed

import (
	"time"

	gtfsrtproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// GTFSRTParser decodes a GTFS-Realtime VehiclePositions feed into the same
// normalized records the SIRI path produces. GTFS-RT carries no per-vehicle
// delay duration, so DelayMinutes is always 0 from this source.
type GTFSRTParser struct {
	LineFilter []string
}

// Parse decodes a VehiclePositions protobuf message. Entities without a
// position are skipped; an undecodable message is a FormatError.
func (p *GTFSRTParser) Parse(payload []byte) ([]VehicleRecord, error) {
	msg := &gtfsrtproto.FeedMessage{}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, &FormatError{Cause: err}
	}

	records := make([]VehicleRecord, 0, len(msg.GetEntity()))
	for _, ent := range msg.GetEntity() {
		vp := ent.GetVehicle()
		if vp == nil {
			continue
		}
		pos := vp.GetPosition()
		if pos == nil {
			continue
		}
		lat := float64(pos.GetLatitude())
		lon := float64(pos.GetLongitude())
		if !validWGS84(lat, lon) {
			continue
		}
		lineRef := vp.GetTrip().GetRouteId()
		if !matchesLineFilter(lineRef, p.LineFilter) {
			continue
		}

		vehicleID := vp.GetVehicle().GetId()
		if vehicleID == "" {
			vehicleID = ent.GetId()
		}
		observed := time.Now().UTC()
		if ts := vp.GetTimestamp(); ts > 0 {
			observed = time.Unix(int64(ts), 0).UTC()
		}

		records = append(records, VehicleRecord{
			VehicleID:   vehicleID,
			LineRef:     lineRef,
			Latitude:    lat,
			Longitude:   lon,
			Bearing:     float64(pos.GetBearing()),
			SpeedKMH:    float64(pos.GetSpeed()) * 3.6,
			NextStopRef: vp.GetStopId(),
			ObservedAt:  observed,
		})
	}
	return records, nil
}
