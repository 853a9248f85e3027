package feed

import "time"

// VehicleRecord is one normalized live-vehicle observation. A record is
// created fresh on every successful parse; no field carries over from a
// previous snapshot of the same vehicle.
type VehicleRecord struct {
	VehicleID       string    `json:"vehicle_id"`
	LineRef         string    `json:"line_ref"`
	OperatorRef     string    `json:"operator_ref,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Bearing         float64   `json:"bearing,omitempty"`
	SpeedKMH        float64   `json:"speed_kmh,omitempty"`
	DelayMinutes    int       `json:"delay_minutes"`
	OriginName      string    `json:"origin_name,omitempty"`
	DestinationName string    `json:"destination_name,omitempty"`
	NextStopRef     string    `json:"next_stop_ref,omitempty"`
	ExpectedArrival time.Time `json:"expected_arrival,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}

// matchesLineFilter applies the optional route allowlist. An empty allowlist
// keeps everything; otherwise a record survives when its line ref equals or
// starts with any configured prefix.
func matchesLineFilter(lineRef string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, p := range allow {
		if p == "" {
			continue
		}
		if lineRef == p || (len(lineRef) > len(p) && lineRef[:len(p)] == p) {
			return true
		}
	}
	return false
}
