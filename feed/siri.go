package feed

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// siriDocument mirrors the subset of a SIRI-VM datafeed response the engine
// consumes. Unknown elements are ignored by the decoder.
type siriDocument struct {
	XMLName         xml.Name `xml:"Siri"`
	ServiceDelivery struct {
		ResponseTimestamp         string `xml:"ResponseTimestamp"`
		VehicleMonitoringDelivery struct {
			VehicleActivity []siriVehicleActivity `xml:"VehicleActivity"`
		} `xml:"VehicleMonitoringDelivery"`
	} `xml:"ServiceDelivery"`
}

type siriVehicleActivity struct {
	RecordedAtTime          string `xml:"RecordedAtTime"`
	MonitoredVehicleJourney struct {
		LineRef         string `xml:"LineRef"`
		OperatorRef     string `xml:"OperatorRef"`
		OriginName      string `xml:"OriginName"`
		DestinationName string `xml:"DestinationName"`
		VehicleLocation struct {
			Longitude string `xml:"Longitude"`
			Latitude  string `xml:"Latitude"`
		} `xml:"VehicleLocation"`
		Bearing       string `xml:"Bearing"`
		Velocity      string `xml:"Velocity"`
		Delay         string `xml:"Delay"`
		VehicleRef    string `xml:"VehicleRef"`
		MonitoredCall struct {
			StopPointRef        string `xml:"StopPointRef"`
			ExpectedArrivalTime string `xml:"ExpectedArrivalTime"`
		} `xml:"MonitoredCall"`
	} `xml:"MonitoredVehicleJourney"`
}

// SIRIParser decodes SIRI-VM XML documents. LineFilter, when non-empty, is a
// prefix allowlist applied per entry.
type SIRIParser struct {
	LineFilter []string
}

// Parse decodes one datafeed document into vehicle records. Entries missing
// a mandatory position are skipped; a document that is not well-formed XML
// fails the whole parse with a FormatError.
func (p *SIRIParser) Parse(payload []byte) ([]VehicleRecord, error) {
	var doc siriDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, &FormatError{Cause: err}
	}

	activities := doc.ServiceDelivery.VehicleMonitoringDelivery.VehicleActivity
	records := make([]VehicleRecord, 0, len(activities))
	for _, va := range activities {
		rec, ok := p.normalize(va)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *SIRIParser) normalize(va siriVehicleActivity) (VehicleRecord, bool) {
	mvj := va.MonitoredVehicleJourney

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(mvj.VehicleLocation.Latitude), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(mvj.VehicleLocation.Longitude), 64)
	if errLat != nil || errLon != nil || !validWGS84(lat, lon) {
		return VehicleRecord{}, false
	}
	if !matchesLineFilter(mvj.LineRef, p.LineFilter) {
		return VehicleRecord{}, false
	}

	vehicleID := mvj.VehicleRef
	if vehicleID == "" {
		// Some operators omit VehicleRef; fall back to line+operator so the
		// record still keys into the cache map.
		vehicleID = mvj.OperatorRef + "-" + mvj.LineRef
	}

	rec := VehicleRecord{
		VehicleID:       vehicleID,
		LineRef:         mvj.LineRef,
		OperatorRef:     mvj.OperatorRef,
		Latitude:        lat,
		Longitude:       lon,
		OriginName:      mvj.OriginName,
		DestinationName: mvj.DestinationName,
		NextStopRef:     mvj.MonitoredCall.StopPointRef,
		DelayMinutes:    parseDurationMinutes(mvj.Delay),
		ObservedAt:      parseSIRITime(va.RecordedAtTime),
	}
	if b, err := strconv.ParseFloat(strings.TrimSpace(mvj.Bearing), 64); err == nil {
		rec.Bearing = b
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(mvj.Velocity), 64); err == nil {
		// SIRI Velocity is meters per second.
		rec.SpeedKMH = v * 3.6
	}
	if t, err := time.Parse(time.RFC3339, mvj.MonitoredCall.ExpectedArrivalTime); err == nil {
		rec.ExpectedArrival = t
	}
	return rec, true
}

func parseSIRITime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// parseDurationMinutes converts an ISO-8601 duration string ("PT4M30S",
// "-PT2M") to whole minutes. Unparsable strings default to 0.
func parseDurationMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	if !strings.HasPrefix(s, "PT") {
		return 0
	}
	s = s[2:]

	var totalSec float64
	num := ""
	for _, r := range s {
		switch {
		case (r >= '0' && r <= '9') || r == '.':
			num += string(r)
		case r == 'H' || r == 'M' || r == 'S':
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0
			}
			switch r {
			case 'H':
				totalSec += v * 3600
			case 'M':
				totalSec += v * 60
			case 'S':
				totalSec += v
			}
			num = ""
		default:
			return 0
		}
	}
	return sign * int(totalSec/60)
}

func validWGS84(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
