package feed

import (
	"errors"
	"math"
	"testing"
)

const sampleSIRI = `<?xml version="1.0" encoding="UTF-8"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">
  <ServiceDelivery>
    <ResponseTimestamp>2025-03-01T10:00:00Z</ResponseTimestamp>
    <VehicleMonitoringDelivery>
      <VehicleActivity>
        <RecordedAtTime>2025-03-01T10:00:00Z</RecordedAtTime>
        <MonitoredVehicleJourney>
          <LineRef>72</LineRef>
          <OperatorRef>FBRI</OperatorRef>
          <OriginName>Frenchay Campus</OriginName>
          <DestinationName>Temple Meads</DestinationName>
          <VehicleLocation>
            <Longitude>-2.5880</Longitude>
            <Latitude>51.4545</Latitude>
          </VehicleLocation>
          <Bearing>180</Bearing>
          <Velocity>10</Velocity>
          <Delay>PT4M30S</Delay>
          <VehicleRef>BUS-101</VehicleRef>
          <MonitoredCall>
            <StopPointRef>0100BRP90340</StopPointRef>
            <ExpectedArrivalTime>2025-03-01T10:06:00Z</ExpectedArrivalTime>
          </MonitoredCall>
        </MonitoredVehicleJourney>
      </VehicleActivity>
      <VehicleActivity>
        <RecordedAtTime>2025-03-01T10:00:00Z</RecordedAtTime>
        <MonitoredVehicleJourney>
          <LineRef>10</LineRef>
          <OperatorRef>FBRI</OperatorRef>
          <VehicleLocation>
            <Longitude>-2.5700</Longitude>
            <Latitude>51.4950</Latitude>
          </VehicleLocation>
        </MonitoredVehicleJourney>
      </VehicleActivity>
      <VehicleActivity>
        <RecordedAtTime>2025-03-01T10:00:00Z</RecordedAtTime>
        <MonitoredVehicleJourney>
          <LineRef>15</LineRef>
          <OperatorRef>FBRI</OperatorRef>
          <VehicleRef>BUS-303</VehicleRef>
        </MonitoredVehicleJourney>
      </VehicleActivity>
    </VehicleMonitoringDelivery>
  </ServiceDelivery>
</Siri>`

func TestSIRIParse(t *testing.T) {
	p := &SIRIParser{}
	records, err := p.Parse([]byte(sampleSIRI))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// The third activity has no position and must be skipped.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	rec := records[0]
	if rec.VehicleID != "BUS-101" {
		t.Errorf("VehicleID = %q, want BUS-101", rec.VehicleID)
	}
	if rec.LineRef != "72" || rec.OperatorRef != "FBRI" {
		t.Errorf("line/operator = %q/%q", rec.LineRef, rec.OperatorRef)
	}
	if rec.Latitude != 51.4545 || rec.Longitude != -2.5880 {
		t.Errorf("position = %v,%v", rec.Latitude, rec.Longitude)
	}
	if rec.NextStopRef != "0100BRP90340" {
		t.Errorf("NextStopRef = %q", rec.NextStopRef)
	}
	// Velocity is m/s on the wire.
	if math.Abs(rec.SpeedKMH-36.0) > 1e-9 {
		t.Errorf("SpeedKMH = %v, want 36", rec.SpeedKMH)
	}
	if rec.DelayMinutes != 4 {
		t.Errorf("DelayMinutes = %d, want 4", rec.DelayMinutes)
	}
	if rec.ExpectedArrival.IsZero() {
		t.Error("ExpectedArrival not parsed")
	}
	if rec.ObservedAt.Hour() != 10 {
		t.Errorf("ObservedAt = %v", rec.ObservedAt)
	}
}

func TestSIRIParseVehicleRefFallback(t *testing.T) {
	p := &SIRIParser{}
	records, err := p.Parse([]byte(sampleSIRI))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// Second activity carries no VehicleRef.
	if records[1].VehicleID != "FBRI-10" {
		t.Errorf("VehicleID = %q, want operator-line fallback FBRI-10", records[1].VehicleID)
	}
}

func TestSIRIParseLineFilter(t *testing.T) {
	p := &SIRIParser{LineFilter: []string{"72"}}
	records, err := p.Parse([]byte(sampleSIRI))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].LineRef != "72" {
		t.Errorf("filtered records = %+v, want only line 72", records)
	}
}

func TestSIRIParseMalformed(t *testing.T) {
	p := &SIRIParser{}
	_, err := p.Parse([]byte("this is not xml <<<"))
	if err == nil {
		t.Fatal("Parse() = nil error on garbage input")
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("error = %T, want *FormatError", err)
	}
}

func TestSIRIParseBadCoordinatesSkipped(t *testing.T) {
	doc := `<Siri><ServiceDelivery><VehicleMonitoringDelivery>
      <VehicleActivity>
        <MonitoredVehicleJourney>
          <LineRef>72</LineRef>
          <VehicleLocation><Longitude>-200.0</Longitude><Latitude>51.45</Latitude></VehicleLocation>
          <VehicleRef>BUS-1</VehicleRef>
        </MonitoredVehicleJourney>
      </VehicleActivity>
    </VehicleMonitoringDelivery></ServiceDelivery></Siri>`
	p := &SIRIParser{}
	records, err := p.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("record with out-of-range longitude kept: %+v", records)
	}
}

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT4M30S", 4},
		{"PT30S", 0},
		{"PT1H5M", 65},
		{"-PT2M", -2},
		{"PT0S", 0},
		{"", 0},
		{"garbage", 0},
		{"P1D", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseDurationMinutes(tt.in); got != tt.want {
				t.Errorf("parseDurationMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchesLineFilter(t *testing.T) {
	tests := []struct {
		name    string
		lineRef string
		allow   []string
		want    bool
	}{
		{"empty allowlist keeps all", "99", nil, true},
		{"exact match", "72", []string{"72"}, true},
		{"prefix match", "72A", []string{"72"}, true},
		{"no match", "10", []string{"72"}, false},
		{"empty prefix ignored", "10", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesLineFilter(tt.lineRef, tt.allow); got != tt.want {
				t.Errorf("matchesLineFilter(%q, %v) = %v, want %v", tt.lineRef, tt.allow, got, tt.want)
			}
		})
	}
}
