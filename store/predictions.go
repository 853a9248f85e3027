package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNoRows reports that a stop has no persisted prediction yet.
var ErrNoRows = errors.New("no prediction rows")

// PredictionRecord is one persisted fusion output. All delay fields are in
// minutes.
type PredictionRecord struct {
	StopID                 string    `json:"stop_id"`
	CrowdCount             int       `json:"crowd_count"`
	TrafficDelayMinutes    float64   `json:"traffic_delay_minutes"`
	DwellDelayMinutes      float64   `json:"dwell_delay_minutes"`
	TotalPredictionMinutes float64   `json:"total_prediction_minutes"`
	Confidence             float64   `json:"confidence"`
	TrafficStatus          string    `json:"traffic_status"`
	VehicleLat             float64   `json:"vehicle_lat"`
	VehicleLon             float64   `json:"vehicle_lon"`
	CreatedAt              time.Time `json:"created_at"`
}

// Aggregates summarizes a stop's prediction history over a time window.
type Aggregates struct {
	StopID            string  `json:"stop_id"`
	PeriodHours       int     `json:"period_hours"`
	AverageCrowd      float64 `json:"average_crowd"`
	MaxCrowd          int     `json:"max_crowd"`
	AverageTraffic    float64 `json:"average_traffic_delay"`
	AverageDwell      float64 `json:"average_dwell_delay"`
	AveragePrediction float64 `json:"average_prediction"`
	TotalRecords      int     `json:"total_records"`
}

// PredictionStore wraps the relational prediction history.
type PredictionStore struct {
	db      *sql.DB
	timeout time.Duration
}

// Open connects to the database and ensures the schema exists.
func Open(dsn string, timeout time.Duration) (*PredictionStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &PredictionStore{db: db, timeout: timeout}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PredictionStore) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prediction_history (
    id               BIGSERIAL PRIMARY KEY,
    bus_stop_id      TEXT NOT NULL,
    crowd_count      INTEGER NOT NULL,
    traffic_delay    DOUBLE PRECISION NOT NULL,
    dwell_delay      DOUBLE PRECISION NOT NULL,
    total_prediction DOUBLE PRECISION NOT NULL,
    confidence       DOUBLE PRECISION NOT NULL,
    traffic_status   TEXT NOT NULL DEFAULT 'Unknown',
    bus_lat          DOUBLE PRECISION NOT NULL,
    bus_lon          DOUBLE PRECISION NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS prediction_history_stop_time_idx
    ON prediction_history (bus_stop_id, created_at DESC);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Insert appends one fusion record.
func (s *PredictionStore) Insert(ctx context.Context, rec PredictionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO prediction_history
    (bus_stop_id, crowd_count, traffic_delay, dwell_delay, total_prediction,
     confidence, traffic_status, bus_lat, bus_lon)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.StopID, rec.CrowdCount, rec.TrafficDelayMinutes, rec.DwellDelayMinutes,
		rec.TotalPredictionMinutes, rec.Confidence, rec.TrafficStatus,
		rec.VehicleLat, rec.VehicleLon)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Latest returns the newest persisted record for a stop, or ErrNoRows.
func (s *PredictionStore) Latest(ctx context.Context, stopID string) (PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT bus_stop_id, crowd_count, traffic_delay, dwell_delay, total_prediction,
       confidence, traffic_status, bus_lat, bus_lon, created_at
FROM prediction_history
WHERE bus_stop_id = $1
ORDER BY created_at DESC
LIMIT 1`, stopID)

	var rec PredictionRecord
	err := row.Scan(&rec.StopID, &rec.CrowdCount, &rec.TrafficDelayMinutes,
		&rec.DwellDelayMinutes, &rec.TotalPredictionMinutes, &rec.Confidence,
		&rec.TrafficStatus, &rec.VehicleLat, &rec.VehicleLon, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PredictionRecord{}, ErrNoRows
	}
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("query latest prediction: %w", err)
	}
	return rec, nil
}

// AggregatesFor summarizes a stop's history over the last `hours` hours.
func (s *PredictionStore) AggregatesFor(ctx context.Context, stopID string, hours int) (Aggregates, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT COALESCE(AVG(crowd_count), 0),
       COALESCE(MAX(crowd_count), 0),
       COALESCE(AVG(traffic_delay), 0),
       COALESCE(AVG(dwell_delay), 0),
       COALESCE(AVG(total_prediction), 0),
       COUNT(*)
FROM prediction_history
WHERE bus_stop_id = $1
  AND created_at > NOW() - ($2 || ' hours')::interval`, stopID, hours)

	agg := Aggregates{StopID: stopID, PeriodHours: hours}
	err := row.Scan(&agg.AverageCrowd, &agg.MaxCrowd, &agg.AverageTraffic,
		&agg.AverageDwell, &agg.AveragePrediction, &agg.TotalRecords)
	if err != nil {
		return Aggregates{}, fmt.Errorf("query aggregates: %w", err)
	}
	return agg, nil
}

// Close releases the database pool.
func (s *PredictionStore) Close() error { return s.db.Close() }
