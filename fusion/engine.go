package fusion

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/theoremus-urban-solutions/transight/metrics"
	"github.com/theoremus-urban-solutions/transight/model"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/store"
	"github.com/theoremus-urban-solutions/transight/traffic"
)

// Dwell time estimates boarding delay from crowd size: a fixed boarding
// overhead plus a per-person cost, reported in minutes.
const (
	baseBoardingSeconds = 30.0
	perPersonSeconds    = 3.0
)

// crowdHighAt is the crowd count above which the level label flips to High.
const crowdHighAt = 10

// TrafficSource provides the traffic signal for a point. Implementations
// never fail; they return a neutral signal instead.
type TrafficSource interface {
	SignalAt(ctx context.Context, lat, lon float64) traffic.Signal
}

// Recorder appends fusion outputs to the prediction history.
type Recorder interface {
	Insert(ctx context.Context, rec store.PredictionRecord) error
}

// VehicleLocator reports the position of the vehicle most relevant to a
// stop, when one is known. Fusion records the stop's own coordinates
// otherwise.
type VehicleLocator interface {
	NearestVehiclePosition(ctx context.Context, stop stops.Stop) (lat, lon float64, ok bool)
}

// Observation is one inbound crowd reading for a stop.
type Observation struct {
	StopID     string `json:"stop_id"`
	CrowdCount int    `json:"crowd_count"`
	IsRaining  bool   `json:"is_raining"`
}

// Result is the outcome of one fusion invocation.
type Result struct {
	StopID                string         `json:"stop_id"`
	StopName              string         `json:"stop_name"`
	CrowdCount            int            `json:"crowd_count"`
	CrowdLevel            string         `json:"crowd_level"`
	TrafficDelayMinutes   float64        `json:"traffic_delay_minutes"`
	DwellDelayMinutes     float64        `json:"dwell_delay_minutes"`
	PredictedDelayMinutes float64        `json:"predicted_delay_minutes"`
	Confidence            float64        `json:"confidence"`
	TrafficStatus         traffic.Status `json:"traffic_status"`
	Method                string         `json:"method"`
	ETA                   time.Time      `json:"eta"`
	Persisted             bool           `json:"persisted"`
}

// Engine runs the fusion pipeline. Concurrent invocations are independent;
// duplicate rows for the same stop are valid observations.
type Engine struct {
	directory *stops.Directory
	traffic   TrafficSource
	predictor model.Predictor
	recorder  Recorder
	locator   VehicleLocator
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewEngine wires the fusion pipeline. recorder and locator may be nil:
// without a recorder results are not persisted, without a locator the stop's
// own coordinates are recorded.
func NewEngine(directory *stops.Directory, trafficSrc TrafficSource, predictor model.Predictor, recorder Recorder, locator VehicleLocator, log *zap.SugaredLogger) *Engine {
	return &Engine{
		directory: directory,
		traffic:   trafficSrc,
		predictor: predictor,
		recorder:  recorder,
		locator:   locator,
		log:       log,
		now:       time.Now,
	}
}

// Fuse runs one invocation for a crowd observation. The only error is
// stops.ErrNotFound for an unknown stop id; every downstream failure
// degrades to its documented default and still yields a result.
func (e *Engine) Fuse(ctx context.Context, obs Observation) (Result, error) {
	stop, err := e.directory.ByID(obs.StopID)
	if err != nil {
		return Result{}, err
	}
	if obs.CrowdCount < 0 {
		obs.CrowdCount = 0
	}

	signal := e.traffic.SignalAt(ctx, stop.Latitude, stop.Longitude)
	dwell := dwellMinutes(obs.CrowdCount)

	predicted, method := e.predict(ctx, obs, signal, dwell)
	total := roundTenth(math.Max(0, predicted))
	confidence := confidenceScore(obs.CrowdCount, signal.Status)
	metrics.Fusions.WithLabelValues(method).Inc()

	res := Result{
		StopID:                obs.StopID,
		StopName:              stop.Name,
		CrowdCount:            obs.CrowdCount,
		CrowdLevel:            crowdLevel(obs.CrowdCount),
		TrafficDelayMinutes:   signal.DelayMinutes,
		DwellDelayMinutes:     roundTenth(dwell),
		PredictedDelayMinutes: total,
		Confidence:            confidence,
		TrafficStatus:         signal.Status,
		Method:                method,
		ETA:                   e.now().Add(time.Duration(total * float64(time.Minute))),
	}
	res.Persisted = e.persist(ctx, stop, res)
	return res, nil
}

func (e *Engine) predict(ctx context.Context, obs Observation, signal traffic.Signal, dwell float64) (float64, string) {
	features := model.Features{
		TrafficDelayMinutes: signal.DelayMinutes,
		CrowdCount:          obs.CrowdCount,
		IsRaining:           obs.IsRaining,
	}
	predicted, err := e.predictor.Predict(ctx, features)
	if err == nil {
		return predicted, "model"
	}
	if !errors.Is(err, model.ErrUnavailable) {
		e.log.Warnw("model prediction failed, using fallback formula", "error", err)
	}
	return signal.DelayMinutes + dwell, "fallback"
}

func (e *Engine) persist(ctx context.Context, stop stops.Stop, res Result) bool {
	if e.recorder == nil {
		return false
	}

	vehLat, vehLon := stop.Latitude, stop.Longitude
	if e.locator != nil {
		if lat, lon, ok := e.locator.NearestVehiclePosition(ctx, stop); ok {
			vehLat, vehLon = lat, lon
		}
	}

	rec := store.PredictionRecord{
		StopID:                 res.StopID,
		CrowdCount:             res.CrowdCount,
		TrafficDelayMinutes:    res.TrafficDelayMinutes,
		DwellDelayMinutes:      res.DwellDelayMinutes,
		TotalPredictionMinutes: res.PredictedDelayMinutes,
		Confidence:             res.Confidence,
		TrafficStatus:          string(res.TrafficStatus),
		VehicleLat:             vehLat,
		VehicleLon:             vehLon,
	}
	if err := e.recorder.Insert(ctx, rec); err != nil {
		metrics.PersistenceFailures.Inc()
		e.log.Errorw("prediction persist failed, returning in-memory result", "stop_id", res.StopID, "error", err)
		return false
	}
	return true
}

// dwellMinutes estimates boarding delay in minutes for a crowd size.
func dwellMinutes(crowdCount int) float64 {
	return (baseBoardingSeconds + perPersonSeconds*float64(crowdCount)) / 60
}

func crowdLevel(crowdCount int) string {
	if crowdCount > crowdHighAt {
		return "High"
	}
	return "Low"
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
