package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/fusion"
	"github.com/theoremus-urban-solutions/transight/stops"
)

// fuseTimeout bounds one fusion run triggered by a sensor message.
const fuseTimeout = 15 * time.Second

// Subscriber consumes crowd observations from NATS and feeds them to the
// fusion engine.
type Subscriber struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	engine *fusion.Engine
	log    *zap.SugaredLogger
}

// Start connects and subscribes. An empty NATS URL returns (nil, nil): the
// subscriber is optional.
func Start(cfg config.SensorConfig, engine *fusion.Engine, log *zap.SugaredLogger) (*Subscriber, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	s := &Subscriber{conn: conn, engine: engine, log: log}
	sub, err := conn.Subscribe(cfg.Subject, s.handle)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.sub = sub
	log.Infow("sensor subscriber started", "subject", cfg.Subject)
	return s, nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	var obs fusion.Observation
	if err := json.Unmarshal(msg.Data, &obs); err != nil {
		s.log.Warnw("dropping malformed sensor message", "subject", msg.Subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fuseTimeout)
	defer cancel()

	res, err := s.engine.Fuse(ctx, obs)
	if err != nil {
		if errors.Is(err, stops.ErrNotFound) {
			s.log.Warnw("sensor message for unknown stop", "stop_id", obs.StopID)
			return
		}
		s.log.Errorw("sensor fusion failed", "stop_id", obs.StopID, "error", err)
		return
	}
	s.log.Infow("sensor fusion complete",
		"stop_id", res.StopID,
		"crowd_count", res.CrowdCount,
		"predicted_delay_minutes", res.PredictedDelayMinutes,
		"method", res.Method,
	)
}

// Close drains the subscription and closes the connection.
func (s *Subscriber) Close() {
	if s == nil {
		return
	}
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.conn.Close()
}
