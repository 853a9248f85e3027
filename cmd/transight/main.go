package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/theoremus-urban-solutions/transight/association"
	"github.com/theoremus-urban-solutions/transight/cache"
	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/fusion"
	"github.com/theoremus-urban-solutions/transight/model"
	"github.com/theoremus-urban-solutions/transight/sensor"
	"github.com/theoremus-urban-solutions/transight/server"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/store"
	"github.com/theoremus-urban-solutions/transight/tracking"
	"github.com/theoremus-urban-solutions/transight/traffic"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}

	directory, err := stops.LoadDirectory(cfg.RegistryPath)
	if err != nil {
		log.Fatalw("stop registry load failed", "error", err)
	}
	log.Infow("stop registry loaded",
		"stops", directory.StopCount(), "routes", directory.RouteCount())

	trails := tracking.NewTrailStore(cfg.Tracking.TrailCap)
	feedClient := feed.NewClient(cfg.Feed)
	vehicles := cache.NewVehicleCache(feedClient, trails, cfg.Feed.CacheTTL(), log)
	assoc := association.NewEngine(cfg.Association, trails)
	trafficClient := traffic.NewClient(cfg.Traffic, log)
	predictor := model.NewHTTPPredictor(cfg.Model)
	if !predictor.Configured() {
		log.Warnw("no prediction model configured, fusion will use the fallback formula")
	}

	var predictions *store.PredictionStore
	if cfg.Store.DSN != "" {
		predictions, err = store.Open(cfg.Store.DSN, cfg.Store.Timeout())
		if err != nil {
			// Degraded mode: predictions are computed but not persisted.
			log.Errorw("prediction store unavailable, persistence disabled", "error", err)
			predictions = nil
		} else {
			defer func() { _ = predictions.Close() }()
		}
	}

	locator := &server.VehicleLocator{Vehicles: vehicles, Assoc: assoc}
	var recorder fusion.Recorder
	if predictions != nil {
		recorder = predictions
	}
	engine := fusion.NewEngine(directory, trafficClient, predictor, recorder, locator, log)

	sub, err := sensor.Start(cfg.Sensor, engine, log)
	if err != nil {
		log.Errorw("sensor subscriber failed to start, HTTP updates only", "error", err)
	}
	defer sub.Close()

	srv := server.New(server.Deps{
		Cfg:       cfg,
		Log:       log,
		Directory: directory,
		Vehicles:  vehicles,
		Trails:    trails,
		Assoc:     assoc,
		Fusion:    engine,
		Predictor: predictor,
		Store:     predictions,
	})
	srv.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Infow("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server shutdown error", "error", err)
	} else {
		log.Infow("server shut down successfully")
	}
}
