package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration. A .env file, when
// present, is folded into the environment first; secrets (API keys, DSN,
// NATS URL) may be supplied there instead of in config.yml.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	paths := []string{path, "config.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("TRANSIGHT_FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("TRANSIGHT_TRAFFIC_API_KEY"); v != "" {
		cfg.Traffic.APIKey = v
	}
	if v := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN")); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Sensor.NATSURL = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Feed.Kind == "" {
		cfg.Feed.Kind = "siri-vm"
	}
	if cfg.Sensor.Subject == "" {
		cfg.Sensor.Subject = "transight.sensor.>"
	}
	if cfg.Association.ProximityKM == 0 {
		cfg.Association.ProximityKM = 2.5
	}
	if cfg.Association.MinSpeedKMH == 0 {
		cfg.Association.MinSpeedKMH = 15
	}
	if cfg.Association.OnRouteKM == 0 {
		cfg.Association.OnRouteKM = 0.5
	}
	if cfg.Tracking.TrailCap == 0 {
		cfg.Tracking.TrailCap = 20
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
