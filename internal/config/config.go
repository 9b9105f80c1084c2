package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DataPaths  []string
	DBPath     string
	ServerPort string
	LogLevel   string

	BaseK             float64
	SurfaceBleed      float64
	RecencyBoost      float64
	RecencyWindowDays int

	SimWorkers int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DataPaths:         splitPaths(getEnv("DATA_PATHS", "")),
		DBPath:            getEnv("DB_PATH", "acecast.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BaseK:             getEnvFloat("BASE_K", 32.0, logger),
		SurfaceBleed:      getEnvFloat("SURFACE_BLEED", 0.2, logger),
		RecencyBoost:      getEnvFloat("RECENCY_BOOST", 1.10, logger),
		RecencyWindowDays: getEnvInt("RECENCY_WINDOW_DAYS", 365, logger),
		SimWorkers:        getEnvInt("SIM_WORKERS", 0, logger),
	}

	if len(cfg.DataPaths) == 0 {
		return nil, fmt.Errorf("DATA_PATHS is required")
	}

	logger.Info().
		Strs("data_paths", cfg.DataPaths).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Float64("base_k", cfg.BaseK).
		Float64("surface_bleed", cfg.SurfaceBleed).
		Float64("recency_boost", cfg.RecencyBoost).
		Int("recency_window_days", cfg.RecencyWindowDays).
		Int("sim_workers", cfg.SimWorkers).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64, logger zerolog.Logger) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid float in environment, using fallback")
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int, logger zerolog.Logger) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid int in environment, using fallback")
		return fallback
	}
	return n
}

func splitPaths(raw string) []string {
	if raw == "" {
		return nil
	}
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

var Module = fx.Provide(Load)
