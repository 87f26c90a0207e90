package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides cfg with PET_* environment variables.
// Unset or unparsable variables leave the current value alone.
func ApplyEnv(cfg Config) Config {
	if mode := os.Getenv("PET_TUNING"); mode != "" {
		cfg.Tuning = TuningPreset(mode)
	}

	if val := os.Getenv("PET_LISTEN_ADDR"); val != "" {
		cfg.ListenAddr = val
	}
	if val := os.Getenv("PET_DB_PATH"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("PET_LOCALE"); val != "" {
		cfg.Locale = val
	}
	if val := os.Getenv("PET_MONSTER_NAME"); val != "" {
		cfg.MonsterName = val
	}
	if val, ok := getEnvInt64("PET_SEED"); ok {
		cfg.Seed = val
	}
	if val, ok := getEnvDuration("PET_TICK_INTERVAL"); ok {
		cfg.Simulation.TickInterval = val
	}
	if val, ok := getEnvDuration("PET_ACTION_DURATION"); ok {
		cfg.Simulation.ActionDuration = val
	}
	if val, ok := getEnvDuration("PET_NOTICE_TTL"); ok {
		cfg.Simulation.NoticeTTL = val
	}
	if val, ok := getEnvDuration("PET_RATE_LIMIT"); ok {
		cfg.Network.RateLimit = val
	}

	return cfg
}

func getEnvInt64(key string) (int64, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

func getEnvDuration(key string) (time.Duration, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}
