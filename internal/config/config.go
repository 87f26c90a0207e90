// Package config loads server settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string `yaml:"listen_addr" json:"listen_addr"`
	DBPath      string `yaml:"db_path" json:"db_path"`
	Locale      string `yaml:"locale" json:"locale"`
	MonsterName string `yaml:"monster_name" json:"monster_name"`
	Seed        int64  `yaml:"seed" json:"seed"` // 0 picks a time-based seed

	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Network    Network    `yaml:"network" json:"network"`
	Tuning     Tuning     `yaml:"tuning" json:"tuning"`
}

type Simulation struct {
	TickInterval   time.Duration `yaml:"tick_interval" json:"tick_interval"`
	ActionDuration time.Duration `yaml:"action_duration" json:"action_duration"` // 0 disables the in-flight guard
	NoticeTTL      time.Duration `yaml:"notice_ttl" json:"notice_ttl"`
}

type Network struct {
	RateLimit time.Duration `yaml:"rate_limit" json:"rate_limit"` // minimum gap between actions per client
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		DBPath:      "data/pet.db",
		Locale:      "th",
		MonsterName: "Mon",
		Simulation: Simulation{
			TickInterval:   3 * time.Second,
			ActionDuration: 1 * time.Second,
			NoticeTTL:      2 * time.Second,
		},
		Network: Network{
			RateLimit: 250 * time.Millisecond,
		},
		Tuning: DefaultTuning(),
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg = ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive, got %s", c.Simulation.TickInterval)
	}
	if c.Simulation.ActionDuration < 0 {
		return fmt.Errorf("simulation.action_duration must not be negative, got %s", c.Simulation.ActionDuration)
	}
	if c.Simulation.NoticeTTL <= 0 {
		return fmt.Errorf("simulation.notice_ttl must be positive, got %s", c.Simulation.NoticeTTL)
	}
	if c.Network.RateLimit < 0 {
		return fmt.Errorf("network.rate_limit must not be negative, got %s", c.Network.RateLimit)
	}
	if c.MonsterName == "" {
		return errors.New("monster_name must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}
