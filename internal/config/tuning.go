package config

import "runtime"

// Tuning holds buffer and pool sizes.
type Tuning struct {
	EventRetention   int `yaml:"event_retention" json:"event_retention"` // events kept in memory
	BroadcastBuffer  int `yaml:"broadcast_buffer" json:"broadcast_buffer"`
	ClientSendBuffer int `yaml:"client_send_buffer" json:"client_send_buffer"`

	DBMaxOpenConns int `yaml:"db_max_open_conns" json:"db_max_open_conns"`
	DBMaxIdleConns int `yaml:"db_max_idle_conns" json:"db_max_idle_conns"`

	MaxClients int `yaml:"max_clients" json:"max_clients"`
}

// DefaultTuning returns sensible defaults for production.
func DefaultTuning() Tuning {
	numCPU := runtime.NumCPU()

	return Tuning{
		EventRetention:   1024,
		BroadcastBuffer:  256,
		ClientSendBuffer: 64,

		// SQLite serializes writers anyway
		DBMaxOpenConns: min(numCPU, 4),
		DBMaxIdleConns: 2,

		MaxClients: 200,
	}
}

// StressTestTuning returns aggressive settings for load runs with cmd/petbot.
func StressTestTuning() Tuning {
	numCPU := runtime.NumCPU()

	return Tuning{
		EventRetention:   4096,
		BroadcastBuffer:  1024,
		ClientSendBuffer: 256,

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		MaxClients: 1000,
	}
}

// LowResourceTuning returns minimal settings for development.
func LowResourceTuning() Tuning {
	return Tuning{
		EventRetention:   128,
		BroadcastBuffer:  16,
		ClientSendBuffer: 8,

		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,

		MaxClients: 10,
	}
}

// TuningPreset maps "stress" and "low" to their presets; anything else is the default.
func TuningPreset(name string) Tuning {
	switch name {
	case "stress":
		return StressTestTuning()
	case "low":
		return LowResourceTuning()
	default:
		return DefaultTuning()
	}
}
