// Package config provides configuration loading and defaults for squadpulse.
package config

import "time"

// DefaultConfigDir is the default location for squadpulse configuration.
const DefaultConfigDir = "~/.config/squadpulse"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "squadpulse.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. SQUADPULSE_LOG_LEVEL.
const EnvPrefix = "SQUADPULSE"

// DefaultLog holds the default logging preferences.
var DefaultLog = Log{
	Level: "warn",
	JSON:  false,
}

// DefaultHistory holds how many sessions each analysis looks back over.
var DefaultHistory = History{
	OptimalLimit:  50,
	CohesionLimit: 20,
	HealthLimit:   50,
}

// DefaultEngine holds the default engine tuning.
var DefaultEngine = Engine{
	Timeout: 5 * time.Second,
	Workers: 4,
}

// DefaultCoverage holds the default availability horizon.
var DefaultCoverage = Coverage{
	HorizonDays: 7,
}

// DefaultCache leaves the Redis cache disabled.
var DefaultCache = Cache{
	RedisAddr: "",
	TTL:       5 * time.Minute,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
