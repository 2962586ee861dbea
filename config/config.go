// Package config defines cmd/collabd's startup configuration: a flag set
// bound to a struct, parsed with github.com/peterbourgon/ff/v4 so every
// flag can also be set by an environment variable — the same
// BindFlags/ff.Parse split the teacher's wider ecosystem uses for its
// daemon, layered over the teacher's own bare flag.FlagSet.
package config

import "flag"

// Config holds every daemon-level setting.
type Config struct {
	Addr               string
	LogLevel           string
	SnapshotBackend    string // "memory" or "firestore"
	FirestoreProject   string
	SnapshotInterval   string // parsed with time.ParseDuration by the caller
	MetricsAddr        string
	CacheFlushInterval string // parsed with time.ParseDuration by the caller; firestore backend only
}

// Default returns the configuration's zero-value-safe defaults.
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		LogLevel:           "info",
		SnapshotBackend:    "memory",
		SnapshotInterval:   "30s",
		MetricsAddr:        ":9090",
		CacheFlushInterval: "5s",
	}
}

// BindFlags registers every field of c onto fs, following ff/v4's
// convention of binding directly into the struct's fields so a later
// ff.Parse(fs, args, ff.WithEnvVarPrefix(...)) populates c from either
// flags or environment variables without a separate mapping step.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP/WebSocket listen address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "zap log level (debug, info, warn, error)")
	fs.StringVar(&c.SnapshotBackend, "snapshot-backend", c.SnapshotBackend, "snapshot store backend: memory or firestore")
	fs.StringVar(&c.FirestoreProject, "firestore-project", c.FirestoreProject, "GCP project id, required when snapshot-backend=firestore")
	fs.StringVar(&c.SnapshotInterval, "snapshot-interval", c.SnapshotInterval, "how often to snapshot live documents")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "listen address for the /metrics endpoint")
	fs.StringVar(&c.CacheFlushInterval, "cache-flush-interval", c.CacheFlushInterval, "write-behind flush interval for the firestore snapshot cache")
}
