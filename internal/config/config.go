package config

import "time"

// Remote drivers accepted in Config.RemoteDriver.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime settings of the sync process.
type Config struct {
	LocalDSN string

	RemoteDriver   string
	RemoteURI      string
	RemoteDatabase string

	// SyncDelay is how long after start the single sync cycle runs.
	SyncDelay time.Duration
	// RemoteTimeout bounds every individual remote call.
	RemoteTimeout time.Duration

	LogFile  string
	LogLevel string

	// UpdateManifestURL enables the update check when non-empty.
	UpdateManifestURL string
	S3Region          string
	S3BaseEndpoint    string
	S3AccessKey       string
	S3SecretKey       string

	// Once runs the cycle synchronously, without delay, and exits.
	Once bool
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.LocalDSN = "file:erp.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	c.RemoteDriver = DriverMongo
	c.RemoteURI = "mongodb://127.0.0.1:27017"
	c.RemoteDatabase = "erp"
	c.SyncDelay = 3 * time.Second
	c.RemoteTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
