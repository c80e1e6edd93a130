package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/erpsync/internal/flagx"
	"github.com/dmitrijs2005/erpsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" apart from "empty".
type JsonConfig struct {
	LocalDSN          *string         `json:"local_dsn"`
	RemoteDriver      *string         `json:"remote_driver"`
	RemoteURI         *string         `json:"remote_uri"`
	RemoteDatabase    *string         `json:"remote_database"`
	SyncDelay         *timex.Duration `json:"sync_delay"`
	RemoteTimeout     *timex.Duration `json:"remote_timeout"`
	LogFile           *string         `json:"log_file"`
	LogLevel          *string         `json:"log_level"`
	UpdateManifestURL *string         `json:"update_manifest_url"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	S3AccessKey       *string         `json:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the file named by -c/-config. It panics on
// read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.LocalDSN, jc.LocalDSN)
	setString(&cfg.RemoteDriver, jc.RemoteDriver)
	setString(&cfg.RemoteURI, jc.RemoteURI)
	setString(&cfg.RemoteDatabase, jc.RemoteDatabase)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.UpdateManifestURL, jc.UpdateManifestURL)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.SyncDelay != nil {
		cfg.SyncDelay = jc.SyncDelay.Duration
	}
	if jc.RemoteTimeout != nil {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
