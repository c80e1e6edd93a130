// Package config loads runtime configuration for erpsync.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   local SQLite DSN
//	-r string   remote driver: mongo | postgres | memory
//	-u string   remote URI / DSN
//	-n string   remote database name (mongo)
//	-w int      startup delay before the sync cycle (seconds)
//	-t int      per-call remote timeout (seconds)
//	-l string   log file path (rotated)
//	-m string   update manifest URL (http(s):// or s3://bucket/key)
//	-once       run one cycle synchronously and exit
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds. Keys absent from the file keep their defaults.
//
//	{
//	  "local_dsn": "file:erp.db",
//	  "remote_driver": "mongo",
//	  "remote_uri": "mongodb://localhost:27017",
//	  "remote_database": "erp",
//	  "sync_delay": "3s",
//	  "remote_timeout": "10s",
//	  "log_file": "logs/erpsync.log",
//	  "log_level": "info",
//	  "update_manifest_url": "s3://releases/erp/manifest.json",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000/",
//	  "s3_access_key": "admin",
//	  "s3_secret_key": "secret"
//	}
package config
