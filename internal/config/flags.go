package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. See the
// package documentation for the list. Durations are given in seconds.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-r", "-u", "-n", "-w", "-t", "-l", "-m", "-once"}, "-once")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LocalDSN, "d", cfg.LocalDSN, "local SQLite DSN")
	fs.StringVar(&cfg.RemoteDriver, "r", cfg.RemoteDriver, "remote driver: mongo, postgres or memory")
	fs.StringVar(&cfg.RemoteURI, "u", cfg.RemoteURI, "remote URI")
	fs.StringVar(&cfg.RemoteDatabase, "n", cfg.RemoteDatabase, "remote database name")
	syncDelay := fs.Int("w", int(cfg.SyncDelay.Seconds()), "delay before the sync cycle (in seconds)")
	remoteTimeout := fs.Int("t", int(cfg.RemoteTimeout.Seconds()), "remote call timeout (in seconds)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.UpdateManifestURL, "m", cfg.UpdateManifestURL, "update manifest URL")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "run one sync cycle and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only explicit flags replace durations, so sub-second JSON values survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			cfg.SyncDelay = time.Duration(*syncDelay) * time.Second
		case "t":
			cfg.RemoteTimeout = time.Duration(*remoteTimeout) * time.Second
		}
	})
}
