// Command erpupdate applies a staged update archive once the client has
// exited:
//
//	erpupdate [-wait 3s] <target_dir> <archive.zip>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/buildinfo"
	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/updater"
)

func main() {
	wait := flag.Duration("wait", 3*time.Second, "time to let the client exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-wait 3s] <target_dir> <archive.zip>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	target, archive := flag.Arg(0), flag.Arg(1)

	logger, closer := logging.New(logging.Options{Level: slog.LevelInfo})
	defer closer.Close()

	ctx := context.Background()

	if _, err := os.Stat(archive); err != nil {
		log.Fatalf("update archive: %v", err)
	}

	logger.Info(ctx, "waiting for the client to exit", "wait", *wait, "version", buildinfo.Current())
	time.Sleep(*wait)

	if err := updater.Apply(ctx, logger, archive, target); err != nil {
		log.Fatalf("update failed: %v", err)
	}
}
