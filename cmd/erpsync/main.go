package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/erpsync/internal/app"
	"github.com/dmitrijs2005/erpsync/internal/buildinfo"
	"github.com/dmitrijs2005/erpsync/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	runErr := a.Run(ctx)

	if err := a.Close(context.Background()); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}
}
