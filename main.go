package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kon-Geo/librespot-downloader/spotdl/app"
)

func main() {
	configPath := flag.String("c", "config.ini", "path to the config file")
	flag.Parse()

	albumIDs := flag.Args()
	if len(albumIDs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: librespot-downloader [-c config.ini] <album-id> [album-id ...]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runErr := application.Run(ctx, albumIDs)
	if err := application.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
