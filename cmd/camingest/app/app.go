package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/camlink/cmd/camingest/app/options"
	"github.com/autopeer-io/camlink/pkg/app"
)

const (
	commandName = "camingest"
	commandDesc = `The camlink ingest service reads the envelope stream a gateway relays over
serial, reassembles one image per node, and hands every image to the
configured sinks. A lost serial port is reopened until shutdown.`
)

func NewApp() *app.App {
	opts := options.NewIngestOptions()
	application := app.NewApp(
		commandName,
		"Launch a camlink serial ingest service",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.IngestOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		in, err := cfg.NewIngest(ctx)
		if err != nil {
			return fmt.Errorf("failed to create ingest service: %w", err)
		}

		return in.Run(ctx)
	}
}
