package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/camlink/cmd/camgateway/app/options"
	"github.com/autopeer-io/camlink/pkg/app"
)

const (
	commandName = "camgateway"
	commandDesc = `The camlink gateway receives node frames on the radio link, reassembles one
image per node, and hands every image to the configured sinks. It can relay
each raw frame to a camingest host over a serial line.`
)

func NewApp() *app.App {
	opts := options.NewGatewayOptions()
	application := app.NewApp(
		commandName,
		"Launch a camlink radio gateway",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.GatewayOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		gw, err := cfg.NewGateway(ctx)
		if err != nil {
			return fmt.Errorf("failed to create gateway: %w", err)
		}

		return gw.Run(ctx)
	}
}
