package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/camlink/cmd/camnode/app/options"
	"github.com/autopeer-io/camlink/pkg/app"
)

const (
	commandName = "camnode"
	commandDesc = `The camlink node runs one wake cycle per process: it syncs the clock when due,
gates capture on the supply voltage, sends the image or a placeholder to the
gateway in radio-sized frames, and suspends until the next wake.`
)

func NewApp() *app.App {
	opts := options.NewNodeOptions()
	application := app.NewApp(
		commandName,
		"Run one camera node wake cycle",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.NodeOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		node, err := cfg.NewNode()
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}

		return node.Run(ctx)
	}
}
