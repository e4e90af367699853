package gateway

import (
	"context"
	"fmt"
	"io"

	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/server"
	"github.com/autopeer-io/camlink/internal/sink"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

const serviceName = "camgateway"

type Config struct {
	LinkOptions     *options.LinkOptions
	SessionOptions  *options.SessionOptions
	SerialOptions   *options.SerialOptions
	FileSinkOptions *options.FileSinkOptions
	S3Options       *options.S3Options
	MqttOptions     *options.MqttOptions
	InfluxOptions   *options.InfluxOptions
	HttpOptions     *options.HttpOptions
	GrpcOptions     *options.GrpcOptions
}

// NewGateway opens the radio, the sinks and, when enabled, the relay port.
func (cfg *Config) NewGateway(ctx context.Context) (*Gateway, error) {
	local := cfg.LinkOptions.Local()
	logger := log.WithValues("gateway", local.String())

	sinks, err := sink.Build(ctx, sink.Options{
		File:     cfg.FileSinkOptions,
		S3:       cfg.S3Options,
		Mqtt:     cfg.MqttOptions,
		Influx:   cfg.InfluxOptions,
		Location: cfg.FileSinkOptions.Location(),
	}, serviceName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init sinks: %w", err)
	}

	var (
		writer *relay.Writer
		port   io.ReadWriteCloser
	)
	if cfg.SerialOptions.Enabled {
		port, err = relay.OpenSerial(cfg.SerialOptions)()
		if err != nil {
			_ = sinks.Close(ctx)
			return nil, fmt.Errorf("failed to open relay port %s: %w", cfg.SerialOptions.Port, err)
		}
		writer = relay.NewWriter(port,
			relay.WithWriterTerminators(cfg.SessionOptions.Terminators...),
			relay.WithWriterLogger(logger),
		)
	}

	radio, err := link.ListenUDP(cfg.LinkOptions.Listen, local, logger)
	if err != nil {
		_ = sinks.Close(ctx)
		if port != nil {
			_ = port.Close()
		}
		return nil, fmt.Errorf("failed to open radio: %w", err)
	}

	g := New(Parts{
		Radio:    radio,
		Receiver: receiver.New(cfg.SessionOptions, sinks, receiver.WithLogger(logger)),
		Relay:     writer,
		RelayPort: port,
		Logger:    logger,
	})
	g.Servers = server.NewManager(cfg.HttpOptions, cfg.GrpcOptions, g.Ready)
	return g, nil
}
