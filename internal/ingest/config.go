package ingest

import (
	"context"
	"fmt"

	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/server"
	"github.com/autopeer-io/camlink/internal/sink"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

const serviceName = "camingest"

type Config struct {
	SessionOptions  *options.SessionOptions
	SerialOptions   *options.SerialOptions
	FileSinkOptions *options.FileSinkOptions
	S3Options       *options.S3Options
	MqttOptions     *options.MqttOptions
	InfluxOptions   *options.InfluxOptions
	HttpOptions     *options.HttpOptions
	GrpcOptions     *options.GrpcOptions
}

// NewIngest connects the sinks. The serial port is opened by Run and reopened on loss.
func (cfg *Config) NewIngest(ctx context.Context) (*Ingest, error) {
	logger := log.WithValues("port", cfg.SerialOptions.Port)

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

	return New(Parts{
		Open:     relay.OpenSerial(cfg.SerialOptions),
		Receiver: receiver.New(cfg.SessionOptions, sinks, receiver.WithLogger(logger)),
		Servers:  server.NewManager(cfg.HttpOptions, cfg.GrpcOptions, nil),
		Logger:   logger,
	}), nil
}
