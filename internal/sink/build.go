package sink

import (
	"context"
	"time"

	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

// Options selects the sinks of a receiver service.
type Options struct {
	File   *options.FileSinkOptions
	S3     *options.S3Options
	Mqtt   *options.MqttOptions
	Influx *options.InfluxOptions
	// Location names saved files.
	Location *time.Location
}

// Build connects every enabled sink. The order puts storage ahead of notifications,
// so the MQTT event of an image carries its S3 URL.
func Build(ctx context.Context, o Options, service string, logger log.Logger) (*Multi, error) {
	var sinks []Sink

	if o.File != nil && o.File.Dir != "" {
		f, err := NewFile(o.File.Dir, o.Location, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
	}

	if o.S3 != nil && o.S3.Enabled {
		s, err := NewS3(o.S3, logger)
		if err != nil {
			return nil, err
		}
		if err := s.CheckBucket(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if o.Influx != nil && o.Influx.Enabled {
		sinks = append(sinks, NewInflux(o.Influx, logger))
	}

	if o.Mqtt != nil && o.Mqtt.Enabled {
		m, err := NewMQTT(o.Mqtt, service, logger)
		if err != nil {
			return nil, err
		}
		if err := m.Start(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, m)
	}

	return NewMulti(logger, sinks...), nil
}
