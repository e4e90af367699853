package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

// pointWriter is the blocking write API of the InfluxDB client.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx records one point per image and one per header.
type Influx struct {
	client      influxdb2.Client
	writer      pointWriter
	measurement string
	clock       clock.PassiveClock
	log         log.Logger
}

func NewInflux(opts *options.InfluxOptions, logger log.Logger) *Influx {
	client := influxdb2.NewClient(opts.URL, opts.Token)
	i := newInflux(client.WriteAPIBlocking(opts.Org, opts.Bucket), opts.Measurement, clock.RealClock{}, logger)
	i.client = client
	return i
}

func newInflux(w pointWriter, measurement string, c clock.PassiveClock, logger log.Logger) *Influx {
	return &Influx{writer: w, measurement: measurement, clock: c, log: log.OrStd(logger).WithName("influx-sink")}
}

func (i *Influx) Name() string { return "influx" }

func (i *Influx) Deliver(ctx context.Context, img *transport.Image) error {
	p := influxdb2.NewPoint(
		i.measurement,
		map[string]string{"mac": img.Source.String(), "kind": "image"},
		map[string]any{
			"size":        len(img.Data),
			"hash_ok":     img.HashOK,
			"voltage_pct": int(img.Header.Voltage),
		},
		img.ReceivedAt,
	)
	if err := i.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write image point: %w", err)
	}
	return nil
}

// ObserveHeader records the node's supply. The unknown-voltage sentinel is written as a tag, not a value.
func (i *Influx) ObserveHeader(ctx context.Context, src protocol.MAC, h protocol.Header) error {
	fields := map[string]any{"placeholder": h.IsPlaceholder()}
	known := h.HasVoltage && h.Voltage != protocol.VoltageUnknown
	if known {
		fields["voltage_pct"] = int(h.Voltage)
	}

	p := influxdb2.NewPoint(
		i.measurement,
		map[string]string{"mac": src.String(), "kind": "header", "voltage_known": fmt.Sprint(known)},
		fields,
		i.clock.Now(),
	)
	if err := i.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write header point: %w", err)
	}
	return nil
}

func (i *Influx) Close(context.Context) error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}
