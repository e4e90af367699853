package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/camlink/internal/ingest"
	"github.com/autopeer-io/camlink/pkg/app"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

type IngestOptions struct {
	Session *options.SessionOptions  `json:"session" mapstructure:"session"`
	Serial  *options.SerialOptions   `json:"serial" mapstructure:"serial"`
	File    *options.FileSinkOptions `json:"file" mapstructure:"file"`
	S3      *options.S3Options       `json:"s3" mapstructure:"s3"`
	Mqtt    *options.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	Influx  *options.InfluxOptions   `json:"influx" mapstructure:"influx"`
	Http    *options.HttpOptions     `json:"http" mapstructure:"http"`
	Grpc    *options.GrpcOptions     `json:"grpc" mapstructure:"grpc"`
	Log     *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*IngestOptions)(nil)

func NewIngestOptions() *IngestOptions {
	o := &IngestOptions{
		Session: options.NewSessionOptions(),
		Serial:  options.NewSerialOptions(),
		File:    options.NewFileSinkOptions(),
		S3:      options.NewS3Options(),
		Mqtt:    options.NewMqttOptions(),
		Influx:  options.NewInfluxOptions(),
		Http:    options.NewHttpOptions(),
		Grpc:    options.NewGrpcOptions(),
		Log:     log.NewOptions(),
	}
	o.Http.Addr = "0.0.0.0:8081"

	return o
}

func (o *IngestOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Session.AddFlags(fss.FlagSet("Session"))
	o.Serial.AddFlags(fss.FlagSet("Serial"))
	o.File.AddFlags(fss.FlagSet("File sink"))
	o.S3.AddFlags(fss.FlagSet("S3 sink"))
	o.Mqtt.AddFlags(fss.FlagSet("MQTT sink"))
	o.Influx.AddFlags(fss.FlagSet("Influx sink"))
	o.Http.AddFlags(fss.FlagSet("HTTP"))
	o.Grpc.AddFlags(fss.FlagSet("gRPC"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *IngestOptions) Complete() error {
	return nil
}

func (o *IngestOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.Session.Validate()...)
	errs = append(errs, o.Serial.Validate()...)
	errs = append(errs, o.File.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Influx.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Grpc.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	return utilerrors.NewAggregate(errs)
}

func (o *IngestOptions) LogOptions() *log.Options { return o.Log }

func (o *IngestOptions) Config() (*ingest.Config, error) {
	return &ingest.Config{
		SessionOptions:  o.Session,
		SerialOptions:   o.Serial,
		FileSinkOptions: o.File,
		S3Options:       o.S3,
		MqttOptions:     o.Mqtt,
		InfluxOptions:   o.Influx,
		HttpOptions:     o.Http,
		GrpcOptions:     o.Grpc,
	}, nil
}
