package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/camlink/internal/camnode"
	"github.com/autopeer-io/camlink/pkg/app"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

type NodeOptions struct {
	Node     *options.NodeOptions     `json:"node" mapstructure:"node"`
	Link     *options.LinkOptions     `json:"link" mapstructure:"link"`
	Schedule *options.ScheduleOptions `json:"schedule" mapstructure:"schedule"`
	TimeSync *options.TimeSyncOptions `json:"timesync" mapstructure:"timesync"`
	Camera   *options.CameraOptions   `json:"camera" mapstructure:"camera"`
	Power    *options.PowerOptions    `json:"power" mapstructure:"power"`
	Log      *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*NodeOptions)(nil)

func NewNodeOptions() *NodeOptions {
	o := &NodeOptions{
		Node:     options.NewNodeOptions(),
		Link:     options.NewLinkOptions(),
		Schedule: options.NewScheduleOptions(),
		TimeSync: options.NewTimeSyncOptions(),
		Camera:   options.NewCameraOptions(),
		Power:    options.NewPowerOptions(),
		Log:      log.NewOptions(),
	}

	return o
}

func (o *NodeOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Node.AddFlags(fss.FlagSet("Node"))
	o.Link.AddFlags(fss.FlagSet("Link"))
	o.Schedule.AddFlags(fss.FlagSet("Schedule"))
	o.TimeSync.AddFlags(fss.FlagSet("Time sync"))
	o.Camera.AddFlags(fss.FlagSet("Camera"))
	o.Power.AddFlags(fss.FlagSet("Power"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *NodeOptions) Complete() error {
	return nil
}

func (o *NodeOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.Node.Validate()...)
	errs = append(errs, o.Link.Validate()...)
	errs = append(errs, o.Schedule.Validate()...)
	errs = append(errs, o.TimeSync.Validate()...)
	errs = append(errs, o.Camera.Validate()...)
	errs = append(errs, o.Power.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	return utilerrors.NewAggregate(errs)
}

func (o *NodeOptions) LogOptions() *log.Options { return o.Log }

func (o *NodeOptions) Config() (*camnode.Config, error) {
	return &camnode.Config{
		NodeOptions:     o.Node,
		LinkOptions:     o.Link,
		ScheduleOptions: o.Schedule,
		TimeSyncOptions: o.TimeSync,
		CameraOptions:   o.Camera,
		PowerOptions:    o.Power,
	}, nil
}
