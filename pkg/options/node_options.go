package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/protocol"
)

var _ IOptions = (*NodeOptions)(nil)

// NodeOptions identifies the node and its gateway peer.
type NodeOptions struct {
	// PeerMAC is the gateway's link address. Required.
	PeerMAC string `json:"peer-mac" mapstructure:"peer-mac"`
	// Timezone formats header timestamps and drives target-digit alignment.
	Timezone string `json:"timezone" mapstructure:"timezone"`
	// StateFile persists the last sync date across wake cycles.
	StateFile string `json:"state-file" mapstructure:"state-file"`
}

func NewNodeOptions() *NodeOptions {
	return &NodeOptions{
		Timezone:  "Asia/Tokyo",
		StateFile: "/var/lib/camlink/state.yaml",
	}
}

func (o *NodeOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.PeerMAC == "" {
		errors = append(errors, fmt.Errorf("node.peer-mac is required"))
	} else if _, err := protocol.ParseMAC(o.PeerMAC); err != nil {
		errors = append(errors, fmt.Errorf("node.peer-mac: %w", err))
	}
	if _, err := time.LoadLocation(o.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("node.timezone: %w", err))
	}
	if o.StateFile == "" {
		errors = append(errors, fmt.Errorf("node.state-file must not be empty"))
	}

	return errors
}

func (o *NodeOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.PeerMAC, "node.peer-mac", o.PeerMAC, "Link address of the gateway, as xx:xx:xx:xx:xx:xx.")
	fs.StringVar(&o.Timezone, "node.timezone", o.Timezone, "IANA timezone for header timestamps and wake alignment.")
	fs.StringVar(&o.StateFile, "node.state-file", o.StateFile, "YAML file holding persistent node state.")
}

// Peer returns the parsed peer address. Call it after Validate.
func (o *NodeOptions) Peer() protocol.MAC {
	mac, _ := protocol.ParseMAC(o.PeerMAC)
	return mac
}

// Location returns the configured zone, falling back to UTC.
func (o *NodeOptions) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
