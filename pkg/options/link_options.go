package options

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/protocol"
)

var _ IOptions = (*LinkOptions)(nil)

// LinkOptions configures the UDP radio and the chunked transport timing.
type LinkOptions struct {
	// LocalMAC is this station's link address. Empty derives one from the hostname.
	LocalMAC string `json:"local-mac" mapstructure:"local-mac"`
	Listen   string `json:"listen" mapstructure:"listen"`
	// PeerAddr is the UDP address frames to the peer MAC are sent to.
	PeerAddr string `json:"peer-addr" mapstructure:"peer-addr"`

	FrameTimeout     time.Duration `json:"frame-timeout" mapstructure:"frame-timeout"`
	FramePacing      time.Duration `json:"frame-pacing" mapstructure:"frame-pacing"`
	TerminatorPacing time.Duration `json:"terminator-pacing" mapstructure:"terminator-pacing"`
	Terminator       string        `json:"terminator" mapstructure:"terminator"`
}

func NewLinkOptions() *LinkOptions {
	return &LinkOptions{
		Listen:           "0.0.0.0:0",
		PeerAddr:         "127.0.0.1:4210",
		FrameTimeout:     protocol.FrameTimeout,
		FramePacing:      protocol.FramePacing,
		TerminatorPacing: protocol.TerminatorPacing,
		Terminator:       protocol.DefaultTerminator,
	}
}

func (o *LinkOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.LocalMAC != "" {
		if _, err := protocol.ParseMAC(o.LocalMAC); err != nil {
			errors = append(errors, fmt.Errorf("link.local-mac: %w", err))
		}
	}
	if err := ValidateAddress(o.Listen); err != nil {
		errors = append(errors, fmt.Errorf("link.listen: %w", err))
	}
	if o.PeerAddr != "" {
		if err := ValidateAddress(o.PeerAddr); err != nil {
			errors = append(errors, fmt.Errorf("link.peer-addr: %w", err))
		}
	}
	if o.FrameTimeout <= 0 {
		errors = append(errors, fmt.Errorf("link.frame-timeout must be positive"))
	}
	if o.FramePacing < 0 || o.TerminatorPacing < 0 {
		errors = append(errors, fmt.Errorf("link pacing must not be negative"))
	}
	if o.Terminator != protocol.DefaultTerminator && o.Terminator != protocol.LegacyTerminator {
		errors = append(errors, fmt.Errorf("link.terminator must be %q or %q, got %q", protocol.DefaultTerminator, protocol.LegacyTerminator, o.Terminator))
	}

	return errors
}

func (o *LinkOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.LocalMAC, "link.local-mac", o.LocalMAC, "Link address of this station. Derived from the hostname when empty.")
	fs.StringVar(&o.Listen, "link.listen", o.Listen, "UDP address the radio listens on.")
	fs.StringVar(&o.PeerAddr, "link.peer-addr", o.PeerAddr, "UDP address of the peer station.")
	fs.DurationVar(&o.FrameTimeout, "link.frame-timeout", o.FrameTimeout, "Time to wait for one frame's send completion.")
	fs.DurationVar(&o.FramePacing, "link.frame-pacing", o.FramePacing, "Pause between data frames.")
	fs.DurationVar(&o.TerminatorPacing, "link.terminator-pacing", o.TerminatorPacing, "Pause before the terminator frame.")
	fs.StringVar(&o.Terminator, "link.terminator", o.Terminator, "Terminator sequence, EOF! or the legacy EOF.")
}

// Local returns the configured station address, or one derived from the hostname.
func (o *LinkOptions) Local() protocol.MAC {
	if mac, err := protocol.ParseMAC(o.LocalMAC); err == nil {
		return mac
	}
	host, err := os.Hostname()
	if err != nil {
		host = "camlink"
	}
	return protocol.DeriveMAC(host)
}
