package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/transport"
)

var _ IOptions = (*SessionOptions)(nil)

// MinImageTimeout is the shortest accepted session.image-timeout.
const MinImageTimeout = time.Second

// SessionOptions bounds receiver-side reassembly.
type SessionOptions struct {
	QueueSize    int           `json:"queue-size" mapstructure:"queue-size"`
	MaxImageSize int           `json:"max-image-size" mapstructure:"max-image-size"`
	ImageTimeout time.Duration `json:"image-timeout" mapstructure:"image-timeout"`
	// Terminators accepted on raw radio frames.
	Terminators []string `json:"terminators" mapstructure:"terminators"`
}

func NewSessionOptions() *SessionOptions {
	return &SessionOptions{
		QueueSize:    transport.DefaultQueueSize,
		MaxImageSize: protocol.MaxImageSize,
		ImageTimeout: 20 * time.Second,
		Terminators:  []string{protocol.DefaultTerminator, protocol.LegacyTerminator},
	}
}

func (o *SessionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.QueueSize <= 0 {
		errors = append(errors, fmt.Errorf("session.queue-size must be positive, got %d", o.QueueSize))
	}
	if o.MaxImageSize < protocol.MTU {
		errors = append(errors, fmt.Errorf("session.max-image-size must be at least %d, got %d", protocol.MTU, o.MaxImageSize))
	}
	if o.ImageTimeout < MinImageTimeout {
		errors = append(errors, fmt.Errorf("session.image-timeout must be at least %s, got %s", MinImageTimeout, o.ImageTimeout))
	}
	if len(o.Terminators) == 0 {
		errors = append(errors, fmt.Errorf("session.terminators must not be empty"))
	}

	return errors
}

func (o *SessionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.QueueSize, "session.queue-size", o.QueueSize, "Reassembled images waiting for the sinks.")
	fs.IntVar(&o.MaxImageSize, "session.max-image-size", o.MaxImageSize, "Per-sender buffer bound in bytes.")
	fs.DurationVar(&o.ImageTimeout, "session.image-timeout", o.ImageTimeout, "Discard a transfer with no frame for this long.")
	fs.StringSliceVar(&o.Terminators, "session.terminators", o.Terminators, "Terminator sequences accepted on radio frames.")
}

func (o *SessionOptions) TableOptions() []transport.SessionOption {
	return []transport.SessionOption{
		transport.WithMaxImageSize(o.MaxImageSize),
		transport.WithTerminators(o.Terminators...),
	}
}
