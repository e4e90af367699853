// Package relay moves radio frames over a serial byte stream inside the hardened envelope.
package relay

import (
	"io"

	"github.com/tarm/serial"

	"github.com/autopeer-io/camlink/pkg/options"
)

// Opener opens the byte stream. The reader calls it again after every connection loss.
type Opener func() (io.ReadWriteCloser, error)

// OpenSerial opens the configured serial device.
func OpenSerial(o *options.SerialOptions) Opener {
	return func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(&serial.Config{
			Name:        o.Port,
			Baud:        o.Baud,
			ReadTimeout: o.ReadTimeout,
		})
	}
}
