package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
)

// fileTimeLayout is followed by six digits of microseconds, which the layout syntax cannot express.
const fileTimeLayout = "20060102_150405"

// File writes each image to <dir>/<mac>_<received>.jpg.
type File struct {
	dir string
	loc *time.Location
	log log.Logger
}

// NewFile creates dir if needed. Names use the receive time in loc, or local time when loc is nil.
func NewFile(dir string, loc *time.Location, logger log.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &File{dir: dir, loc: loc, log: log.OrStd(logger).WithName("file-sink")}, nil
}

func (f *File) Name() string { return "file" }

func (f *File) Deliver(_ context.Context, img *transport.Image) error {
	at := img.ReceivedAt.In(f.loc)
	base := fmt.Sprintf("%s_%s_%06d", img.Source.Compact(), at.Format(fileTimeLayout), at.Nanosecond()/1000)

	path := filepath.Join(f.dir, base+".jpg")
	err := writeExclusive(path, img.Data)
	if errors.Is(err, fs.ErrExist) {
		path = filepath.Join(f.dir, base+"_"+uuid.NewString()[:8]+".jpg")
		err = writeExclusive(path, img.Data)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	f.log.Info("Image saved", "path", path, "size", len(img.Data), "hashOK", img.HashOK)
	return nil
}

func writeExclusive(path string, data []byte) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return err
	}
	return fh.Close()
}
