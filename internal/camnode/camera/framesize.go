package camera

import (
	"fmt"
	"image"
	"slices"
	"strings"
)

// FrameSize is a named sensor output resolution.
type FrameSize struct {
	Name          string
	Width, Height int
}

var frameSizes = []FrameSize{
	{"96X96", 96, 96},
	{"QQVGA", 160, 120},
	{"QCIF", 176, 144},
	{"HQVGA", 240, 176},
	{"240X240", 240, 240},
	{"QVGA", 320, 240},
	{"CIF", 400, 296},
	{"HVGA", 480, 320},
	{"VGA", 640, 480},
	{"SVGA", 800, 600},
	{"XGA", 1024, 768},
	{"HD", 1280, 720},
	{"SXGA", 1280, 1024},
	{"UXGA", 1600, 1200},
}

const DefaultFrameSize = "SVGA"

// LookupFrameSize resolves a case-insensitive frame size name.
func LookupFrameSize(name string) (FrameSize, error) {
	up := strings.ToUpper(strings.TrimSpace(name))
	i := slices.IndexFunc(frameSizes, func(f FrameSize) bool { return f.Name == up })
	if i < 0 {
		return FrameSize{}, fmt.Errorf("unknown frame size %q", name)
	}
	return frameSizes[i], nil
}

// FrameSizeNames lists the accepted names, smallest first.
func FrameSizeNames() []string {
	names := make([]string, 0, len(frameSizes))
	for _, f := range frameSizes {
		names = append(names, f.Name)
	}
	return names
}

func (f FrameSize) Rect() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f FrameSize) String() string {
	return fmt.Sprintf("%s(%dx%d)", f.Name, f.Width, f.Height)
}
