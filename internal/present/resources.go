package present

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// DefaultImageCount requests triple buffering.
const DefaultImageCount = 3

type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

type PresentMode string

const (
	PresentModeFIFO      PresentMode = "fifo"
	PresentModeMailbox   PresentMode = "mailbox"
	PresentModeImmediate PresentMode = "immediate"
)

// SurfaceConfig holds the fixed parameters every swapchain and its frame
// resources are derived from.
type SurfaceConfig struct {
	ImageCount  int
	PresentMode PresentMode
	Clipped     bool
	Depth       bool
	ClearColor  [4]float32
}

// SwapchainRequest is what the loop asks the backend to build. The backend
// resolves format, usage, transform and alpha from the surface capabilities.
type SwapchainRequest struct {
	Extent      Extent
	ImageCount  int
	PresentMode PresentMode
	Clipped     bool
}

// SwapchainInfo describes the swapchain the backend actually granted.
type SwapchainInfo struct {
	Extent     Extent
	ImageCount int
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Framebuffer struct {
	Image  int
	Extent Extent
	Depth  bool
}

// FrameResources is everything derived from the current surface size. It is
// rebuilt as a whole whenever the surface goes stale.
type FrameResources struct {
	Generation   uint64
	Extent       Extent
	Viewport     Viewport
	Scissor      Extent
	Framebuffers []Framebuffer
	Depth        bool
	ClearColor   [4]float32
	ClearDepth   float32
}

// PlanFrameResources derives the frame resources for a granted swapchain.
// It has no side effects; the caller assigns the generation.
func PlanFrameResources(cfg SurfaceConfig, sc SwapchainInfo) (FrameResources, error) {
	if sc.Extent.Empty() {
		return FrameResources{}, errors.Wrapf(ErrUnsupportedDimensions, "plan frame resources for %s", sc.Extent)
	}
	if sc.ImageCount <= 0 {
		return FrameResources{}, errors.Newf("plan frame resources: swapchain granted %d images", sc.ImageCount)
	}

	res := FrameResources{
		Extent: sc.Extent,
		Viewport: Viewport{
			Width:    float32(sc.Extent.Width),
			Height:   float32(sc.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor:      sc.Extent,
		Framebuffers: make([]Framebuffer, sc.ImageCount),
		Depth:        cfg.Depth,
		ClearColor:   cfg.ClearColor,
		ClearDepth:   1,
	}
	for i := range res.Framebuffers {
		res.Framebuffers[i] = Framebuffer{Image: i, Extent: sc.Extent, Depth: cfg.Depth}
	}

	return res, nil
}

// ChooseImageCount clamps the requested image count into what the surface
// supports. A max of 0 means the surface has no upper bound.
func ChooseImageCount(requested, min, max int) int {
	count := requested
	if count < min {
		count = min
	}
	if max > 0 && count > max {
		count = max
	}
	return count
}

// ClampExtent fits want into the [min, max] extent range of the surface.
func ClampExtent(want, min, max Extent) Extent {
	return Extent{
		Width:  clamp(want.Width, min.Width, max.Width),
		Height: clamp(want.Height, min.Height, max.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
