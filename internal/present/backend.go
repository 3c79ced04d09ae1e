package present

import "time"

// Commands is a recorded command sequence for one swapchain image.
type Commands interface {
	Image() int
}

// FrameState is the per-frame input handed to the backend when recording.
type FrameState struct {
	Number  uint64
	Elapsed time.Duration
}

// Backend is the graphics driver seen by the loop. Errors that match
// ErrOutOfDate, ErrUnsupportedDimensions, ErrDeviceLost or ErrSurfaceLost
// (via errors.Is) drive the state machine; anything else drops a frame.
type Backend interface {
	// CleanupFinished releases resources whose frames have completed. It
	// must not block.
	CleanupFinished()

	RecreateSwapchain(req SwapchainRequest) (SwapchainInfo, error)
	BuildFrameResources(res FrameResources) error

	// AcquireNextImage returns the index of the next presentable image and
	// a future that completes once the image may be written.
	AcquireNextImage() (int, Future, error)
	Record(image int, res FrameResources, frame FrameState) (Commands, error)
	Submit(cmds Commands, after Future) (Future, error)
	Present(image int, after Future) (Future, error)

	WaitIdle() error
}

type EventKind int

const (
	EventOther EventKind = iota
	EventClose
	EventResize
)

type Event struct {
	Kind EventKind
	Size Extent
}

// Window supplies the drawable size and a polled event stream.
type Window interface {
	DrawableSize() Extent
	PollEvents() []Event
}
