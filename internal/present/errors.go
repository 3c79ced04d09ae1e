package present

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfDate is reported by a backend when the surface no longer
	// matches the swapchain. It moves the loop to StateStale.
	ErrOutOfDate = errors.New("surface out of date")

	// ErrUnsupportedDimensions is reported when a swapchain cannot be built
	// for the requested extent, e.g. a minimized window. The loop stays
	// stale and retries on the next iteration.
	ErrUnsupportedDimensions = errors.New("unsupported surface dimensions")

	ErrDeviceLost  = errors.New("device lost")
	ErrSurfaceLost = errors.New("surface lost")
)

// IsFatal reports whether err should stop the loop rather than drop a frame.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrSurfaceLost)
}
