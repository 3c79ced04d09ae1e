package present

import (
	"context"
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
)

type State int

const (
	StateStale State = iota
	StateValid
)

func (s State) String() string {
	switch s {
	case StateStale:
		return "stale"
	case StateValid:
		return "valid"
	}
	return "unknown"
}

type Stats struct {
	Frames        uint64
	Presented     uint64
	Dropped       uint64
	Regenerations uint64
	Elapsed       time.Duration
}

// FrameTime is the mean wall time per presented frame.
func (s Stats) FrameTime() time.Duration {
	if s.Presented == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Presented)
}

// Loop drives acquire, record, submit and present against a Backend until
// the window asks to close. It owns the swapchain validity state, the
// current frame resources and the in-flight frame future; nothing else
// mutates them.
type Loop struct {
	backend Backend
	window  Window
	cfg     SurfaceConfig
	logger  *log.Logger

	state      State
	resources  FrameResources
	generation uint64
	previous   Future
	done       bool

	start time.Duration
	stats Stats
}

func NewLoop(backend Backend, window Window, cfg SurfaceConfig, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ImageCount <= 0 {
		cfg.ImageCount = DefaultImageCount
	}
	if cfg.PresentMode == "" {
		cfg.PresentMode = PresentModeFIFO
	}

	return &Loop{
		backend:  backend,
		window:   window,
		cfg:      cfg,
		logger:   logger,
		state:    StateStale,
		previous: Now(),
		start:    hrtime.Now(),
	}
}

func (l *Loop) State() State              { return l.state }
func (l *Loop) Resources() FrameResources { return l.resources }
func (l *Loop) Done() bool                { return l.done }

func (l *Loop) Stats() Stats {
	stats := l.stats
	stats.Elapsed = hrtime.Since(l.start)
	return stats
}

// Run steps the loop until the window closes, ctx is cancelled or a fatal
// error occurs. On a clean exit it waits for the last frame and the device.
func (l *Loop) Run(ctx context.Context) error {
	for !l.done {
		select {
		case <-ctx.Done():
			l.done = true
			continue
		default:
		}

		err := l.Step()
		if err != nil {
			return err
		}
	}

	err := errors.CombineErrors(l.previous.Wait(), l.backend.WaitIdle())
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	stats := l.Stats()
	l.logger.Printf("presented %d of %d frames (%d dropped, %d swapchain rebuilds) in %s, %s per frame",
		stats.Presented, stats.Frames, stats.Dropped, stats.Regenerations, stats.Elapsed, stats.FrameTime())
	return nil
}

// Step runs one iteration. It returns an error only for failures that
// should terminate the process.
func (l *Loop) Step() error {
	if l.done {
		return nil
	}

	l.backend.CleanupFinished()

	if l.state == StateStale {
		ok, err := l.regenerate()
		if err != nil {
			return err
		}
		if !ok {
			l.pollEvents()
			return nil
		}
	}

	image, acquired, err := l.backend.AcquireNextImage()
	if errors.Is(err, ErrOutOfDate) {
		l.invalidate()
		return nil
	} else if err != nil {
		return l.dropFrame(errors.Wrap(err, "acquire next image"))
	}

	l.stats.Frames++
	frame := FrameState{Number: l.stats.Frames, Elapsed: hrtime.Since(l.start)}

	err = l.draw(image, acquired, frame)
	if err != nil {
		// Only presenting or replacing the swapchain gives the acquired
		// image back. Dropping it repeatedly would exhaust the swapchain.
		l.invalidate()
		return l.dropFrame(err)
	}

	l.pollEvents()
	return nil
}

func (l *Loop) draw(image int, acquired Future, frame FrameState) error {
	cmds, err := l.backend.Record(image, l.resources, frame)
	if err != nil {
		return errors.Wrapf(err, "record image %d", image)
	}

	submitted, err := l.backend.Submit(cmds, Join(l.previous, acquired))
	if err != nil {
		return errors.Wrap(err, "submit")
	}

	presented, err := l.backend.Present(image, submitted)
	if err != nil {
		return errors.Wrapf(err, "present image %d", image)
	}

	l.previous = presented
	l.stats.Presented++
	return nil
}

// dropFrame substitutes a completed future for the in-flight frame and
// classifies err. Only fatal errors are returned.
func (l *Loop) dropFrame(err error) error {
	l.previous = Now()

	switch {
	case errors.Is(err, ErrOutOfDate):
		l.invalidate()
	case IsFatal(err):
		l.logger.Printf("fatal frame error: %v", err)
		return err
	default:
		l.stats.Dropped++
		l.logger.Printf("dropped frame: %v", err)
	}

	l.pollEvents()
	return nil
}

func (l *Loop) invalidate() {
	l.state = StateStale
}

// regenerate rebuilds the swapchain and frame resources against the current
// window size. It reports false when the size cannot be presented yet.
func (l *Loop) regenerate() (bool, error) {
	size := l.window.DrawableSize()
	if size.Empty() {
		return false, nil
	}

	info, err := l.backend.RecreateSwapchain(SwapchainRequest{
		Extent:      size,
		ImageCount:  l.cfg.ImageCount,
		PresentMode: l.cfg.PresentMode,
		Clipped:     l.cfg.Clipped,
	})
	// The surface can change again while the swapchain is being built.
	if errors.Is(err, ErrUnsupportedDimensions) || errors.Is(err, ErrOutOfDate) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "recreate swapchain at %s", size)
	}

	res, err := PlanFrameResources(l.cfg, info)
	if errors.Is(err, ErrUnsupportedDimensions) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	l.generation++
	res.Generation = l.generation

	err = l.backend.BuildFrameResources(res)
	if err != nil {
		return false, errors.Wrapf(err, "build frame resources at %s", res.Extent)
	}

	l.resources = res
	l.state = StateValid
	l.stats.Regenerations++
	return true, nil
}

func (l *Loop) pollEvents() {
	for _, event := range l.window.PollEvents() {
		switch event.Kind {
		case EventClose:
			l.done = true
		case EventResize:
			l.invalidate()
		}
	}
}
