package present

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type fakeFuture struct {
	name  string
	ready bool
	err   error
}

func (f *fakeFuture) Wait() error {
	f.ready = true
	return f.err
}

func (f *fakeFuture) Ready() bool { return f.ready }

type fakeCommands struct {
	image int
	res   FrameResources
}

func (c fakeCommands) Image() int { return c.image }

// fakeBackend grants whatever it is asked for and records every call.
type fakeBackend struct {
	calls []string

	grantImages int
	recreateErr func(Extent) error

	acquireErrs []error
	submitErrs  []error
	presentErrs []error

	nextImage int
	built     []FrameResources
	recorded  []FrameResources
	submitted []Future
	lastAfter Future
	acquired  *fakeFuture
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{grantImages: 3}
}

func (b *fakeBackend) CleanupFinished() {
	b.calls = append(b.calls, "cleanup")
}

func (b *fakeBackend) RecreateSwapchain(req SwapchainRequest) (SwapchainInfo, error) {
	b.calls = append(b.calls, "recreate "+req.Extent.String())
	if b.recreateErr != nil {
		if err := b.recreateErr(req.Extent); err != nil {
			return SwapchainInfo{}, err
		}
	}
	return SwapchainInfo{Extent: req.Extent, ImageCount: b.grantImages}, nil
}

func (b *fakeBackend) BuildFrameResources(res FrameResources) error {
	b.calls = append(b.calls, fmt.Sprintf("build %d", res.Generation))
	b.built = append(b.built, res)
	return nil
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (b *fakeBackend) AcquireNextImage() (int, Future, error) {
	b.calls = append(b.calls, "acquire")
	if err := pop(&b.acquireErrs); err != nil {
		return 0, nil, err
	}

	image := b.nextImage
	b.nextImage = (b.nextImage + 1) % b.grantImages
	b.acquired = &fakeFuture{name: fmt.Sprintf("acquire %d", image)}
	return image, b.acquired, nil
}

func (b *fakeBackend) Record(image int, res FrameResources, frame FrameState) (Commands, error) {
	b.calls = append(b.calls, fmt.Sprintf("record %d", image))
	last := b.built[len(b.built)-1]
	if res.Generation != last.Generation {
		return nil, errors.Newf("stale generation %d, built %d", res.Generation, last.Generation)
	}
	b.recorded = append(b.recorded, res)
	return fakeCommands{image: image, res: res}, nil
}

func (b *fakeBackend) Submit(cmds Commands, after Future) (Future, error) {
	b.calls = append(b.calls, fmt.Sprintf("submit %d", cmds.Image()))
	b.lastAfter = after
	if err := pop(&b.submitErrs); err != nil {
		return nil, err
	}
	f := &fakeFuture{name: fmt.Sprintf("submit %d", cmds.Image())}
	b.submitted = append(b.submitted, f)
	return f, nil
}

func (b *fakeBackend) Present(image int, after Future) (Future, error) {
	b.calls = append(b.calls, fmt.Sprintf("present %d", image))
	if err := pop(&b.presentErrs); err != nil {
		return nil, err
	}
	return after, nil
}

func (b *fakeBackend) WaitIdle() error {
	b.calls = append(b.calls, "idle")
	return nil
}

func (b *fakeBackend) reset() {
	b.calls = nil
}

func (b *fakeBackend) count(prefix string) int {
	n := 0
	for _, call := range b.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// fakeWindow hands out one queued batch of events per poll.
type fakeWindow struct {
	size   Extent
	events [][]Event
}

func (w *fakeWindow) DrawableSize() Extent { return w.size }

func (w *fakeWindow) PollEvents() []Event {
	if len(w.events) == 0 {
		return nil
	}
	batch := w.events[0]
	w.events = w.events[1:]
	for _, event := range batch {
		if event.Kind == EventResize {
			w.size = event.Size
		}
	}
	return batch
}

func (w *fakeWindow) queue(events ...Event) {
	w.events = append(w.events, events)
}

func resize(w, h uint32) Event {
	return Event{Kind: EventResize, Size: Extent{Width: w, Height: h}}
}
