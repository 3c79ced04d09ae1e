// Package window adapts an SDL2 window to the presentation loop.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/teapot/internal/present"
)

type Window struct {
	handle *sdl.Window
}

// Open initializes SDL video and creates a resizable Vulkan window. It must
// be called from the main thread.
func Open(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	handle, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{handle: handle}, nil
}

func (w *Window) Handle() *sdl.Window {
	return w.handle
}

// DrawableSize reports the size in pixels, or zero while minimized.
func (w *Window) DrawableSize() present.Extent {
	if w.handle.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return present.Extent{}
	}

	width, height := w.handle.VulkanGetDrawableSize()
	if width < 0 || height < 0 {
		return present.Extent{}
	}
	return present.Extent{Width: uint32(width), Height: uint32(height)}
}

func (w *Window) PollEvents() []present.Event {
	var events []present.Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		translated, ok := Translate(event)
		if ok {
			events = append(events, translated)
		}
	}
	return events
}

func (w *Window) Close() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}

// Translate maps an SDL event onto the loop's event kinds. Events the loop
// does not react to are dropped.
func Translate(event sdl.Event) (present.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return present.Event{Kind: present.EventClose}, true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return present.Event{Kind: present.EventClose}, true
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return present.Event{Kind: present.EventResize, Size: extent(e.Data1, e.Data2)}, true
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			// The loop re-reads the drawable size when it regenerates.
			return present.Event{Kind: present.EventResize}, true
		}
	}
	return present.Event{}, false
}

func extent(width, height int32) present.Extent {
	if width < 0 || height < 0 {
		return present.Extent{}
	}
	return present.Extent{Width: uint32(width), Height: uint32(height)}
}
