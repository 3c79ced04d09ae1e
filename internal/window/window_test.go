package window

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/teapot/internal/present"
)

func TestTranslate(t *testing.T) {
	for _, tc := range []struct {
		name     string
		event    sdl.Event
		expected present.Event
		ok       bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, present.Event{Kind: present.EventClose}, true},
		{"close", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_CLOSE}, present.Event{Kind: present.EventClose}, true},
		{
			"resized",
			&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 1024, Data2: 768},
			present.Event{Kind: present.EventResize, Size: present.Extent{Width: 1024, Height: 768}},
			true,
		},
		{"minimized", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_MINIMIZED}, present.Event{Kind: present.EventResize}, true},
		{"focus", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED}, present.Event{}, false},
		{"key", &sdl.KeyboardEvent{Type: sdl.KEYDOWN}, present.Event{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			event, ok := Translate(tc.event)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, event)
		})
	}
}
