package renderer

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/present"
)

func TestRendererIsBackend(t *testing.T) {
	var backend present.Backend = (*Renderer)(nil)
	_, ok := backend.(*Renderer)
	require.True(t, ok)
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(core1_0.VKSuccess, nil))
	require.NoError(t, classify(khr_swapchain.VKSuboptimal, nil))

	err := classify(khr_swapchain.VKErrorOutOfDate, errors.New("acquire"))
	require.ErrorIs(t, err, present.ErrOutOfDate)
	require.False(t, present.IsFatal(err))

	err = classify(core1_0.VKErrorDeviceLost, nil)
	require.ErrorIs(t, err, present.ErrDeviceLost)
	require.True(t, present.IsFatal(err))

	err = classify(khr_surface.VKErrorSurfaceLost, errors.New("present"))
	require.ErrorIs(t, err, present.ErrSurfaceLost)
	require.True(t, present.IsFatal(err))

	err = classify(core1_0.VKErrorOutOfHostMemory, errors.New("allocate"))
	require.EqualError(t, err, "allocate")
	require.False(t, present.IsFatal(err))
}

func TestChooseSwapPresentMode(t *testing.T) {
	available := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}

	require.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode(present.PresentModeFIFO, available))
	require.Equal(t, khr_surface.PresentModeMailbox, chooseSwapPresentMode(present.PresentModeMailbox, available))
	require.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode(present.PresentModeImmediate, available))
	require.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode("", nil))
}

func TestChooseSwapExtent(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 640, Height: 480},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
	require.Equal(t, core1_0.Extent2D{Width: 640, Height: 480}, chooseSwapExtent(caps, present.Extent{Width: 800, Height: 600}))

	caps.CurrentExtent = core1_0.Extent2D{Width: -1, Height: -1}
	require.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, chooseSwapExtent(caps, present.Extent{Width: 800, Height: 600}))
	require.Equal(t, core1_0.Extent2D{Width: 4096, Height: 1}, chooseSwapExtent(caps, present.Extent{Width: 5000, Height: 0}))
}

func TestChooseCompositeAlpha(t *testing.T) {
	require.Equal(t, khr_surface.CompositeAlphaOpaque, chooseCompositeAlpha(khr_surface.CompositeAlphaOpaque|khr_surface.CompositeAlphaInherit))
	require.Equal(t, khr_surface.CompositeAlphaInherit, chooseCompositeAlpha(khr_surface.CompositeAlphaInherit))
	require.Equal(t, khr_surface.CompositeAlphaOpaque, chooseCompositeAlpha(0))
}

func TestBytesToBytecode(t *testing.T) {
	code := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.Equal(t, []uint32{0x07230203, 0x00010000}, code)
}

func TestFrameConstantsLayout(t *testing.T) {
	constants := buildFrameConstants(present.Extent{Width: 800, Height: 600}, 0, mgl32.Vec3{}, 1)

	data, err := constants.bytes()
	require.NoError(t, err)
	require.Len(t, data, frameConstantsSize)
}

func TestFrameConstantsCenterMesh(t *testing.T) {
	center := mgl32.Vec3{2, -1, 5}

	for _, elapsed := range []time.Duration{0, 1500 * time.Millisecond, 7 * time.Second} {
		constants := buildFrameConstants(present.Extent{Width: 1024, Height: 768}, elapsed, center, 4)

		clip := constants.MVP.Mul4x1(center.Vec4(1))
		require.Greater(t, clip.W(), float32(0))
		require.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
		require.Less(t, clip.Z()/clip.W(), float32(1))
	}
}

func TestFrameConstantsTint(t *testing.T) {
	constants := buildFrameConstants(present.Extent{Width: 10, Height: 10}, 2250*time.Millisecond, mgl32.Vec3{}, 1)
	require.InDeltaSlice(t, []float32{0.25, 0.5, 0.5, 1}, constants.Tint[:], 1e-6)
}

func TestFrameConstantsDegenerateInput(t *testing.T) {
	constants := buildFrameConstants(present.Extent{}, time.Second, mgl32.Vec3{}, 0)
	for _, v := range constants.MVP {
		require.False(t, math.IsNaN(float64(v)), "matrix contains NaN")
	}
}

func TestFrameConstantsLightRotatesWithMesh(t *testing.T) {
	still := buildFrameConstants(present.Extent{Width: 1, Height: 1}, 0, mgl32.Vec3{}, 1)
	turned := buildFrameConstants(present.Extent{Width: 1, Height: 1}, 2*time.Second, mgl32.Vec3{}, 1)

	require.InDelta(t, 1, still.Light.Vec3().Len(), 1e-5)
	require.InDelta(t, 1, turned.Light.Vec3().Len(), 1e-5)
	require.InDelta(t, still.Light.Y(), turned.Light.Y(), 1e-5)
	// A quarter turn around Y mirrors the light's Z in model space
	require.InDelta(t, -still.Light.Z(), turned.Light.Z(), 1e-5)
}

// fakeSemaphore only needs to be a non-nil core1_0.Semaphore.
type fakeSemaphore struct {
	core1_0.Semaphore
}

type foreignFuture struct {
	ready bool
}

func (f *foreignFuture) Wait() error {
	f.ready = true
	return nil
}

func (f *foreignFuture) Ready() bool {
	return f.ready
}

func TestGPUWaits(t *testing.T) {
	var serial uint64 = 1
	acquired := &fenceFuture{serial: &serial, want: 1, semaphore: new(fakeSemaphore)}
	consumed := &fenceFuture{serial: &serial, want: 1, semaphore: new(fakeSemaphore), consumed: true}
	pending := &foreignFuture{}
	done := &foreignFuture{ready: true}

	gpu, cpu := gpuWaits(present.Join(present.Join(consumed, acquired), present.Join(pending, done)))
	require.Equal(t, []*fenceFuture{acquired}, gpu)
	require.Equal(t, []present.Future{pending}, cpu)

	gpu, cpu = gpuWaits(present.Now())
	require.Empty(t, gpu)
	require.Empty(t, cpu)
}

func TestFenceFutureCompletesWhenSlotMovesOn(t *testing.T) {
	var serial uint64 = 4
	f := &fenceFuture{serial: &serial, want: 3}

	require.True(t, f.Ready())
	require.NoError(t, f.Wait())
}

func TestRetiredResourcesReady(t *testing.T) {
	require.True(t, retiredResources{}.ready())

	pending := &foreignFuture{}
	old := retiredResources{pending: []present.Future{&foreignFuture{ready: true}, pending}}
	require.False(t, old.ready())

	require.NoError(t, pending.Wait())
	require.True(t, old.ready())
}

func TestCleanupFinishedKeepsPending(t *testing.T) {
	pending := &foreignFuture{}
	r := &Renderer{
		retired: []retiredResources{
			{},
			{pending: []present.Future{pending}},
			{pending: []present.Future{&foreignFuture{ready: true}}},
		},
	}

	r.CleanupFinished()
	require.Len(t, r.retired, 1)
	require.Equal(t, []present.Future{pending}, r.retired[0].pending)

	pending.ready = true
	r.CleanupFinished()
	require.Empty(t, r.retired)
}

func TestCheckFrameResources(t *testing.T) {
	res, err := present.PlanFrameResources(present.SurfaceConfig{Depth: true}, present.SwapchainInfo{
		Extent:     present.Extent{Width: 800, Height: 600},
		ImageCount: 3,
	})
	require.NoError(t, err)

	extent := core1_0.Extent2D{Width: 800, Height: 600}
	require.NoError(t, checkFrameResources(res, 3, extent, true))

	require.EqualError(t, checkFrameResources(res, 2, extent, true), "3 framebuffers planned for 2 swapchain images")
	require.EqualError(t, checkFrameResources(res, 3, core1_0.Extent2D{Width: 1024, Height: 768}, true),
		"planned extent 800x600 does not match the swapchain's 1024x768")
	require.EqualError(t, checkFrameResources(res, 3, extent, false), "depth true does not match the render pass")
}
