package present

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanFrameResources(t *testing.T) {
	cfg := SurfaceConfig{Depth: true, ClearColor: [4]float32{0, 0.3, 0.6, 1}}

	res, err := PlanFrameResources(cfg, SwapchainInfo{Extent: Extent{Width: 800, Height: 600}, ImageCount: 3})
	require.NoError(t, err)
	require.Len(t, res.Framebuffers, 3)
	require.Equal(t, Extent{Width: 800, Height: 600}, res.Scissor)
	require.Equal(t, float32(1), res.ClearDepth)
	require.Equal(t, cfg.ClearColor, res.ClearColor)
	require.Zero(t, res.Generation)

	again, err := PlanFrameResources(cfg, SwapchainInfo{Extent: Extent{Width: 800, Height: 600}, ImageCount: 3})
	require.NoError(t, err)
	require.Equal(t, res, again)
}

func TestPlanFrameResourcesWithoutDepth(t *testing.T) {
	res, err := PlanFrameResources(SurfaceConfig{}, SwapchainInfo{Extent: Extent{Width: 2, Height: 1}, ImageCount: 2})
	require.NoError(t, err)
	require.False(t, res.Depth)
	for _, fb := range res.Framebuffers {
		require.False(t, fb.Depth)
	}
}

func TestPlanFrameResourcesRejectsEmptySurface(t *testing.T) {
	_, err := PlanFrameResources(SurfaceConfig{}, SwapchainInfo{Extent: Extent{Width: 0, Height: 600}, ImageCount: 3})
	require.ErrorIs(t, err, ErrUnsupportedDimensions)

	_, err = PlanFrameResources(SurfaceConfig{}, SwapchainInfo{Extent: Extent{Width: 800, Height: 600}})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnsupportedDimensions)
}

func TestChooseImageCount(t *testing.T) {
	for _, tc := range []struct {
		name                string
		requested, min, max int
		expected            int
	}{
		{"granted", 3, 2, 8, 3},
		{"unbounded", 3, 1, 0, 3},
		{"raised to minimum", 3, 4, 0, 4},
		{"capped at maximum", 3, 1, 2, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ChooseImageCount(tc.requested, tc.min, tc.max))
		})
	}
}

func TestClampExtent(t *testing.T) {
	min := Extent{Width: 1, Height: 1}
	max := Extent{Width: 4096, Height: 2048}

	require.Equal(t, Extent{Width: 800, Height: 600}, ClampExtent(Extent{Width: 800, Height: 600}, min, max))
	require.Equal(t, Extent{Width: 4096, Height: 1}, ClampExtent(Extent{Width: 5000, Height: 0}, min, max))
}
