package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/present"
)

// classify marks Vulkan results the presentation loop reacts to with the
// matching present sentinel so errors.Is works on them.
func classify(res common.VkResult, err error) error {
	if err == nil {
		if res >= 0 {
			return nil
		}
		err = errors.Newf("vulkan result %v", res)
	}

	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return errors.Mark(err, present.ErrOutOfDate)
	case core1_0.VKErrorDeviceLost:
		return errors.Mark(err, present.ErrDeviceLost)
	case khr_surface.VKErrorSurfaceLost:
		return errors.Mark(err, present.ErrSurfaceLost)
	}
	return err
}
