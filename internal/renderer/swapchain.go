package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/present"
)

// RecreateSwapchain builds a swapchain for req, handing the previous one to
// the driver as the old swapchain and retiring it until its frames finish.
func (r *Renderer) RecreateSwapchain(req present.SwapchainRequest) (present.SwapchainInfo, error) {
	support, err := r.querySwapchainSupport(r.physicalDevice)
	if err != nil {
		return present.SwapchainInfo{}, errors.Wrap(err, "query surface capabilities")
	}
	caps := support.Capabilities

	extent := chooseSwapExtent(caps, req.Extent)
	if extent.Width == 0 || extent.Height == 0 {
		return present.SwapchainInfo{}, errors.Wrapf(present.ErrUnsupportedDimensions, "surface extent %dx%d", extent.Width, extent.Height)
	}

	surfaceFormat := chooseSwapSurfaceFormat(support.Formats)
	if surfaceFormat.Format != r.surfaceFormat.Format {
		err = r.rebuildPipeline(surfaceFormat)
		if err != nil {
			return present.SwapchainInfo{}, err
		}
	}

	imageCount := present.ChooseImageCount(req.ImageCount, caps.MinImageCount, caps.MaxImageCount)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if *r.queueFamilies.GraphicsFamily != *r.queueFamilies.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *r.queueFamilies.GraphicsFamily, *r.queueFamilies.PresentFamily)
	}

	swapchain, res, err := r.swapchainExtension.CreateSwapchain(r.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: r.surface,

		MinImageCount:    imageCount,
		ImageFormat:      r.surfaceFormat.Format,
		ImageColorSpace:  r.surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:    chooseSwapPresentMode(req.PresentMode, support.PresentModes),
		Clipped:        req.Clipped,
		OldSwapchain:   r.swapchain,
	})
	if err != nil {
		return present.SwapchainInfo{}, errors.Wrap(classify(res, err), "create swapchain")
	}

	images, _, err := swapchain.SwapchainImages()
	if err != nil {
		swapchain.Destroy(nil)
		return present.SwapchainInfo{}, errors.Wrap(err, "get swapchain images")
	}

	r.retire(r.swapchain, nil)
	r.swapchain = swapchain
	r.swapchainImages = images
	r.swapchainExtent = extent

	return present.SwapchainInfo{
		Extent:     present.Extent{Width: uint32(extent.Width), Height: uint32(extent.Height)},
		ImageCount: len(images),
	}, nil
}

// rebuildPipeline recreates the render pass and pipeline when the surface
// format changes. It waits for the device since both are in use by
// in-flight command buffers.
func (r *Renderer) rebuildPipeline(format khr_surface.SurfaceFormat) error {
	err := r.WaitIdle()
	if err != nil {
		return err
	}

	r.destroyPipeline()
	r.surfaceFormat = format

	err = r.createRenderPass()
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	err = r.createGraphicsPipeline()
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	return nil
}

func (r *Renderer) chooseFormats() error {
	formats, _, err := r.surface.PhysicalDeviceSurfaceFormats(r.physicalDevice)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}
	r.surfaceFormat = chooseSwapSurfaceFormat(formats)

	if r.opts.Depth {
		r.depthFormat, err = r.findDepthFormat()
		if err != nil {
			return err
		}
	}
	return nil
}

func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(requested present.PresentMode, availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	var want khr_surface.PresentMode
	switch requested {
	case present.PresentModeMailbox:
		want = khr_surface.PresentModeMailbox
	case present.PresentModeImmediate:
		want = khr_surface.PresentModeImmediate
	default:
		return khr_surface.PresentModeFIFO
	}

	for _, presentMode := range availablePresentModes {
		if presentMode == want {
			return presentMode
		}
	}

	// FIFO is the only mode every implementation must support
	return khr_surface.PresentModeFIFO
}

func chooseCompositeAlpha(supported khr_surface.CompositeAlphaFlags) khr_surface.CompositeAlphaFlags {
	for _, alpha := range []khr_surface.CompositeAlphaFlags{
		khr_surface.CompositeAlphaOpaque,
		khr_surface.CompositeAlphaPreMultiplied,
		khr_surface.CompositeAlphaPostMultiplied,
		khr_surface.CompositeAlphaInherit,
	} {
		if supported&alpha != 0 {
			return alpha
		}
	}
	return khr_surface.CompositeAlphaOpaque
}

// chooseSwapExtent uses the surface's current extent when it dictates one,
// otherwise the window's drawable size clamped to the supported range.
func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, drawable present.Extent) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	extent := present.ClampExtent(drawable, toExtent(capabilities.MinImageExtent), toExtent(capabilities.MaxImageExtent))
	return core1_0.Extent2D{Width: int(extent.Width), Height: int(extent.Height)}
}

func toExtent(e core1_0.Extent2D) present.Extent {
	if e.Width < 0 || e.Height < 0 {
		return present.Extent{}
	}
	return present.Extent{Width: uint32(e.Width), Height: uint32(e.Height)}
}
