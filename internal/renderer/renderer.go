// Package renderer implements the presentation loop's backend on Vulkan
// through vkngwrapper. It owns every Vulkan object the demo creates.
package renderer

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/assets"
	"github.com/vkngwrapper/teapot/internal/present"
)

type Options struct {
	AppName    string
	Validation bool
	Depth      bool
	// FramesInFlight bounds how many frames the CPU may record ahead of
	// the GPU. It defaults to present.DefaultImageCount.
	FramesInFlight int
	Logger         *log.Logger
}

type Renderer struct {
	window *sdl.Window
	opts   Options
	logger *log.Logger

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	queueFamilies  queueFamilyIndices
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue

	swapchainExtension khr_swapchain.Extension
	swapchain          khr_swapchain.Swapchain
	swapchainImages    []core1_0.Image
	swapchainExtent    core1_0.Extent2D
	surfaceFormat      khr_surface.SurfaceFormat
	depthFormat        core1_0.Format

	renderPass     core1_0.RenderPass
	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
	vertexShader   []byte
	fragmentShader []byte

	targets *frameTargets
	retired []retiredResources

	commandPool core1_0.CommandPool
	slots       []*frameSlot
	current     int

	geometry geometry
}

// New creates every device-level object that does not depend on the
// window size. Swapchain-sized resources are built by the loop.
func New(window *sdl.Window, opts Options, bundle *assets.Bundle) (*Renderer, error) {
	if opts.FramesInFlight <= 0 {
		opts.FramesInFlight = present.DefaultImageCount
	}
	if opts.AppName == "" {
		opts.AppName = "teapot"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Renderer{
		window:         window,
		opts:           opts,
		logger:         logger,
		vertexShader:   bundle.VertexShader,
		fragmentShader: bundle.FragmentShader,
	}

	err := r.init(bundle)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(bundle *assets.Bundle) error {
	var err error
	r.loader, err = core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "create vulkan loader")
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"create instance", r.createInstance},
		{"set up debug messenger", r.setupDebugMessenger},
		{"create surface", r.createSurface},
		{"pick physical device", r.pickPhysicalDevice},
		{"create logical device", r.createLogicalDevice},
		{"choose surface format", r.chooseFormats},
		{"create render pass", r.createRenderPass},
		{"create graphics pipeline", r.createGraphicsPipeline},
		{"create command pool", r.createCommandPool},
		{"upload geometry", func() error { return r.uploadGeometry(bundle.Mesh) }},
		{"create frame slots", r.createFrameSlots},
	}

	for _, step := range steps {
		err = step.run()
		if err != nil {
			return errors.Wrap(err, step.name)
		}
	}

	return nil
}

func (r *Renderer) WaitIdle() error {
	if r.device == nil {
		return nil
	}
	return classify(r.device.WaitIdle())
}

// Destroy waits for the device and releases everything, including objects
// from a partially failed New.
func (r *Renderer) Destroy() {
	if r.device != nil {
		_, err := r.device.WaitIdle()
		if err != nil {
			r.logger.Printf("wait for device idle: %v", err)
		}
	}

	for _, old := range r.retired {
		old.destroy()
	}
	r.retired = nil

	if r.targets != nil {
		r.targets.destroy()
		r.targets = nil
	}

	if r.swapchain != nil {
		r.swapchain.Destroy(nil)
		r.swapchain = nil
	}

	r.destroyPipeline()

	for _, slot := range r.slots {
		slot.destroy()
	}
	r.slots = nil

	if r.commandPool != nil {
		r.commandPool.Destroy(nil)
		r.commandPool = nil
	}

	r.geometry.destroy()

	if r.device != nil {
		r.device.Destroy(nil)
		r.device = nil
	}

	if r.debugMessenger != nil {
		r.debugMessenger.Destroy(nil)
		r.debugMessenger = nil
	}

	if r.surface != nil {
		r.surface.Destroy(nil)
		r.surface = nil
	}

	if r.instance != nil {
		r.instance.Destroy(nil)
		r.instance = nil
	}
}

func (r *Renderer) destroyPipeline() {
	if r.pipeline != nil {
		r.pipeline.Destroy(nil)
		r.pipeline = nil
	}

	if r.pipelineLayout != nil {
		r.pipelineLayout.Destroy(nil)
		r.pipelineLayout = nil
	}

	if r.renderPass != nil {
		r.renderPass.Destroy(nil)
		r.renderPass = nil
	}
}

var _ present.Backend = (*Renderer)(nil)
