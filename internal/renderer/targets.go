package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/present"
)

// frameTargets are the per-size objects a command buffer renders into:
// one framebuffer per swapchain image plus a shared depth attachment.
type frameTargets struct {
	generation uint64
	res        present.FrameResources

	imageViews   []core1_0.ImageView
	framebuffers []core1_0.Framebuffer

	depthImage  core1_0.Image
	depthMemory core1_0.DeviceMemory
	depthView   core1_0.ImageView
}

func (t *frameTargets) destroy() {
	for _, framebuffer := range t.framebuffers {
		framebuffer.Destroy(nil)
	}
	t.framebuffers = nil

	for _, imageView := range t.imageViews {
		imageView.Destroy(nil)
	}
	t.imageViews = nil

	if t.depthView != nil {
		t.depthView.Destroy(nil)
		t.depthView = nil
	}
	if t.depthImage != nil {
		t.depthImage.Destroy(nil)
		t.depthImage = nil
	}
	if t.depthMemory != nil {
		t.depthMemory.Free(nil)
		t.depthMemory = nil
	}
}

// BuildFrameResources creates the image views, depth buffer and
// framebuffers res describes for the current swapchain. The previous
// targets are retired rather than destroyed since frames in flight may
// still reference them.
func (r *Renderer) BuildFrameResources(res present.FrameResources) error {
	if r.swapchain == nil {
		return errors.New("no swapchain")
	}
	err := checkFrameResources(res, len(r.swapchainImages), r.swapchainExtent, r.opts.Depth)
	if err != nil {
		return err
	}

	targets := &frameTargets{
		generation: res.Generation,
		res:        res,
	}

	err = r.createTargets(targets)
	if err != nil {
		targets.destroy()
		return err
	}

	if r.targets != nil {
		r.retire(nil, r.targets)
	}
	r.targets = targets
	return nil
}

// checkFrameResources rejects a plan that does not fit the swapchain it is
// built on.
func checkFrameResources(res present.FrameResources, imageCount int, extent core1_0.Extent2D, depth bool) error {
	if len(res.Framebuffers) != imageCount {
		return errors.Newf("%d framebuffers planned for %d swapchain images", len(res.Framebuffers), imageCount)
	}
	if int(res.Extent.Width) != extent.Width || int(res.Extent.Height) != extent.Height {
		return errors.Newf("planned extent %dx%d does not match the swapchain's %dx%d",
			res.Extent.Width, res.Extent.Height, extent.Width, extent.Height)
	}
	if res.Depth != depth {
		return errors.Newf("depth %t does not match the render pass", res.Depth)
	}
	return nil
}

func (r *Renderer) createTargets(t *frameTargets) error {
	width, height := int(t.res.Extent.Width), int(t.res.Extent.Height)

	for _, image := range r.swapchainImages {
		imageView, err := r.createImageView(image, r.surfaceFormat.Format, core1_0.ImageAspectColor)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		t.imageViews = append(t.imageViews, imageView)
	}

	if t.res.Depth {
		var err error
		t.depthImage, t.depthMemory, err = r.createImage(width, height,
			r.depthFormat,
			core1_0.ImageUsageDepthStencilAttachment,
			core1_0.MemoryPropertyDeviceLocal)
		if err != nil {
			return errors.Wrap(err, "create depth image")
		}

		t.depthView, err = r.createImageView(t.depthImage, r.depthFormat, core1_0.ImageAspectDepth)
		if err != nil {
			return errors.Wrap(err, "create depth image view")
		}
	}

	for _, imageView := range t.imageViews {
		attachments := []core1_0.ImageView{imageView}
		if t.depthView != nil {
			attachments = append(attachments, t.depthView)
		}

		framebuffer, _, err := r.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  r.renderPass,
			Layers:      1,
			Attachments: attachments,
			Width:       width,
			Height:      height,
		})
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}
		t.framebuffers = append(t.framebuffers, framebuffer)
	}

	return nil
}

// retiredResources are replaced objects waiting for the frames that used
// them to finish.
type retiredResources struct {
	swapchain khr_swapchain.Swapchain
	targets   *frameTargets
	pending   []present.Future
}

func (old retiredResources) ready() bool {
	for _, f := range old.pending {
		if !f.Ready() {
			return false
		}
	}
	return true
}

func (old retiredResources) destroy() {
	if old.targets != nil {
		old.targets.destroy()
	}
	if old.swapchain != nil {
		old.swapchain.Destroy(nil)
	}
}

func (r *Renderer) retire(swapchain khr_swapchain.Swapchain, targets *frameTargets) {
	if swapchain == nil && targets == nil {
		return
	}

	// Targets built on a swapchain that was just retired go with it, so the
	// image views die before their images.
	if n := len(r.retired); swapchain == nil && n > 0 && r.retired[n-1].swapchain != nil && r.retired[n-1].targets == nil {
		r.retired[n-1].targets = targets
		return
	}

	old := retiredResources{
		swapchain: swapchain,
		targets:   targets,
	}
	for _, slot := range r.slots {
		old.pending = append(old.pending, slot.pending()...)
	}
	r.retired = append(r.retired, old)
}

// CleanupFinished destroys retired objects whose frames have completed.
// It never blocks.
func (r *Renderer) CleanupFinished() {
	kept := r.retired[:0]
	for _, old := range r.retired {
		if old.ready() {
			old.destroy()
			continue
		}
		kept = append(kept, old)
	}
	for i := len(kept); i < len(r.retired); i++ {
		r.retired[i] = retiredResources{}
	}
	r.retired = kept
}
