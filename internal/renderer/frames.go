package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/teapot/internal/present"
)

// frameSlot holds everything one frame in flight needs. Slots are used
// round robin; a slot is reused only after its previous frame finished.
type frameSlot struct {
	device core1_0.Device

	commandBuffer  core1_0.CommandBuffer
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	acquireFence   core1_0.Fence
	inFlight       core1_0.Fence

	acquireSerial uint64
	submitSerial  uint64
	acquire       *fenceFuture
	submit        *fenceFuture
}

func (r *Renderer) createCommandPool() error {
	pool, _, err := r.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *r.queueFamilies.GraphicsFamily,
	})
	if err != nil {
		return err
	}

	r.commandPool = pool
	return nil
}

func (r *Renderer) createFrameSlots() error {
	buffers, _, err := r.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        r.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: r.opts.FramesInFlight,
	})
	if err != nil {
		return err
	}

	for _, buffer := range buffers {
		slot := &frameSlot{
			device:        r.device,
			commandBuffer: buffer,
		}
		r.slots = append(r.slots, slot)

		slot.imageAvailable, _, err = r.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		slot.renderFinished, _, err = r.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		slot.acquireFence, _, err = r.device.CreateFence(nil, core1_0.FenceCreateInfo{})
		if err != nil {
			return err
		}

		slot.inFlight, _, err = r.device.CreateFence(nil, core1_0.FenceCreateInfo{})
		if err != nil {
			return err
		}
	}

	return nil
}

// pending lists the work this slot still has outstanding.
func (s *frameSlot) pending() []present.Future {
	var futures []present.Future
	if s.acquire != nil && !s.acquire.Ready() {
		futures = append(futures, s.acquire)
	}
	if s.submit != nil && !s.submit.Ready() {
		futures = append(futures, s.submit)
	}
	return futures
}

// settle waits for the slot's previous frame and replaces any semaphore
// that was signalled but never waited on, so the slot can be reused.
func (s *frameSlot) settle() error {
	if s.submit != nil {
		err := s.submit.Wait()
		if err != nil {
			return errors.Wrap(err, "wait for previous frame")
		}
		if !s.submit.consumed {
			err = replaceSemaphore(s.device, &s.renderFinished)
			if err != nil {
				return err
			}
		}
		s.submit = nil
	}

	if s.acquire != nil {
		err := s.acquire.Wait()
		if err != nil {
			return errors.Wrap(err, "wait for previous acquire")
		}
		if !s.acquire.consumed {
			err = replaceSemaphore(s.device, &s.imageAvailable)
			if err != nil {
				return err
			}
		}
		s.acquire = nil
	}

	return nil
}

func replaceSemaphore(device core1_0.Device, semaphore *core1_0.Semaphore) error {
	replacement, _, err := device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "replace semaphore")
	}
	(*semaphore).Destroy(nil)
	*semaphore = replacement
	return nil
}

func (s *frameSlot) destroy() {
	if s.imageAvailable != nil {
		s.imageAvailable.Destroy(nil)
	}
	if s.renderFinished != nil {
		s.renderFinished.Destroy(nil)
	}
	if s.acquireFence != nil {
		s.acquireFence.Destroy(nil)
	}
	if s.inFlight != nil {
		s.inFlight.Destroy(nil)
	}
}

// AcquireNextImage asks the swapchain for an image. The returned future
// carries the semaphore the submission waits on before writing the image.
func (r *Renderer) AcquireNextImage() (int, present.Future, error) {
	slot := r.slots[r.current]
	err := slot.settle()
	if err != nil {
		return 0, nil, err
	}

	_, err = r.device.ResetFences([]core1_0.Fence{slot.acquireFence})
	if err != nil {
		return 0, nil, errors.Wrap(err, "reset acquire fence")
	}
	slot.acquireSerial++

	imageIndex, res, err := r.swapchain.AcquireNextImage(common.NoTimeout, slot.imageAvailable, slot.acquireFence)
	if err != nil {
		return 0, nil, classify(res, err)
	}

	// A suboptimal swapchain still hands out a usable image. The present
	// that follows reports it and the loop rebuilds then.
	slot.acquire = &fenceFuture{
		fence:     slot.acquireFence,
		serial:    &slot.acquireSerial,
		want:      slot.acquireSerial,
		semaphore: slot.imageAvailable,
		stage:     core1_0.PipelineStageColorAttachmentOutput,
	}
	return imageIndex, slot.acquire, nil
}

type recordedCommands struct {
	image      int
	generation uint64
	slot       *frameSlot
}

func (c *recordedCommands) Image() int {
	return c.image
}

// Record fills the current slot's command buffer to draw the mesh into the
// given swapchain image.
func (r *Renderer) Record(image int, res present.FrameResources, frame present.FrameState) (present.Commands, error) {
	if r.targets == nil || r.targets.generation != res.Generation {
		return nil, errors.Newf("frame resources generation %d are not the built ones", res.Generation)
	}
	if image < 0 || image >= len(r.targets.framebuffers) {
		return nil, errors.Newf("image %d out of range for %d framebuffers", image, len(r.targets.framebuffers))
	}

	slot := r.slots[r.current]
	buffer := slot.commandBuffer

	_, err := buffer.Reset(0)
	if err != nil {
		return nil, err
	}

	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return nil, err
	}

	extent := core1_0.Extent2D{Width: int(res.Extent.Width), Height: int(res.Extent.Height)}
	clearValues := []core1_0.ClearValue{
		core1_0.ClearValueFloat(res.ClearColor),
	}
	if res.Depth {
		clearValues = append(clearValues, core1_0.ClearValueDepthStencil{Depth: res.ClearDepth, Stencil: 0})
	}

	err = buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.renderPass,
			Framebuffer: r.targets.framebuffers[image],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
			ClearValues: clearValues,
		})
	if err != nil {
		return nil, err
	}

	buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, r.pipeline)
	buffer.CmdSetViewport([]core1_0.Viewport{
		{
			X:        res.Viewport.X,
			Y:        res.Viewport.Y,
			Width:    res.Viewport.Width,
			Height:   res.Viewport.Height,
			MinDepth: res.Viewport.MinDepth,
			MaxDepth: res.Viewport.MaxDepth,
		},
	})
	buffer.CmdSetScissor([]core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: core1_0.Extent2D{Width: int(res.Scissor.Width), Height: int(res.Scissor.Height)},
		},
	})

	constants := buildFrameConstants(res.Extent, frame.Elapsed, r.geometry.center, r.geometry.radius)
	constantBytes, err := constants.bytes()
	if err != nil {
		return nil, err
	}
	buffer.CmdPushConstants(r.pipelineLayout, pushConstantStages, 0, constantBytes)

	buffer.CmdBindVertexBuffers([]core1_0.Buffer{r.geometry.vertexBuffer}, []int{0})
	buffer.CmdBindIndexBuffer(r.geometry.indexBuffer, 0, core1_0.IndexTypeUInt32)
	buffer.CmdDrawIndexed(r.geometry.indexCount, 1, 0, 0, 0)
	buffer.CmdEndRenderPass()

	_, err = buffer.End()
	if err != nil {
		return nil, err
	}

	return &recordedCommands{image: image, generation: res.Generation, slot: slot}, nil
}

// Submit queues recorded commands once after has completed. Semaphores in
// after's chain become GPU waits; anything else is waited on here.
func (r *Renderer) Submit(cmds present.Commands, after present.Future) (present.Future, error) {
	recorded, ok := cmds.(*recordedCommands)
	if !ok {
		return nil, errors.Newf("commands of type %T were not recorded by this renderer", cmds)
	}
	if r.targets == nil || r.targets.generation != recorded.generation {
		return nil, errors.Newf("commands recorded for generation %d are stale", recorded.generation)
	}
	slot := recorded.slot

	gpu, err := r.waitForeign(after)
	if err != nil {
		return nil, err
	}

	var waitSemaphores []core1_0.Semaphore
	var waitStages []core1_0.PipelineStageFlags
	for _, f := range gpu {
		waitSemaphores = append(waitSemaphores, f.semaphore)
		stage := f.stage
		if stage == 0 {
			stage = core1_0.PipelineStageTopOfPipe
		}
		waitStages = append(waitStages, stage)
	}

	_, err = r.device.ResetFences([]core1_0.Fence{slot.inFlight})
	if err != nil {
		return nil, errors.Wrap(err, "reset in-flight fence")
	}
	slot.submitSerial++

	res, err := r.graphicsQueue.Submit(slot.inFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   waitSemaphores,
			WaitDstStageMask: waitStages,
			CommandBuffers:   []core1_0.CommandBuffer{slot.commandBuffer},
			SignalSemaphores: []core1_0.Semaphore{slot.renderFinished},
		},
	})
	if err != nil {
		return nil, classify(res, err)
	}

	for _, f := range gpu {
		f.consumed = true
	}

	slot.submit = &fenceFuture{
		fence:     slot.inFlight,
		serial:    &slot.submitSerial,
		want:      slot.submitSerial,
		semaphore: slot.renderFinished,
	}
	r.current = (r.current + 1) % len(r.slots)
	return slot.submit, nil
}

// Present queues image for display after the work in after. A suboptimal
// swapchain is reported as out of date.
func (r *Renderer) Present(image int, after present.Future) (present.Future, error) {
	gpu, err := r.waitForeign(after)
	if err != nil {
		return nil, err
	}

	var waitSemaphores []core1_0.Semaphore
	for _, f := range gpu {
		waitSemaphores = append(waitSemaphores, f.semaphore)
	}

	res, err := r.swapchainExtension.QueuePresent(r.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: waitSemaphores,
		Swapchains:     []khr_swapchain.Swapchain{r.swapchain},
		ImageIndices:   []int{image},
	})
	if err == nil || res == khr_swapchain.VKErrorOutOfDate {
		for _, f := range gpu {
			f.consumed = true
		}
	}
	if err != nil {
		return nil, classify(res, err)
	}
	if res == khr_swapchain.VKSuboptimal {
		return after, errors.Mark(errors.New("swapchain is suboptimal"), present.ErrOutOfDate)
	}

	return after, nil
}

func (r *Renderer) waitForeign(after present.Future) ([]*fenceFuture, error) {
	gpu, cpu := gpuWaits(after)
	for _, f := range cpu {
		err := f.Wait()
		if err != nil {
			return nil, errors.Wrap(err, "wait for prior work")
		}
	}
	return gpu, nil
}
