package renderer

import (
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/teapot/internal/present"
)

// fenceFuture completes when a frame slot's fence signals. Fences are
// reused across frames, so the future also remembers which use of the
// fence it belongs to: once the slot has moved past that serial the work
// is known to be done without touching the fence again.
//
// A GPU consumer can wait on semaphore instead of the fence. The
// semaphore may be waited on exactly once.
type fenceFuture struct {
	fence  core1_0.Fence
	serial *uint64
	want   uint64

	semaphore core1_0.Semaphore
	stage     core1_0.PipelineStageFlags
	consumed  bool
}

func (f *fenceFuture) Ready() bool {
	if *f.serial != f.want {
		return true
	}
	res, err := f.fence.Status()
	return err == nil && res == core1_0.VKSuccess
}

func (f *fenceFuture) Wait() error {
	if *f.serial != f.want {
		return nil
	}
	return classify(f.fence.Wait(common.NoTimeout))
}

// gpuWaits splits a future chain into semaphores the next queue operation
// can wait on and foreign futures the CPU must wait for first. Our own
// futures whose semaphore was already consumed are ordered by the queue
// and need nothing.
func gpuWaits(after present.Future) ([]*fenceFuture, []present.Future) {
	var gpu []*fenceFuture
	var cpu []present.Future

	for _, leaf := range present.Flatten(after) {
		ff, ok := leaf.(*fenceFuture)
		if ok {
			if ff.semaphore != nil && !ff.consumed {
				gpu = append(gpu, ff)
			}
			continue
		}
		if !leaf.Ready() {
			cpu = append(cpu, leaf)
		}
	}
	return gpu, cpu
}
