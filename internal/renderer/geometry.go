package renderer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/teapot/internal/mesh"
)

// geometry is the mesh as device-local vertex and index buffers.
type geometry struct {
	vertexBuffer core1_0.Buffer
	vertexMemory core1_0.DeviceMemory
	indexBuffer  core1_0.Buffer
	indexMemory  core1_0.DeviceMemory
	indexCount   int

	center mgl32.Vec3
	radius float32
}

func (r *Renderer) uploadGeometry(m *mesh.Mesh) error {
	if m == nil {
		return errors.New("no mesh")
	}

	vertices, indices := m.Vertices()
	if len(indices) == 0 {
		return errors.New("mesh has no triangles")
	}

	var err error
	r.geometry.vertexBuffer, r.geometry.vertexMemory, err = r.uploadBuffer(vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}

	r.geometry.indexBuffer, r.geometry.indexMemory, err = r.uploadBuffer(indices, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		return errors.Wrap(err, "index buffer")
	}

	r.geometry.indexCount = len(indices)
	r.geometry.center, r.geometry.radius = m.Bounds()
	return nil
}

// uploadBuffer copies data into a new device-local buffer through a
// host-visible staging buffer.
func (r *Renderer) uploadBuffer(data any, usage core1_0.BufferUsageFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	bufferSize := binary.Size(data)

	stagingBuffer, stagingBufferMemory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if stagingBuffer != nil {
		defer stagingBuffer.Destroy(nil)
	}
	if stagingBufferMemory != nil {
		defer stagingBufferMemory.Free(nil)
	}

	if err != nil {
		return nil, nil, err
	}

	err = writeData(stagingBufferMemory, 0, data)
	if err != nil {
		return nil, nil, err
	}

	buffer, memory, err := r.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err == nil {
		err = r.copyBuffer(stagingBuffer, buffer, bufferSize)
	}
	if err != nil {
		if buffer != nil {
			buffer.Destroy(nil)
		}
		if memory != nil {
			memory.Free(nil)
		}
		return nil, nil, err
	}

	return buffer, memory, nil
}

func (g *geometry) destroy() {
	if g.indexBuffer != nil {
		g.indexBuffer.Destroy(nil)
		g.indexBuffer = nil
	}
	if g.indexMemory != nil {
		g.indexMemory.Free(nil)
		g.indexMemory = nil
	}
	if g.vertexBuffer != nil {
		g.vertexBuffer.Destroy(nil)
		g.vertexBuffer = nil
	}
	if g.vertexMemory != nil {
		g.vertexMemory.Free(nil)
		g.vertexMemory = nil
	}
}
