package renderer

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/common"

	"github.com/vkngwrapper/teapot/internal/present"
)

// frameConstants mirrors the FrameConstants push constant block in the
// shaders.
type frameConstants struct {
	MVP   mgl32.Mat4
	Light mgl32.Vec4
	Tint  mgl32.Vec4
}

const frameConstantsSize = 96

// One turn every eight seconds.
const radiansPerSecond = math.Pi / 4

var (
	cameraEye   = mgl32.Vec3{0, 0.5, 3}
	worldLight  = mgl32.Vec3{-1, 1, 1}
	fieldOfView = mgl32.DegToRad(45)
)

// buildFrameConstants places the mesh, normalized to the unit sphere, in
// front of the camera and spins it around Y. The tint's red channel ramps
// up once a second.
func buildFrameConstants(extent present.Extent, elapsed time.Duration, center mgl32.Vec3, radius float32) frameConstants {
	if radius <= 0 {
		radius = 1
	}
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}

	angle := float32(elapsed.Seconds() * radiansPerSecond)
	rotation := mgl32.HomogRotate3DY(angle)
	model := rotation.Mul4(mgl32.Scale3D(1/radius, 1/radius, 1/radius)).Mul4(mgl32.Translate3D(-center.X(), -center.Y(), -center.Z()))

	view := mgl32.LookAtV(cameraEye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	proj := mgl32.Perspective(fieldOfView, aspect, 0.1, 10)
	// Vulkan's clip space Y points down
	proj[5] *= -1

	// The fragment shader lights in model space
	light := rotation.Transpose().Mul4x1(worldLight.Normalize().Vec4(0))

	ms := elapsed.Milliseconds()
	tint := mgl32.Vec4{float32(ms%1000) / 1000, 0.5, 0.5, 1}

	return frameConstants{
		MVP:   proj.Mul4(view).Mul4(model),
		Light: light,
		Tint:  tint,
	}
}

func (c frameConstants) bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, c)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
