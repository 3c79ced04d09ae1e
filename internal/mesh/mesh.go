// Package mesh holds the static geometry drawn by the demo: the built-in
// triangle and meshes decoded from Wavefront OBJ files.
package mesh

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// Indices are per-corner triangle index lists into the position, normal and
// texture coordinate arrays of a Mesh. VN and VT are empty when the source
// did not supply them.
type Indices struct {
	V  []uint32
	VN []uint32
	VT []uint32
}

type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Indices   Indices
}

// Vertex is the interleaved layout consumed by the vertex shader.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// Triangle returns the single triangle shown when no model is configured.
func Triangle() *Mesh {
	return &Mesh{
		Positions: []mgl32.Vec3{
			{-0.5, -0.25, 0},
			{0, 0.5, 0},
			{0.25, -0.1, 0},
		},
		Normals: []mgl32.Vec3{
			{0, 0, 1},
		},
		Indices: Indices{
			V:  []uint32{0, 1, 2},
			VN: []uint32{0, 0, 0},
		},
	}
}

func (m *Mesh) Validate() error {
	if len(m.Indices.V) == 0 {
		return errors.New("mesh has no triangles")
	}
	if len(m.Indices.V)%3 != 0 {
		return errors.Newf("mesh has %d corner indices, not a multiple of 3", len(m.Indices.V))
	}

	err := checkRange("position", m.Indices.V, len(m.Positions))
	if err != nil {
		return err
	}
	err = checkRange("normal", m.Indices.VN, len(m.Normals))
	if err != nil {
		return err
	}
	return checkRange("texture coordinate", m.Indices.VT, len(m.TexCoords))
}

func checkRange(kind string, indices []uint32, count int) error {
	for i, index := range indices {
		if int(index) >= count {
			return errors.Newf("%s index %d at corner %d out of range (%d available)", kind, index, i, count)
		}
	}
	return nil
}

// Vertices de-indexes the mesh into interleaved vertices and a single index
// list. Corners sharing a position and normal are merged. When the normal
// indices do not cover every corner, flat face normals are generated.
func (m *Mesh) Vertices() ([]Vertex, []uint32) {
	var vertices []Vertex
	indices := make([]uint32, 0, len(m.Indices.V))

	if len(m.Indices.VN) != len(m.Indices.V) {
		for corner, v := range m.Indices.V {
			indices = append(indices, uint32(len(vertices)))
			vertices = append(vertices, Vertex{
				Position: m.Positions[v],
				Normal:   m.faceNormal(corner / 3),
			})
		}
		return vertices, indices
	}

	unique := make(map[[2]uint32]uint32)
	for corner, v := range m.Indices.V {
		key := [2]uint32{v, m.Indices.VN[corner]}
		index, exists := unique[key]
		if !exists {
			index = uint32(len(vertices))
			vertices = append(vertices, Vertex{
				Position: m.Positions[v],
				Normal:   m.Normals[key[1]],
			})
			unique[key] = index
		}
		indices = append(indices, index)
	}

	return vertices, indices
}

func (m *Mesh) faceNormal(face int) mgl32.Vec3 {
	a := m.Positions[m.Indices.V[face*3]]
	b := m.Positions[m.Indices.V[face*3+1]]
	c := m.Positions[m.Indices.V[face*3+2]]

	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// Bounds returns the center of the axis-aligned bounding box and the radius
// of the sphere around it that contains every position.
func (m *Mesh) Bounds() (mgl32.Vec3, float32) {
	if len(m.Positions) == 0 {
		return mgl32.Vec3{}, 0
	}

	lo, hi := m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < lo[axis] {
				lo[axis] = p[axis]
			}
			if p[axis] > hi[axis] {
				hi[axis] = p[axis]
			}
		}
	}

	center := lo.Add(hi).Mul(0.5)
	var radius float32
	for _, p := range m.Positions {
		if d := p.Sub(center).Len(); d > radius {
			radius = d
		}
	}
	return center, radius
}
