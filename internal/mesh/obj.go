package mesh

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// DecodeOBJ parses a Wavefront OBJ stream. Polygons are split into
// triangle fans; materials are ignored.
func DecodeOBJ(r io.Reader) (*Mesh, error) {
	decoder, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	m := &Mesh{}
	for i := 0; i+2 < len(decoder.Vertices); i += 3 {
		m.Positions = append(m.Positions, mgl32.Vec3{decoder.Vertices[i], decoder.Vertices[i+1], decoder.Vertices[i+2]})
	}
	for i := 0; i+2 < len(decoder.Normals); i += 3 {
		m.Normals = append(m.Normals, mgl32.Vec3{decoder.Normals[i], decoder.Normals[i+1], decoder.Normals[i+2]})
	}
	for i := 0; i+1 < len(decoder.Uvs); i += 2 {
		m.TexCoords = append(m.TexCoords, mgl32.Vec2{decoder.Uvs[i], decoder.Uvs[i+1]})
	}

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				m.addTriangle(face, 0, i-1, i)
			}
		}
	}

	err = m.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}
	return m, nil
}

func (m *Mesh) addTriangle(face obj.Face, a, b, c int) {
	corners := [3]int{a, b, c}

	for _, corner := range corners {
		m.Indices.V = append(m.Indices.V, uint32(face.Vertices[corner]))
	}

	if vt, ok := lookup(face.Uvs, corners, len(m.TexCoords)); ok {
		m.Indices.VT = append(m.Indices.VT, vt[:]...)
	}
	if vn, ok := lookup(face.Normals, corners, len(m.Normals)); ok {
		m.Indices.VN = append(m.Indices.VN, vn[:]...)
	}
}

// lookup returns the three indices of a triangle from a per-face index list,
// or false when any of them is missing.
func lookup(indices []int, corners [3]int, count int) ([3]uint32, bool) {
	var out [3]uint32
	for i, corner := range corners {
		if corner >= len(indices) {
			return out, false
		}
		index := indices[corner]
		if index < 0 || index >= count {
			return out, false
		}
		out[i] = uint32(index)
	}
	return out, true
}
