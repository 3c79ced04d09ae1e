// Package assets bundles the shaders and meshes the demo ships with.
//
// The SPIR-V modules are produced from the GLSL sources by glslc:
//
//	go generate ./internal/assets
package assets

import (
	"context"
	"embed"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/teapot/internal/mesh"
)

//go:generate glslc shaders/mesh.vert -o shaders/mesh.vert.spv
//go:generate glslc shaders/mesh.frag -o shaders/mesh.frag.spv

//go:embed shaders meshes
var fileSystem embed.FS

const (
	MeshTriangle = "triangle"
	MeshCube     = "cube"
	MeshTeapot   = "teapot"
)

type Bundle struct {
	VertexShader   []byte
	FragmentShader []byte
	Mesh           *mesh.Mesh
}

// Load reads both shader stages and the named mesh concurrently.
func Load(ctx context.Context, meshName string) (*Bundle, error) {
	bundle := &Bundle{}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		bundle.VertexShader, err = readShader(ctx, "mesh.vert.spv")
		return err
	})
	group.Go(func() error {
		var err error
		bundle.FragmentShader, err = readShader(ctx, "mesh.frag.spv")
		return err
	})
	group.Go(func() error {
		var err error
		bundle.Mesh, err = LoadMesh(meshName)
		return err
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func readShader(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, err := fileSystem.ReadFile(path.Join("shaders", name))
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s (run go generate ./internal/assets)", name)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader %s is not SPIR-V: %d bytes", name, len(code))
	}
	return code, nil
}

// LoadMesh resolves a mesh name: the built-in triangle, a mesh bundled
// under meshes/, or a path to an OBJ file on disk.
func LoadMesh(name string) (*mesh.Mesh, error) {
	if name == "" || name == MeshTriangle {
		return mesh.Triangle(), nil
	}

	var r io.ReadCloser
	var err error
	if strings.HasSuffix(name, ".obj") {
		r, err = os.Open(name)
	} else {
		r, err = fileSystem.Open(path.Join("meshes", name+".obj"))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh %q", name)
	}
	defer r.Close()

	log.Printf("loading mesh %s", name)
	m, err := mesh.DecodeOBJ(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load mesh %q", name)
	}
	log.Printf("loaded mesh %s: %d positions, %d triangles", name, len(m.Positions), len(m.Indices.V)/3)

	return m, nil
}
