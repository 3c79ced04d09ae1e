package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/teapot/internal/present"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teapot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	surface := cfg.Surface()
	require.Equal(t, 3, surface.ImageCount)
	require.Equal(t, present.PresentModeFIFO, surface.PresentMode)
	require.True(t, surface.Depth)
	require.Equal(t, [4]float32{0, 0.3, 0.6, 1}, surface.ClearColor)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse("teapot", []string{"-width", "1024", "-mesh", "cube", "-clear-color", "1,0,0,1", "-depth=false"})
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.Window.Width)
	require.Equal(t, 600, cfg.Window.Height)
	require.Equal(t, "cube", cfg.Mesh)
	require.Equal(t, []float32{1, 0, 0, 1}, cfg.Render.ClearColor)
	require.False(t, cfg.Render.Depth)
}

func TestParseFileThenFlags(t *testing.T) {
	path := writeConfig(t, `
window:
  title: teapot
  width: 1280
  height: 720
swapchain:
  present_mode: mailbox
mesh: meshes/teapot.obj
`)

	cfg, err := Parse("teapot", []string{"-config", path, "-height", "900"})
	require.NoError(t, err)
	require.Equal(t, "teapot", cfg.Window.Title)
	require.Equal(t, 1280, cfg.Window.Width)
	require.Equal(t, 900, cfg.Window.Height)
	require.Equal(t, "mailbox", cfg.Swapchain.PresentMode)
	require.Equal(t, 3, cfg.Swapchain.ImageCount)
	require.Equal(t, "meshes/teapot.obj", cfg.Mesh)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "windw:\n  width: 10\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"no images", func(c *Config) { c.Swapchain.ImageCount = 0 }},
		{"present mode", func(c *Config) { c.Swapchain.PresentMode = "vsync" }},
		{"clear color", func(c *Config) { c.Render.ClearColor = []float32{1, 1, 1} }},
		{"mesh", func(c *Config) { c.Mesh = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestClearColorFlagRejectsGarbage(t *testing.T) {
	_, err := Parse("teapot", []string{"-clear-color", "1,0,0"})
	require.Error(t, err)

	_, err = Parse("teapot", []string{"-clear-color", "1,0,x,1"})
	require.Error(t, err)
}
