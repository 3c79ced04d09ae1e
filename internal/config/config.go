// Package config resolves the demo's settings from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/vkngwrapper/teapot/internal/present"
)

type Config struct {
	Window    Window    `yaml:"window"`
	Swapchain Swapchain `yaml:"swapchain"`
	Render    Render    `yaml:"render"`
	// Mesh is "triangle", the name of a bundled mesh, or a path to an .obj file.
	Mesh string `yaml:"mesh"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type Swapchain struct {
	ImageCount  int    `yaml:"image_count"`
	PresentMode string `yaml:"present_mode"`
	Clipped     bool   `yaml:"clipped"`
}

type Render struct {
	Depth      bool      `yaml:"depth"`
	Validation bool      `yaml:"validation"`
	ClearColor []float32 `yaml:"clear_color"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Vulkan Render Engine",
			Width:  800,
			Height: 600,
		},
		Swapchain: Swapchain{
			ImageCount:  present.DefaultImageCount,
			PresentMode: string(present.PresentModeFIFO),
			Clipped:     true,
		},
		Render: Render{
			Depth:      true,
			Validation: false,
			ClearColor: []float32{0.0, 0.3, 0.6, 1.0},
		},
		Mesh: "teapot",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err = decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, nil
}

// Parse builds the configuration from command-line arguments. A -config
// file replaces the defaults and the remaining flags override the file.
func Parse(name string, args []string) (Config, error) {
	cfg := Default()
	var path string

	fs := newFlagSet(name, &cfg, &path)
	err := fs.Parse(args)
	if err != nil {
		return cfg, err
	}

	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			return cfg, err
		}

		fs = newFlagSet(name, &cfg, &path)
		err = fs.Parse(args)
		if err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

func newFlagSet(name string, cfg *Config, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(path, "config", *path, "YAML configuration file")
	fs.StringVar(&cfg.Window.Title, "title", cfg.Window.Title, "window title")
	fs.IntVar(&cfg.Window.Width, "width", cfg.Window.Width, "initial window width")
	fs.IntVar(&cfg.Window.Height, "height", cfg.Window.Height, "initial window height")
	fs.IntVar(&cfg.Swapchain.ImageCount, "images", cfg.Swapchain.ImageCount, "swapchain images to request")
	fs.StringVar(&cfg.Swapchain.PresentMode, "present-mode", cfg.Swapchain.PresentMode, "fifo, mailbox or immediate")
	fs.BoolVar(&cfg.Render.Depth, "depth", cfg.Render.Depth, "enable depth testing")
	fs.BoolVar(&cfg.Render.Validation, "validation", cfg.Render.Validation, "enable the Khronos validation layer")
	fs.Var((*colorFlag)(&cfg.Render.ClearColor), "clear-color", "clear color as r,g,b,a")
	fs.StringVar(&cfg.Mesh, "mesh", cfg.Mesh, "triangle, cube, teapot or a path to an .obj file")
	return fs
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Swapchain.ImageCount < 1 {
		return errors.Newf("swapchain image count %d must be at least 1", c.Swapchain.ImageCount)
	}

	switch present.PresentMode(c.Swapchain.PresentMode) {
	case present.PresentModeFIFO, present.PresentModeMailbox, present.PresentModeImmediate:
	default:
		return errors.Newf("unknown present mode %q", c.Swapchain.PresentMode)
	}

	if len(c.Render.ClearColor) != 4 {
		return errors.Newf("clear color needs 4 components, got %d", len(c.Render.ClearColor))
	}
	if c.Mesh == "" {
		return errors.New("mesh must not be empty")
	}

	return nil
}

// Surface converts the swapchain and render settings for the presentation
// loop. Validate must have succeeded.
func (c Config) Surface() present.SurfaceConfig {
	var clear [4]float32
	copy(clear[:], c.Render.ClearColor)

	return present.SurfaceConfig{
		ImageCount:  c.Swapchain.ImageCount,
		PresentMode: present.PresentMode(c.Swapchain.PresentMode),
		Clipped:     c.Swapchain.Clipped,
		Depth:       c.Render.Depth,
		ClearColor:  clear,
	}
}

type colorFlag []float32

func (f *colorFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(*f))
	for i, v := range *f {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

func (f *colorFlag) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return errors.Newf("want r,g,b,a, got %q", value)
	}

	color := make([]float32, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return errors.Wrapf(err, "color component %d", i)
		}
		color[i] = float32(v)
	}
	*f = color
	return nil
}
