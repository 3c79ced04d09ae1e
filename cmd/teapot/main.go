// Command teapot opens a window and spins a lit mesh in it with Vulkan,
// rebuilding the swapchain whenever the window changes size.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/teapot/internal/assets"
	"github.com/vkngwrapper/teapot/internal/config"
	"github.com/vkngwrapper/teapot/internal/present"
	"github.com/vkngwrapper/teapot/internal/renderer"
	"github.com/vkngwrapper/teapot/internal/window"
)

func init() {
	// SDL and the Vulkan surface must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	log.SetPrefix("teapot: ")
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		log.Fatalf("%+v\n", err)
	}

	err = run(cfg)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bundle, err := assets.Load(ctx, cfg.Mesh)
	if err != nil {
		return errors.Wrap(err, "load assets")
	}

	win, err := window.Open(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := renderer.New(win.Handle(), renderer.Options{
		AppName:        cfg.Window.Title,
		Validation:     cfg.Render.Validation,
		Depth:          cfg.Render.Depth,
		FramesInFlight: cfg.Swapchain.ImageCount,
	}, bundle)
	if err != nil {
		return errors.Wrap(err, "initialize vulkan")
	}
	defer r.Destroy()

	loop := present.NewLoop(r, win, cfg.Surface(), log.Default())
	return loop.Run(ctx)
}
