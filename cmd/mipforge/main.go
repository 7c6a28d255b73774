package main

import (
	"flag"
	"log"

	"github.com/mipforge/mipforge/app"
	"github.com/mipforge/mipforge/device"
)

func main() {
	imagePath := flag.String("image", "", "input image (PNG, JPEG, BMP, TIFF, or WebP); a test pattern is used when empty")
	outputPath := flag.String("output", "output", "output path prefix; level N is written to <prefix>.mipN.png")
	shaderPath := flag.String("shader", "resources/compute-shader.wgsl", "WGSL downsample compute shader")
	software := flag.Bool("software", false, "force the CPU fallback adapter")
	uncapped := flag.Bool("uncapped", false, "present without vsync")
	profile := flag.Bool("profile", false, "log FPS, heap, and compute pass stats")
	width := flag.Int("width", 640, "initial window width")
	height := flag.Int("height", 480, "initial window height")
	flag.Parse()

	presentMode := device.PresentModeVSync
	if *uncapped {
		presentMode = device.PresentModeUncapped
	}

	a := app.New(
		app.WithImagePath(*imagePath),
		app.WithOutputPath(*outputPath),
		app.WithShaderPath(*shaderPath),
		app.WithForceSoftwareRenderer(*software),
		app.WithPresentMode(presentMode),
		app.WithProfiling(*profile),
		app.WithWindowSize(*width, *height),
	)
	if err := a.Run(); err != nil {
		log.Fatalf("mipforge: %v", err)
	}
}
