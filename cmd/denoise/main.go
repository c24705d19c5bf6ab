// Package main is a small CLI driver for the denoising filter: it reads
// raw interleaved-float3 planar buffers for color/albedo/normal, runs
// the filter, and writes the float3 output buffer back to disk. It
// exists for manual end-to-end checks, not as a format-complete
// image-processing tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lumenforge/denoise/device"
	"github.com/lumenforge/denoise/filter"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/config"
	"github.com/lumenforge/denoise/internal/engine/cpu"
	"github.com/lumenforge/denoise/internal/weights/tza"
)

const version = "v0.1.0-dev"

func main() {
	width := flag.Int("width", 0, "image width in pixels")
	height := flag.Int("height", 0, "image height in pixels")
	colorPath := flag.String("color", "", "path to a raw interleaved float3 color buffer")
	albedoPath := flag.String("albedo", "", "path to a raw interleaved float3 albedo buffer (optional)")
	normalPath := flag.String("normal", "", "path to a raw interleaved float3 normal buffer (optional)")
	outputPath := flag.String("output", "", "path to write the denoised float3 output buffer")
	weightsPath := flag.String("weights", "", "path to a tza weight blob")
	configPath := flag.String("config", "", "path to a device config YAML file (optional)")
	hdr := flag.Bool("hdr", false, "treat color as HDR linear radiance")
	srgb := flag.Bool("srgb", false, "treat color as sRGB-encoded LDR")
	directional := flag.Bool("directional", false, "treat color as directional/auxiliary data")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("denoise %s\n", version)
		return
	}

	if err := run(*width, *height, *colorPath, *albedoPath, *normalPath, *outputPath, *weightsPath, *configPath, *hdr, *srgb, *directional); err != nil {
		fmt.Fprintln(os.Stderr, "denoise:", err)
		os.Exit(1)
	}
}

func run(width, height int, colorPath, albedoPath, normalPath, outputPath, weightsPath, configPath string, hdr, srgb, directional bool) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if colorPath == "" || outputPath == "" {
		return fmt.Errorf("-color and -output are required")
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading device config: %w", err)
		}
	}

	color, err := readImage(colorPath, width, height)
	if err != nil {
		return fmt.Errorf("reading color: %w", err)
	}
	output := imagebuf.New(make([]byte, width*height*imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, width, height)

	eng := cpu.New()
	maxMemory := uint64(cfg.MaxMemoryMB) * 1024 * 1024
	if maxMemory == 0 {
		maxMemory = 600 * 1024 * 1024 * uint64(eng.DataType().Size())
	}

	f := filter.New(eng, filter.Config{
		NumEngines: cfg.NumEngines, Alignment: cfg.Alignment, Overlap: cfg.Overlap, MaxMemoryByteSize: maxMemory,
	}, device.NewStdLog())

	f.SetImage("color", color)
	f.SetImage("output", output)
	if albedoPath != "" {
		albedo, err := readImage(albedoPath, width, height)
		if err != nil {
			return fmt.Errorf("reading albedo: %w", err)
		}
		f.SetImage("albedo", albedo)
	}
	if normalPath != "" {
		normal, err := readImage(normalPath, width, height)
		if err != nil {
			return fmt.Errorf("reading normal: %w", err)
		}
		f.SetImage("normal", normal)
	}
	if weightsPath != "" {
		blob, err := tza.LoadFile(weightsPath)
		if err != nil {
			return fmt.Errorf("loading weights: %w", err)
		}
		f.SetData("weights", blob)
	}
	f.SetBool("hdr", hdr)
	f.SetBool("srgb", srgb)
	f.SetBool("directional", directional)

	if err := f.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if err := f.Execute(context.Background(), filter.Sync, nil); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	return os.WriteFile(outputPath, output.Buffer, 0o644)
}

func readImage(path string, width, height int) (imagebuf.Image, error) {
	//nolint:gosec // G304: path comes from the caller, not untrusted user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return imagebuf.Image{}, err
	}
	want := width * height * imagebuf.Float3.BytesPerPixel()
	if len(data) != want {
		return imagebuf.Image{}, fmt.Errorf("%s: expected %d bytes for %dx%d float3, got %d", path, want, width, height, len(data))
	}
	return imagebuf.New(data, imagebuf.Float3, width, height), nil
}
