// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package filter is the public surface of the image-denoising engine:
// a named-parameter setter API over the tile-driven execution-graph
// orchestrator in internal/filter.
package filter

import (
	"context"
	"fmt"

	"github.com/lumenforge/denoise/device"
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	internalfilter "github.com/lumenforge/denoise/internal/filter"
	"github.com/lumenforge/denoise/weights"
)

// SyncMode controls whether Execute waits for the backend to drain
// before returning.
type SyncMode = internalfilter.SyncMode

const (
	Async = internalfilter.Async
	Sync  = internalfilter.Sync
)

// Filter is the denoising filter: set its named parameters, Commit,
// then Execute. It is not safe for concurrent use by multiple
// goroutines.
type Filter struct {
	orch *internalfilter.Orchestrator
	log  device.Log
}

// Config is the device-level configuration a Filter runs against.
type Config struct {
	NumEngines        int
	Alignment         int
	Overlap           int
	MaxMemoryByteSize uint64
}

// New constructs a Filter driving eng through cfg. If log is nil,
// warnings are sent to the standard library logger.
func New(eng engine.Engine, cfg Config, log device.Log) *Filter {
	if log == nil {
		log = device.NewStdLog()
	}
	return &Filter{orch: internalfilter.New(eng, cfg.NumEngines, cfg.Alignment, cfg.Overlap, cfg.MaxMemoryByteSize, log), log: log}
}

// SetImage binds an image parameter by name: "color", "albedo",
// "normal" or "output". An unknown name is a Warning, logged and
// otherwise ignored.
func (f *Filter) SetImage(name string, img imagebuf.Image) {
	switch name {
	case "color":
		f.orch.SetColor(img, true)
	case "albedo":
		f.orch.SetAlbedo(img, true)
	case "normal":
		f.orch.SetNormal(img, true)
	case "output":
		f.orch.SetOutput(img, true)
	default:
		f.log.Warning(fmt.Sprintf("unknown image parameter %q", name))
	}
}

// UnsetImage clears a previously bound image parameter.
func (f *Filter) UnsetImage(name string) {
	switch name {
	case "color":
		f.orch.SetColor(imagebuf.Image{}, false)
	case "albedo":
		f.orch.SetAlbedo(imagebuf.Image{}, false)
	case "normal":
		f.orch.SetNormal(imagebuf.Image{}, false)
	case "output":
		f.orch.SetOutput(imagebuf.Image{}, false)
	default:
		f.log.Warning(fmt.Sprintf("unknown image parameter %q", name))
	}
}

// SetData binds the user-supplied weight blob, overriding the built-in
// selection. name must be "weights".
func (f *Filter) SetData(name string, blob weights.Blob) {
	if name != "weights" {
		f.log.Warning(fmt.Sprintf("unknown data parameter %q", name))
		return
	}
	f.orch.SetWeights(blob)
}

// SetFloat sets a float parameter: "inputScale" (alias "hdrScale").
func (f *Filter) SetFloat(name string, v float32) {
	switch name {
	case "inputScale", "hdrScale":
		f.orch.SetInputScale(v)
	default:
		f.log.Warning(fmt.Sprintf("unknown float parameter %q", name))
	}
}

// SetBool sets a boolean parameter: "hdr", "srgb", "directional" or
// "cleanAux".
func (f *Filter) SetBool(name string, v bool) {
	switch name {
	case "hdr":
		f.orch.SetHDR(v)
	case "srgb":
		f.orch.SetSRGB(v)
	case "directional":
		f.orch.SetDirectional(v)
	case "cleanAux":
		f.orch.SetCleanAux(v)
	default:
		f.log.Warning(fmt.Sprintf("unknown bool parameter %q", name))
	}
}

// Commit validates the current parameters and (re)builds the execution
// graphs if anything changed since the last commit.
func (f *Filter) Commit() error { return f.orch.Commit() }

// Progress is called after each unit of work completes; returning
// false requests cooperative cancellation.
type Progress func(done, total int) bool

// Execute runs the filter over the bound images. ctx is checked for
// cancellation between tile submissions.
func (f *Filter) Execute(ctx context.Context, mode SyncMode, progress Progress) error {
	var cb func(done, total int) bool
	if progress != nil {
		cb = progress
	}
	return f.orch.Execute(ctx, mode, cb)
}
