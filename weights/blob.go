// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package weights defines the narrow interface the graph builder
// consumes to read a trained network's weight blob. The binary format
// that actually produces a Blob is an external collaborator; see
// internal/weights/tza for the one concrete parser this module ships.
package weights

import "github.com/lumenforge/denoise/tensor"

// Blob is an opaque binary container indexed by string keys. The
// builder requires two entries per convolutional op: "<opName>.weight"
// (rank-4 tensor, canonical oihw, half) and "<opName>.bias" (rank-1
// tensor, x layout, half).
type Blob interface {
	// Get looks up name and reports whether it was present.
	Get(name string) (tensor.Tensor, bool)
}
