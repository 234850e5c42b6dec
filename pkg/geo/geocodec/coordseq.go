// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geocodec

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// CoordSeqFactory builds the coordinate storage of every geometry component
// produced by Decode. Create must return a slice that does not alias
// flatCoords.
type CoordSeqFactory interface {
	Create(flatCoords []float64) []float64
	String() string
}

// ArrayCoordSeqFactory stores coordinates in an exact-size float64 slice.
type ArrayCoordSeqFactory struct{}

var _ CoordSeqFactory = ArrayCoordSeqFactory{}

// Create implements the CoordSeqFactory interface.
func (ArrayCoordSeqFactory) Create(flatCoords []float64) []float64 {
	out := make([]float64, len(flatCoords))
	copy(out, flatCoords)
	return out
}

func (ArrayCoordSeqFactory) String() string { return "array" }

// PackedFloat32CoordSeqFactory stores coordinates packed to float32
// precision, trading accuracy for a smaller footprint once the geometry is
// stored elsewhere.
type PackedFloat32CoordSeqFactory struct{}

var _ CoordSeqFactory = PackedFloat32CoordSeqFactory{}

// Create implements the CoordSeqFactory interface.
func (PackedFloat32CoordSeqFactory) Create(flatCoords []float64) []float64 {
	out := make([]float64, len(flatCoords))
	for i, v := range flatCoords {
		out[i] = float64(float32(v))
	}
	return out
}

func (PackedFloat32CoordSeqFactory) String() string { return "packed32" }

// ParseCoordSeqFactory returns the factory named by name.
func ParseCoordSeqFactory(name string) (CoordSeqFactory, error) {
	switch strings.ToLower(name) {
	case "", "array":
		return ArrayCoordSeqFactory{}, nil
	case "packed32", "packed-float32":
		return PackedFloat32CoordSeqFactory{}, nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown coordinate sequence %q", name),
			"supported sequences are array and packed32",
		)
	}
}
