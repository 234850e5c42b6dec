// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geopb

import (
	"fmt"
	"math"
)

// BoundingBox is the planar XY extent of a geometry.
type BoundingBox struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// NewBoundingBox returns a properly initialized bounding box. It contains no
// points until Update is called.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinX: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64,
		MaxY: -math.MaxFloat64,
	}
}

// Update updates the BoundingBox coordinates.
func (b *BoundingBox) Update(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// Empty returns whether Update has never been called on b.
func (b *BoundingBox) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b *BoundingBox) String() string {
	if b.Empty() {
		return "EMPTY"
	}
	return fmt.Sprintf("(%g %g, %g %g)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
