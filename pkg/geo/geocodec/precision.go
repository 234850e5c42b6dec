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
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// PrecisionModelType is the rounding policy of a PrecisionModel.
type PrecisionModelType int

const (
	// Floating keeps full float64 precision.
	Floating PrecisionModelType = iota
	// FloatingSingle rounds ordinates to float32 precision.
	FloatingSingle
	// Fixed snaps ordinates to a grid of 1/scale.
	Fixed
)

// PrecisionModel describes how X and Y ordinates of decoded geometries are
// rounded. The zero value is the Floating model.
type PrecisionModel struct {
	typ   PrecisionModelType
	scale float64
}

// NewFloatingPrecisionModel returns the full precision model.
func NewFloatingPrecisionModel() PrecisionModel {
	return PrecisionModel{typ: Floating}
}

// NewFloatingSinglePrecisionModel returns the float32 precision model.
func NewFloatingSinglePrecisionModel() PrecisionModel {
	return PrecisionModel{typ: FloatingSingle}
}

// NewFixedPrecisionModel returns a model snapping ordinates to multiples of
// 1/scale. A scale of 1000 keeps three decimal places.
func NewFixedPrecisionModel(scale float64) (PrecisionModel, error) {
	pm := PrecisionModel{typ: Fixed, scale: scale}
	if err := pm.validate(); err != nil {
		return PrecisionModel{}, err
	}
	return pm, nil
}

// ParsePrecisionModel returns the model named by name. scale is only used
// for the fixed model.
func ParsePrecisionModel(name string, scale float64) (PrecisionModel, error) {
	switch strings.ToLower(name) {
	case "", "floating":
		return NewFloatingPrecisionModel(), nil
	case "floating-single", "floating_single", "single":
		return NewFloatingSinglePrecisionModel(), nil
	case "fixed":
		return NewFixedPrecisionModel(scale)
	default:
		return PrecisionModel{}, errors.WithHint(
			errors.Newf("unknown precision model %q", name),
			"supported models are floating, floating-single and fixed",
		)
	}
}

func (pm PrecisionModel) validate() error {
	switch pm.typ {
	case Floating, FloatingSingle:
		return nil
	case Fixed:
		if !(pm.scale > 0) || math.IsInf(pm.scale, 0) {
			return errors.WithHint(
				errors.Newf("invalid fixed precision scale %v", pm.scale),
				"the scale must be a finite number greater than zero",
			)
		}
		return nil
	default:
		return errors.AssertionFailedf("unknown precision model type %d", pm.typ)
	}
}

// Type returns the rounding policy.
func (pm PrecisionModel) Type() PrecisionModelType { return pm.typ }

// Scale returns the grid scale of a Fixed model, and 0 otherwise.
func (pm PrecisionModel) Scale() float64 {
	if pm.typ != Fixed {
		return 0
	}
	return pm.scale
}

// IsFloating returns whether the model leaves float64 values untouched.
func (pm PrecisionModel) IsFloating() bool { return pm.typ == Floating }

// MakePrecise rounds v according to the model. NaN, which encodes the
// ordinates of an empty point, is returned unchanged.
func (pm PrecisionModel) MakePrecise(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	switch pm.typ {
	case FloatingSingle:
		return float64(float32(v))
	case Fixed:
		return math.Round(v*pm.scale) / pm.scale
	default:
		return v
	}
}

func (pm PrecisionModel) String() string {
	switch pm.typ {
	case FloatingSingle:
		return "floating-single"
	case Fixed:
		return fmt.Sprintf("fixed(scale=%g)", pm.scale)
	default:
		return "floating"
	}
}
