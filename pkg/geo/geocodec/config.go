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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// SRIDSize is the size of the SRID prefix of an encoded spatial value.
const SRIDSize = 4

// DefaultByteOrder is the byte order MySQL uses for stored geometries.
var DefaultByteOrder binary.ByteOrder = binary.LittleEndian

// DefaultOutputDimension is the number of ordinates written per coordinate.
const DefaultOutputDimension = 2

// Config is the immutable configuration of a Codec. Byte order and output
// dimension shape the bytes that are written; the precision model and the
// coordinate sequence factory shape the geometries that are read.
type Config struct {
	byteOrder       binary.ByteOrder
	precisionModel  PrecisionModel
	coordSeqFactory CoordSeqFactory
	outputDimension int
	strictLength    bool
}

// Option modifies a Config under construction.
type Option func(*Config)

// WithByteOrder sets the byte order of the SRID prefix and of written WKB.
func WithByteOrder(bo binary.ByteOrder) Option {
	return func(c *Config) { c.byteOrder = bo }
}

// WithPrecisionModel sets the precision model applied to decoded geometries.
func WithPrecisionModel(pm PrecisionModel) Option {
	return func(c *Config) { c.precisionModel = pm }
}

// WithCoordSeqFactory sets the coordinate storage of decoded geometries.
func WithCoordSeqFactory(f CoordSeqFactory) Option {
	return func(c *Config) { c.coordSeqFactory = f }
}

// WithOutputDimension sets the number of ordinates written per coordinate,
// either 2 or 3.
func WithOutputDimension(dims int) Option {
	return func(c *Config) { c.outputDimension = dims }
}

// WithStrictLength makes Decode reject values with bytes left over after the
// WKB geometry. By default such bytes are ignored.
func WithStrictLength(strict bool) Option {
	return func(c *Config) { c.strictLength = strict }
}

// DefaultConfig returns little-endian, 2-D, floating precision, array
// sequence configuration.
func DefaultConfig() Config {
	return Config{
		byteOrder:       DefaultByteOrder,
		precisionModel:  NewFloatingPrecisionModel(),
		coordSeqFactory: ArrayCoordSeqFactory{},
		outputDimension: DefaultOutputDimension,
	}
}

// NewConfig applies opts over DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.byteOrder != binary.LittleEndian && c.byteOrder != binary.BigEndian {
		return errors.WithHint(
			errors.Newf("unsupported byte order %v", c.byteOrder),
			"use binary.LittleEndian (NDR) or binary.BigEndian (XDR)",
		)
	}
	if err := c.precisionModel.validate(); err != nil {
		return err
	}
	if c.coordSeqFactory == nil {
		return errors.New("coordinate sequence factory must be set")
	}
	if c.outputDimension != 2 && c.outputDimension != 3 {
		return errors.WithHint(
			errors.Newf("unsupported output dimension %d", c.outputDimension),
			"the output dimension must be 2 or 3",
		)
	}
	return nil
}

// ByteOrder returns the configured byte order.
func (c Config) ByteOrder() binary.ByteOrder { return c.byteOrder }

// PrecisionModel returns the configured precision model.
func (c Config) PrecisionModel() PrecisionModel { return c.precisionModel }

// CoordSeqFactory returns the configured coordinate sequence factory.
func (c Config) CoordSeqFactory() CoordSeqFactory { return c.coordSeqFactory }

// OutputDimension returns the configured output dimension.
func (c Config) OutputDimension() int { return c.outputDimension }

// StrictLength returns whether Decode rejects trailing bytes.
func (c Config) StrictLength() bool { return c.strictLength }

func (c Config) String() string {
	s := fmt.Sprintf("byte_order=%s dims=%d precision=%s coord_seq=%s",
		ByteOrderName(c.byteOrder), c.outputDimension, c.precisionModel, c.coordSeqFactory)
	if c.strictLength {
		s += " strict_length"
	}
	return s
}

// ParseByteOrder returns the byte order of s. Both the WKB names (NDR, XDR)
// and the plain names (little, big) are accepted.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "ndr", "little", "little-endian", "le":
		return binary.LittleEndian, nil
	case "xdr", "big", "big-endian", "be":
		return binary.BigEndian, nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown byte order %q", s),
			"use ndr (little endian) or xdr (big endian)",
		)
	}
}

// ByteOrderName returns the WKB name of bo.
func ByteOrderName(bo binary.ByteOrder) string {
	switch bo {
	case binary.LittleEndian:
		return "ndr"
	case binary.BigEndian:
		return "xdr"
	default:
		return fmt.Sprintf("%v", bo)
	}
}
