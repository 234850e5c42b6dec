// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geocodec converts between the MySQL storage format of spatial
// values and go-geom geometries.
//
// A stored value is a 4 byte SRID, in the configured byte order, followed by
// the Well-Known-Binary encoding of the geometry:
//
//	[SRID: 4 bytes][WKB: byte order, type, coordinates...]
//
// The WKB grammar itself is handled by github.com/twpayne/go-geom; this
// package deals with the SRID prefix, byte order, output dimension, the
// precision applied to decoded coordinates and the classification of errors.
package geocodec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geopb"
	"github.com/cockroachdb/redact"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
)

// wkbOptions makes empty points round trip as NaN coordinates, which is how
// MySQL and PostGIS write POINT EMPTY.
var wkbOptions = []wkbcommon.WKBOption{
	wkbcommon.WKBOptionEmptyPointHandling(wkbcommon.EmptyPointHandlingNaN),
}

// Codec decodes and encodes spatial values. It is safe for concurrent use.
// The zero value uses DefaultConfig.
type Codec struct {
	cfg atomic.Pointer[Config]
}

// New returns a Codec configured by opts.
func New(opts ...Option) (*Codec, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	c := &Codec{}
	c.cfg.Store(&cfg)
	return c, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(opts ...Option) *Codec {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Config returns a snapshot of the current configuration.
func (c *Codec) Config() Config {
	return *c.config()
}

func (c *Codec) config() *Config {
	if cfg := c.cfg.Load(); cfg != nil {
		return cfg
	}
	cfg := DefaultConfig()
	return &cfg
}

// WithOptions returns a new Codec with opts applied over the configuration of
// c. c is left unchanged.
func (c *Codec) WithOptions(opts ...Option) (*Codec, error) {
	cfg := *c.config()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := &Codec{}
	n.cfg.Store(&cfg)
	return n, nil
}

// update publishes a copy of the configuration with opt applied. Calls in
// flight keep the configuration they loaded when they started.
func (c *Codec) update(opt Option) error {
	for {
		old := c.cfg.Load()
		var next Config
		if old != nil {
			next = *old
		} else {
			next = DefaultConfig()
		}
		opt(&next)
		if err := next.validate(); err != nil {
			return err
		}
		if c.cfg.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// SetByteOrder changes the byte order for subsequent calls.
func (c *Codec) SetByteOrder(bo binary.ByteOrder) error {
	return c.update(WithByteOrder(bo))
}

// SetPrecisionModel changes the precision model for subsequent calls.
func (c *Codec) SetPrecisionModel(pm PrecisionModel) error {
	return c.update(WithPrecisionModel(pm))
}

// SetCoordSeqFactory changes the coordinate sequence factory for subsequent
// calls.
func (c *Codec) SetCoordSeqFactory(f CoordSeqFactory) error {
	return c.update(WithCoordSeqFactory(f))
}

// SetOutputDimension changes the output dimension for subsequent calls.
func (c *Codec) SetOutputDimension(dims int) error {
	return c.update(WithOutputDimension(dims))
}

// Decode converts a stored spatial value into a geometry carrying the stored
// SRID. A nil value decodes to a nil geometry. Bytes following the geometry
// are ignored unless the codec was configured WithStrictLength.
func (c *Codec) Decode(raw []byte) (geom.T, error) {
	if raw == nil {
		return nil, nil
	}
	cfg := c.config()
	if len(raw) < SRIDSize {
		return nil, errors.Mark(
			errors.Newf("spatial value has %d bytes, expected at least %d", len(raw), SRIDSize),
			ErrMalformedInput,
		)
	}
	srid := int32(cfg.byteOrder.Uint32(raw[:SRIDSize]))
	body := raw[SRIDSize:]
	n, err := frameBody(bytes.NewReader(body), io.Discard, srid)
	if err != nil {
		return nil, err
	}
	if extra := int64(len(body)) - n; extra > 0 && cfg.strictLength {
		return nil, errors.Mark(
			errors.Newf("%d unexpected bytes after WKB geometry", extra),
			ErrInvalidGeometry,
		)
	}
	return cfg.readBody(bytes.NewReader(body[:n]), srid)
}

// DecodeFrom reads one stored spatial value from r. Data following the
// geometry is left unread. A nil reader decodes to a nil geometry.
func (c *Codec) DecodeFrom(r io.Reader) (geom.T, error) {
	if r == nil {
		return nil, nil
	}
	cfg := c.config()
	tr := &trackingReader{r: r}
	var prefix [SRIDSize]byte
	if n, err := io.ReadFull(tr, prefix[:]); err != nil {
		if tr.err != nil {
			return nil, errors.Mark(errors.Mark(
				errors.Wrap(err, "reading SRID"), ErrInvalidGeometry), ErrIO)
		}
		return nil, errors.Mark(
			errors.Newf("spatial value has %d bytes, expected at least %d", n, SRIDSize),
			ErrMalformedInput,
		)
	}
	srid := int32(cfg.byteOrder.Uint32(prefix[:]))

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)
	if _, err := frameBody(tr, buf, srid); err != nil {
		return nil, markIO(err, tr.err)
	}
	return cfg.readBody(buf, srid)
}

// frameBody copies one WKB geometry from r to w and returns its length.
func frameBody(r io.Reader, w io.Writer, srid int32) (int64, error) {
	f := wkbFramer{r: r, w: w}
	if err := f.geometry(0); err != nil {
		return f.n, errors.Mark(
			errors.Wrapf(err, "decoding WKB geometry with SRID %d", redact.Safe(srid)),
			ErrInvalidGeometry,
		)
	}
	return f.n, nil
}

// readBody decodes a WKB geometry that has already been framed.
func (cfg *Config) readBody(r io.Reader, srid int32) (geom.T, error) {
	t, err := wkb.Read(r, wkbOptions...)
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "decoding WKB geometry with SRID %d", redact.Safe(srid)),
			ErrInvalidGeometry,
		)
	}
	t, err = rebuildGeom(t, identityLayout, cfg.decodeCoords)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidGeometry)
	}
	if err := geo.AdjustGeomSRID(t, geopb.SRID(srid)); err != nil {
		return nil, errors.Mark(err, ErrInvalidGeometry)
	}
	return t, nil
}

func identityLayout(l geom.Layout) geom.Layout { return l }

// decodeCoords builds the coordinate storage of a decoded component and
// applies the precision model to its X and Y ordinates.
func (cfg *Config) decodeCoords(flatCoords []float64, _, layout geom.Layout) []float64 {
	out := cfg.coordSeqFactory.Create(flatCoords)
	if cfg.precisionModel.IsFloating() {
		return out
	}
	stride := layout.Stride()
	for i := 0; i+1 < len(out); i += stride {
		out[i] = cfg.precisionModel.MakePrecise(out[i])
		out[i+1] = cfg.precisionModel.MakePrecise(out[i+1])
	}
	return out
}

var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// Encode converts a geometry into a stored spatial value prefixed by the
// geometry's SRID. A nil geometry encodes to a nil value.
func (c *Codec) Encode(g geom.T) ([]byte, error) {
	if isNilGeom(g) {
		return nil, nil
	}
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := c.config().write(buf, g); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// EncodeTo writes the stored spatial value of g to w. Nothing is written for
// a nil geometry.
func (c *Codec) EncodeTo(w io.Writer, g geom.T) error {
	if isNilGeom(g) {
		return nil
	}
	tw := &trackingWriter{w: w}
	if err := c.config().write(tw, g); err != nil {
		return markIO(err, tw.err)
	}
	return nil
}

func (cfg *Config) write(w io.Writer, g geom.T) error {
	srid := g.SRID()
	if srid < math.MinInt32 || srid > math.MaxInt32 {
		return errors.Mark(
			errors.Newf("SRID %d does not fit in 32 bits", redact.Safe(srid)),
			ErrEncoding,
		)
	}
	out := g
	if _, isCollection := g.(*geom.GeometryCollection); isCollection ||
		outputLayout(g.Layout(), cfg.outputDimension) != g.Layout() {
		var err error
		out, err = rebuildGeom(g, func(l geom.Layout) geom.Layout {
			return outputLayout(l, cfg.outputDimension)
		}, projectCoords)
		if err != nil {
			return errors.Mark(err, ErrEncoding)
		}
	}

	var prefix [SRIDSize]byte
	cfg.byteOrder.PutUint32(prefix[:], uint32(int32(srid)))
	if _, err := w.Write(prefix[:]); err != nil {
		return errors.Mark(errors.Wrap(err, "writing SRID"), ErrEncoding)
	}
	if err := wkb.Write(w, cfg.byteOrder, out, wkbOptions...); err != nil {
		return errors.Mark(
			errors.Wrapf(err, "encoding %T as WKB", g),
			ErrEncoding,
		)
	}
	return nil
}

// isNilGeom returns whether g is nil or a typed nil pointer.
func isNilGeom(g geom.T) bool {
	if g == nil {
		return true
	}
	v := reflect.ValueOf(g)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
