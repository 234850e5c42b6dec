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
	"io"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
)

// maxNestingDepth bounds how deeply collections may nest inside a WKB
// geometry.
const maxNestingDepth = 64

// wkbFramer copies exactly one WKB geometry from r to w and checks its
// structure on the way. Declared counts are never used to size an
// allocation: ordinates are copied as they arrive, so a count that is larger
// than the input fails with io.ErrUnexpectedEOF once the input runs out.
// go-geom allocates element arrays from the declared counts, so a body must
// pass through the framer before it reaches wkb.Read.
type wkbFramer struct {
	r   io.Reader
	w   io.Writer
	n   int64
	buf [4]byte
}

func (f *wkbFramer) read(p []byte) error {
	if _, err := io.ReadFull(f.r, p); err != nil {
		return err
	}
	f.n += int64(len(p))
	_, err := f.w.Write(p)
	return err
}

func (f *wkbFramer) uint32(bo binary.ByteOrder) (uint32, error) {
	if err := f.read(f.buf[:4]); err != nil {
		return 0, err
	}
	return bo.Uint32(f.buf[:4]), nil
}

func (f *wkbFramer) copyN(n int64) error {
	copied, err := io.CopyN(f.w, f.r, n)
	f.n += copied
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// coords copies a count-prefixed run of coordinates.
func (f *wkbFramer) coords(bo binary.ByteOrder, stride int) error {
	n, err := f.uint32(bo)
	if err != nil {
		return err
	}
	if err := f.copyN(int64(n) * int64(stride) * 8); err != nil {
		return errors.Wrapf(err, "reading %d coordinates", n)
	}
	return nil
}

func (f *wkbFramer) geometry(depth int) error {
	if depth > maxNestingDepth {
		return errors.Newf("WKB geometry nested deeper than %d levels", maxNestingDepth)
	}
	if err := f.read(f.buf[:1]); err != nil {
		return err
	}
	var bo binary.ByteOrder
	switch f.buf[0] {
	case wkbcommon.XDRID:
		bo = wkbcommon.XDR
	case wkbcommon.NDRID:
		bo = wkbcommon.NDR
	default:
		return wkbcommon.ErrUnknownByteOrder(f.buf[0])
	}
	code, err := f.uint32(bo)
	if err != nil {
		return err
	}
	t := wkbcommon.Type(code)
	var stride int
	switch t / 1000 {
	case 0:
		stride = 2
	case 1, 2:
		stride = 3
	case 3:
		stride = 4
	default:
		return wkbcommon.ErrUnknownType(t)
	}
	switch t % 1000 {
	case wkbcommon.PointID:
		return f.copyN(int64(stride) * 8)
	case wkbcommon.LineStringID:
		return f.coords(bo, stride)
	case wkbcommon.PolygonID:
		rings, err := f.uint32(bo)
		if err != nil {
			return err
		}
		for i := uint32(0); i < rings; i++ {
			if err := f.coords(bo, stride); err != nil {
				return errors.Wrapf(err, "ring %d", i)
			}
		}
		return nil
	case wkbcommon.MultiPointID, wkbcommon.MultiLineStringID,
		wkbcommon.MultiPolygonID, wkbcommon.GeometryCollectionID:
		n, err := f.uint32(bo)
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if err := f.geometry(depth + 1); err != nil {
				return errors.Wrapf(err, "element %d", i)
			}
		}
		return nil
	default:
		return wkbcommon.ErrUnsupportedType(t)
	}
}
