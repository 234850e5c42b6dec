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
	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom"
)

// coordFunc returns a freshly allocated copy of flatCoords, laid out in src,
// rewritten into dst.
type coordFunc func(flatCoords []float64, src, dst geom.Layout) []float64

// outputLayout returns the layout a geometry of layout l is written in for
// the given output dimension. M is never written; Z is only written when
// requested and present.
func outputLayout(l geom.Layout, dims int) geom.Layout {
	switch {
	case l == geom.NoLayout:
		return l
	case dims >= 3 && l.ZIndex() != -1:
		return geom.XYZ
	default:
		return geom.XY
	}
}

// projectCoords copies the ordinates shared by src and dst.
func projectCoords(flatCoords []float64, src, dst geom.Layout) []float64 {
	srcStride, dstStride := src.Stride(), dst.Stride()
	n := len(flatCoords) / srcStride
	out := make([]float64, n*dstStride)
	srcZ, dstZ := src.ZIndex(), dst.ZIndex()
	srcM, dstM := src.MIndex(), dst.MIndex()
	for i := 0; i < n; i++ {
		from, to := flatCoords[i*srcStride:], out[i*dstStride:]
		to[0], to[1] = from[0], from[1]
		if dstZ != -1 && srcZ != -1 {
			to[dstZ] = from[srcZ]
		}
		if dstM != -1 && srcM != -1 {
			to[dstM] = from[srcM]
		}
	}
	return out
}

// rescaleEnds converts offsets into a flat coordinate slice of one stride
// into offsets for another.
func rescaleEnds(ends []int, srcStride, dstStride int) []int {
	if ends == nil {
		return nil
	}
	out := make([]int, len(ends))
	for i, end := range ends {
		out[i] = end / srcStride * dstStride
	}
	return out
}

func rescaleEndss(endss [][]int, srcStride, dstStride int) [][]int {
	if endss == nil {
		return nil
	}
	out := make([][]int, len(endss))
	for i, ends := range endss {
		out[i] = rescaleEnds(ends, srcStride, dstStride)
	}
	return out
}

// rebuildGeom returns a deep copy of t in which every component's layout is
// replaced by layoutFor(layout) and its coordinates rewritten by fn. t itself
// is never modified.
func rebuildGeom(t geom.T, layoutFor func(geom.Layout) geom.Layout, fn coordFunc) (geom.T, error) {
	switch t := t.(type) {
	case *geom.Point:
		dst := layoutFor(t.Layout())
		if t.Empty() {
			return geom.NewPointEmpty(dst), nil
		}
		return geom.NewPointFlat(dst, fn(t.FlatCoords(), t.Layout(), dst)), nil
	case *geom.LineString:
		dst := layoutFor(t.Layout())
		return geom.NewLineStringFlat(dst, fn(t.FlatCoords(), t.Layout(), dst)), nil
	case *geom.Polygon:
		dst := layoutFor(t.Layout())
		return geom.NewPolygonFlat(
			dst,
			fn(t.FlatCoords(), t.Layout(), dst),
			rescaleEnds(t.Ends(), t.Stride(), dst.Stride()),
		), nil
	case *geom.MultiPoint:
		// Points are pushed one at a time so that empty points survive.
		dst := layoutFor(t.Layout())
		mp := geom.NewMultiPoint(dst)
		for i := 0; i < t.NumPoints(); i++ {
			p, err := rebuildGeom(t.Point(i), layoutFor, fn)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(p.(*geom.Point)); err != nil {
				return nil, errors.Wrapf(err, "point %d", i)
			}
		}
		return mp, nil
	case *geom.MultiLineString:
		dst := layoutFor(t.Layout())
		return geom.NewMultiLineStringFlat(
			dst,
			fn(t.FlatCoords(), t.Layout(), dst),
			rescaleEnds(t.Ends(), t.Stride(), dst.Stride()),
		), nil
	case *geom.MultiPolygon:
		dst := layoutFor(t.Layout())
		return geom.NewMultiPolygonFlat(
			dst,
			fn(t.FlatCoords(), t.Layout(), dst),
			rescaleEndss(t.Endss(), t.Stride(), dst.Stride()),
		), nil
	case *geom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for i := 0; i < t.NumGeoms(); i++ {
			g, err := rebuildGeom(t.Geom(i), layoutFor, fn)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(g); err != nil {
				return nil, errors.Wrapf(err, "geometry %d", i)
			}
		}
		// An empty collection only knows its layout if it was given one,
		// which is how GEOMETRYCOLLECTION Z EMPTY differs from the 2-D one.
		if t.NumGeoms() == 0 && t.Layout() != geom.NoLayout {
			if err := gc.SetLayout(layoutFor(t.Layout())); err != nil {
				return nil, err
			}
		}
		return gc, nil
	default:
		return nil, errors.Newf("unsupported geometry type %T", t)
	}
}
