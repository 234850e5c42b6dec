// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geo contains helpers that describe geometries decoded from stored
// spatial values.
//
// Subpackages:
//
//   - geo/geocodec converts between the MySQL SRID+WKB storage format and
//     go-geom geometries.
//   - geo/geopb holds the plain data types shared by the other packages.
package geo

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geopb"
	"github.com/pierrre/geohash"
	"github.com/twpayne/go-geom"
)

// BoundingBoxOf returns the XY extent of t. The box is empty for empty
// geometries.
func BoundingBoxOf(t geom.T) *geopb.BoundingBox {
	bbox := geopb.NewBoundingBox()
	updateBoundingBox(bbox, t)
	return bbox
}

func updateBoundingBox(bbox *geopb.BoundingBox, t geom.T) {
	if gc, ok := t.(*geom.GeometryCollection); ok {
		for _, g := range gc.Geoms() {
			updateBoundingBox(bbox, g)
		}
		return
	}
	flatCoords, stride := t.FlatCoords(), t.Stride()
	for i := 0; i+1 < len(flatCoords); i += stride {
		x, y := flatCoords[i], flatCoords[i+1]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		bbox.Update(x, y)
	}
}

// NumCoords returns the number of coordinates in t, including those of
// nested geometries.
func NumCoords(t geom.T) int {
	if gc, ok := t.(*geom.GeometryCollection); ok {
		n := 0
		for _, g := range gc.Geoms() {
			n += NumCoords(g)
		}
		return n
	}
	if t.Stride() == 0 {
		return 0
	}
	return len(t.FlatCoords()) / t.Stride()
}

// GeoHashAutoPrecision means to calculate the precision of GeoHash based on
// input, up to GeoHashMaxPrecision characters.
const GeoHashAutoPrecision = 0

// GeoHashMaxPrecision is the maximum precision for GeoHashes.
// 20 is picked as doubles have 51 decimals of precision, and each base32 position
// can contain 5 bits of data. As we have two points, we use floor((2 * 51) / 5) = 20.
const GeoHashMaxPrecision = 20

// GeoHash returns the GeoHash of the centre of the bounding box of t, which
// must be expressed in longitude/latitude degrees. An empty geometry has an
// empty GeoHash.
func GeoHash(t geom.T, p int) (string, error) {
	bbox := BoundingBoxOf(t)
	if bbox.Empty() {
		return "", nil
	}
	if bbox.MinX < -180 || bbox.MaxX > 180 || bbox.MinY < -90 || bbox.MaxY > 90 {
		return "", errors.WithHint(
			errors.Newf(
				"object has bounds greater than the bounds of lat/lng, got (%f %f, %f %f)",
				bbox.MinX, bbox.MinY,
				bbox.MaxX, bbox.MaxY,
			),
			"GeoHashes are only defined for SRID 4326 style longitude/latitude coordinates",
		)
	}

	// Get precision using the bounding box if required.
	if p <= GeoHashAutoPrecision {
		p = getPrecisionForBBox(bbox)
	}
	if p > GeoHashMaxPrecision {
		p = GeoHashMaxPrecision
	}

	bbCenterLng := bbox.MinX + (bbox.MaxX-bbox.MinX)/2.0
	bbCenterLat := bbox.MinY + (bbox.MaxY-bbox.MinY)/2.0

	return geohash.Encode(bbCenterLat, bbCenterLng, p), nil
}

// getPrecisionForBBox halves the world bounding box until it no longer
// covers the feature bounding box, so that the resulting GeoHash encompasses
// the whole feature.
func getPrecisionForBBox(bbox *geopb.BoundingBox) int {
	bitPrecision := 0

	// This is a point, for points we use the full bitPrecision.
	if bbox.MinX == bbox.MaxX && bbox.MinY == bbox.MaxY {
		return GeoHashMaxPrecision
	}

	lonMin, lonMax := -180.0, 180.0
	latMin, latMax := -90.0, 90.0

	for {
		lonWidth := lonMax - lonMin
		latWidth := latMax - latMin
		latMaxDelta, lonMaxDelta, latMinDelta, lonMinDelta := 0.0, 0.0, 0.0, 0.0

		if bbox.MinX > lonMin+lonWidth/2.0 {
			lonMinDelta = lonWidth / 2.0
		} else if bbox.MaxX < lonMax-lonWidth/2.0 {
			lonMaxDelta = lonWidth / -2.0
		}
		if bbox.MinY > latMin+latWidth/2.0 {
			latMinDelta = latWidth / 2.0
		} else if bbox.MaxY < latMax-latWidth/2.0 {
			latMaxDelta = latWidth / -2.0
		}

		// Every split adds precision; no split means the box was reached.
		precisionDelta := 0
		if lonMinDelta != 0.0 || lonMaxDelta != 0.0 {
			lonMin += lonMinDelta
			lonMax += lonMaxDelta
			precisionDelta++
		} else {
			break
		}
		if latMinDelta != 0.0 || latMaxDelta != 0.0 {
			latMin += latMinDelta
			latMax += latMaxDelta
			precisionDelta++
		} else {
			break
		}
		bitPrecision += precisionDelta
	}
	// Each character can represent 5 bits of bitPrecision.
	return bitPrecision / 5
}

// Summary describes a decoded geometry.
type Summary struct {
	SRID      geopb.SRID
	ShapeType geopb.ShapeType
	Layout    geom.Layout
	NumCoords int
	Empty     bool
	BBox      *geopb.BoundingBox
	// GeoHash is empty when the geometry is empty or not within lat/lng
	// bounds.
	GeoHash string
}

// Summarize returns the Summary of t.
func Summarize(t geom.T) Summary {
	s := Summary{
		SRID:      geopb.SRID(t.SRID()),
		ShapeType: geopb.ShapeTypeOf(t),
		Layout:    t.Layout(),
		NumCoords: NumCoords(t),
		BBox:      BoundingBoxOf(t),
	}
	s.Empty = s.BBox.Empty()
	if hash, err := GeoHash(t, GeoHashAutoPrecision); err == nil {
		s.GeoHash = hash
	}
	return s
}

func (s Summary) String() string {
	str := fmt.Sprintf("srid=%d type=%s layout=%s coords=%d bbox=%s",
		s.SRID, s.ShapeType, LayoutName(s.Layout), s.NumCoords, s.BBox)
	if s.GeoHash != "" {
		str += " geohash=" + s.GeoHash
	}
	return str
}

// LayoutName returns the OGC name of a layout's ordinates.
func LayoutName(l geom.Layout) string {
	switch l {
	case geom.XY:
		return "XY"
	case geom.XYZ:
		return "XYZ"
	case geom.XYM:
		return "XYM"
	case geom.XYZM:
		return "XYZM"
	default:
		return "NoLayout"
	}
}

// AdjustGeomSRID sets the SRID of t and of the geometries of a collection.
// Ideally SetSRID is an interface of geom.T, but that is not the case.
func AdjustGeomSRID(t geom.T, srid geopb.SRID) error {
	switch t := t.(type) {
	case *geom.Point:
		t.SetSRID(int(srid))
	case *geom.LineString:
		t.SetSRID(int(srid))
	case *geom.Polygon:
		t.SetSRID(int(srid))
	case *geom.MultiPoint:
		t.SetSRID(int(srid))
	case *geom.MultiLineString:
		t.SetSRID(int(srid))
	case *geom.MultiPolygon:
		t.SetSRID(int(srid))
	case *geom.GeometryCollection:
		t.SetSRID(int(srid))
		for _, g := range t.Geoms() {
			if err := AdjustGeomSRID(g, srid); err != nil {
				return err
			}
		}
	default:
		return errors.AssertionFailedf("unknown geom type: %T", t)
	}
	return nil
}
