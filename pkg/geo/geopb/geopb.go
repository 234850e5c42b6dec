// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geopb contains the plain data types shared by the geo packages.
package geopb

import "github.com/twpayne/go-geom"

// SRID is a Spatial Reference Identifier. All SRIDs are 32-bit signed
// integers; 0 means the reference system is unspecified.
type SRID int32

const (
	// UnknownSRID is the SRID of a geometry with no reference system.
	UnknownSRID SRID = 0
	// DefaultGeographySRID is the SRID of WGS 84, used for lat/lng data.
	DefaultGeographySRID SRID = 4326
)

// ShapeType is the kind of a geometry as named by the OGC.
type ShapeType int

// These are ordered as their WKB type codes.
const (
	ShapeType_Unset ShapeType = iota
	ShapeType_Point
	ShapeType_LineString
	ShapeType_Polygon
	ShapeType_MultiPoint
	ShapeType_MultiLineString
	ShapeType_MultiPolygon
	ShapeType_GeometryCollection
)

var shapeTypeNames = [...]string{
	ShapeType_Unset:              "Unset",
	ShapeType_Point:              "Point",
	ShapeType_LineString:         "LineString",
	ShapeType_Polygon:            "Polygon",
	ShapeType_MultiPoint:         "MultiPoint",
	ShapeType_MultiLineString:    "MultiLineString",
	ShapeType_MultiPolygon:       "MultiPolygon",
	ShapeType_GeometryCollection: "GeometryCollection",
}

func (s ShapeType) String() string {
	if s < 0 || int(s) >= len(shapeTypeNames) {
		return "Unset"
	}
	return shapeTypeNames[s]
}

// ShapeTypeOf returns the ShapeType of the given geom.T.
func ShapeTypeOf(t geom.T) ShapeType {
	switch t.(type) {
	case *geom.Point:
		return ShapeType_Point
	case *geom.LineString:
		return ShapeType_LineString
	case *geom.Polygon:
		return ShapeType_Polygon
	case *geom.MultiPoint:
		return ShapeType_MultiPoint
	case *geom.MultiLineString:
		return ShapeType_MultiLineString
	case *geom.MultiPolygon:
		return ShapeType_MultiPolygon
	case *geom.GeometryCollection:
		return ShapeType_GeometryCollection
	default:
		return ShapeType_Unset
	}
}
