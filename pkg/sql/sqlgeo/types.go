// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package sqlgeo

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geopb"
	"github.com/twpayne/go-geom"
)

// Dialect is a SQL dialect whose spatial columns store SRID+WKB values.
type Dialect int

const (
	DialectMySQL Dialect = iota + 1
	DialectMariaDB
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectMariaDB:
		return "mariadb"
	default:
		return "unknown"
	}
}

// DataType describes a native spatial column type of a dialect.
type DataType struct {
	Dialect  Dialect
	TypeName string
	// ShapeType is the shape the column is restricted to, or
	// ShapeType_Unset for the generic GEOMETRY type.
	ShapeType geopb.ShapeType
}

func (dt *DataType) String() string {
	return dt.Dialect.String() + "." + strings.ToUpper(dt.TypeName)
}

// spatialTypes are the spatial column types shared by MySQL and MariaDB.
var spatialTypes = map[string]geopb.ShapeType{
	"geometry":           geopb.ShapeType_Unset,
	"point":              geopb.ShapeType_Point,
	"linestring":         geopb.ShapeType_LineString,
	"polygon":            geopb.ShapeType_Polygon,
	"multipoint":         geopb.ShapeType_MultiPoint,
	"multilinestring":    geopb.ShapeType_MultiLineString,
	"multipolygon":       geopb.ShapeType_MultiPolygon,
	"geometrycollection": geopb.ShapeType_GeometryCollection,
	// MySQL 8 alias of geometrycollection.
	"geomcollection": geopb.ShapeType_GeometryCollection,
}

// DefaultNativeType looks up the spatial type typeName of dialect.
func DefaultNativeType(dialect Dialect, typeName string) (*DataType, error) {
	switch dialect {
	case DialectMySQL, DialectMariaDB:
	default:
		return nil, errors.WithHint(
			errors.Newf("dialect %s does not store spatial values as SRID+WKB", dialect),
			"supported dialects are mysql and mariadb",
		)
	}
	name := strings.ToLower(typeName)
	shape, ok := spatialTypes[name]
	if !ok {
		return nil, errors.Newf("type %q is not a spatial type of dialect %s", typeName, dialect)
	}
	return &DataType{Dialect: dialect, TypeName: name, ShapeType: shape}, nil
}

// AsConvertedDataType attaches conv to the type.
func (dt *DataType) AsConvertedDataType(conv Converter) *ConvertedDataType {
	return &ConvertedDataType{DataType: dt, conv: conv}
}

// ConvertedDataType is a native spatial type whose values are converted to
// and from geometries.
type ConvertedDataType struct {
	*DataType
	conv Converter
}

// Converter returns the converter attached to the type.
func (c *ConvertedDataType) Converter() Converter { return c.conv }

// Accepts returns whether a column of this type can hold g.
func (c *ConvertedDataType) Accepts(g geom.T) bool {
	return c.ShapeType == geopb.ShapeType_Unset || geopb.ShapeTypeOf(g) == c.ShapeType
}

// Value converts g into a value for a column of this type.
func (c *ConvertedDataType) Value(g geom.T) (driver.Value, error) {
	if g != nil && !c.Accepts(g) {
		return nil, errors.Newf("cannot store %s in a %s column", geopb.ShapeTypeOf(g), c)
	}
	return c.conv.To(g)
}

// Scanner returns a sql.Scanner storing the converted column value in dst.
func (c *ConvertedDataType) Scanner(dst *geom.T) sql.Scanner {
	return &scanner{conv: c.conv, dst: dst}
}

type scanner struct {
	conv Converter
	dst  *geom.T
}

func (s *scanner) Scan(src interface{}) error {
	g, err := s.conv.From(src)
	if err != nil {
		return err
	}
	*s.dst = g
	return nil
}

// RegisterDataType returns the MySQL GEOMETRY type converted with c.
func RegisterDataType(c *geocodec.Codec) (*ConvertedDataType, error) {
	return RegisterDataTypeFor(c, DialectMySQL, "geometry")
}

// RegisterDataTypeFor returns the spatial type typeName of dialect converted
// with c.
func RegisterDataTypeFor(
	c *geocodec.Codec, dialect Dialect, typeName string,
) (*ConvertedDataType, error) {
	dt, err := DefaultNativeType(dialect, typeName)
	if err != nil {
		return nil, err
	}
	return dt.AsConvertedDataType(NewGeometryConverter(c)), nil
}
